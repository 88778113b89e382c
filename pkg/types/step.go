package types

import (
	"cmp"
	"strings"
	"time"
)

// Date and time layouts used in sheet cells.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// AppStep is one stage of a recruitment process.
type AppStep struct {
	Position        int      `json:"-"`
	StepID          string   `json:"step_id"`
	AppID           string   `json:"app_id"`
	StepType        StepType `json:"step_type"`
	StepName        string   `json:"step_name"`
	StepDate        string   `json:"step_date"`
	StepTime        string   `json:"step_time"`
	StepNotes       string   `json:"step_notes"`
	CalendarEventID string   `json:"google_calendar_event_id"`
	CreatedAt       string   `json:"created_at"`
}

func (s AppStep) RowPosition() int                { return s.Position }
func (s AppStep) AtPosition(position int) AppStep { s.Position = position; return s }
func (s AppStep) ApplicationID() string           { return s.AppID }

// Validate checks required fields and date formats.
func (s AppStep) Validate() error {
	if strings.TrimSpace(s.AppID) == "" {
		return invalid("app_id", "is required")
	}
	if !s.StepType.Valid() {
		return invalid("step_type", "is not recognized")
	}
	if err := checkDate("step_date", s.StepDate); err != nil {
		return err
	}
	return checkTime("step_time", s.StepTime)
}

// CompareSteps orders steps by date, then time.
func CompareSteps(a, b AppStep) int {
	return cmp.Or(cmp.Compare(a.StepDate, b.StepDate), cmp.Compare(a.StepTime, b.StepTime))
}

func checkDate(field, v string) error {
	if v == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, v); err != nil {
		return invalid(field, "must be YYYY-MM-DD")
	}
	return nil
}

func checkTime(field, v string) error {
	if v == "" {
		return nil
	}
	if _, err := time.Parse(TimeLayout, v); err != nil {
		return invalid(field, "must be HH:MM")
	}
	return nil
}
