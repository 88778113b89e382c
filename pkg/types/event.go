package types

import (
	"strings"
	"time"
)

// CalendarEvent is a dated entry on the tracker calendar, optionally tied
// to an application.
type CalendarEvent struct {
	Position        int       `json:"-"`
	EventID         string    `json:"event_id"`
	ProfileID       ProfileID `json:"profile_id"`
	AppID           string    `json:"app_id"`
	Title           string    `json:"title"`
	EventDate       string    `json:"event_date"`
	EventTime       string    `json:"event_time"`
	DurationMinutes int       `json:"duration_minutes"`
	EventType       EventType `json:"event_type"`
	CalendarEventID string    `json:"google_calendar_event_id"`
	Notes           string    `json:"notes"`
	CreatedAt       string    `json:"created_at"`
}

func (e CalendarEvent) RowPosition() int                      { return e.Position }
func (e CalendarEvent) AtPosition(position int) CalendarEvent { e.Position = position; return e }
func (e CalendarEvent) Profile() ProfileID                    { return e.ProfileID }

// Validate checks required fields, formats and the duration.
func (e CalendarEvent) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return invalid("title", "is required")
	}
	if e.EventDate == "" {
		return invalid("event_date", "is required")
	}
	if err := checkDate("event_date", e.EventDate); err != nil {
		return err
	}
	if err := checkTime("event_time", e.EventTime); err != nil {
		return err
	}
	if e.DurationMinutes <= 0 {
		return invalid("duration_minutes", "must be positive")
	}
	if !e.EventType.Valid() {
		return invalid("event_type", "is not recognized")
	}
	if !e.ProfileID.Valid() {
		return invalid("profile_id", "is not recognized")
	}
	return nil
}

// Start returns the event start in loc, using DefaultEventTime when no time
// is set.
func (e CalendarEvent) Start(loc *time.Location) (time.Time, error) {
	return ParseLocal(e.EventDate, e.EventTime, DefaultEventTime, loc)
}

// ParseLocal combines a date cell and a time cell in loc. fallbackTime is
// used when timeCell is blank.
func ParseLocal(dateCell, timeCell, fallbackTime string, loc *time.Location) (time.Time, error) {
	if timeCell == "" {
		timeCell = fallbackTime
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, dateCell+" "+timeCell, loc)
	if err != nil {
		return time.Time{}, invalid("date", "cannot be parsed: "+err.Error())
	}
	return t, nil
}
