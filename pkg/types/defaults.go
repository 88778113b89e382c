package types

// Defaults substituted by the codecs when a stored cell is blank or holds an
// unrecognized value. Keyed by sheet, then column. This is the only place
// fallback values are chosen.
var fieldDefaults = map[string]map[string]string{
	FilesSheet: {
		"profile_id": string(DefaultProfile),
		"file_type":  string(FileTypeOther),
	},
	CompaniesSheet: {
		"profile_id": string(DefaultProfile),
	},
	RecruitersSheet: {
		"profile_id": string(DefaultProfile),
	},
	ApplicationsSheet: {
		"profile_id": string(DefaultProfile),
		"status":     string(StatusSent),
		"priority":   string(PriorityNormal),
	},
	AppStepsSheet: {
		"step_type": string(StepOther),
	},
	CalendarEventsSheet: {
		"profile_id":       string(DefaultProfile),
		"event_type":       string(EventOther),
		"duration_minutes": "60",
	},
}

// DefaultValue returns the fallback for column in sheet, or "" when the
// column has none.
func DefaultValue(sheet, column string) string {
	return fieldDefaults[sheet][column]
}

// Scheduling defaults used when exporting to the calendar.
const (
	DefaultEventTime       = "09:00"
	DefaultStepTime        = "10:00"
	DefaultDurationMinutes = 60
	StepDurationMinutes    = 60
)
