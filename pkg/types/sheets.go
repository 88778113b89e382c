package types

// Sheet names in the backing spreadsheet. Each entity type lives in its own
// sheet; ConfigSheet holds key/value configuration.
const (
	ConfigSheet         = "_Config"
	FilesSheet          = "Files"
	CompaniesSheet      = "Companies"
	RecruitersSheet     = "Recruiters"
	ApplicationsSheet   = "Applications"
	AppFilesSheet       = "AppFiles"
	AppRecruitersSheet  = "AppRecruiters"
	AppStepsSheet       = "AppSteps"
	CalendarEventsSheet = "CalendarEvents"
)

// EntitySheets lists the eight entity sheets in load order.
var EntitySheets = []string{
	FilesSheet,
	CompaniesSheet,
	RecruitersSheet,
	ApplicationsSheet,
	AppFilesSheet,
	AppRecruitersSheet,
	AppStepsSheet,
	CalendarEventsSheet,
}

// FirstDataPosition is the position of the first data row. Position 1 is
// the header row.
const FirstDataPosition = 2
