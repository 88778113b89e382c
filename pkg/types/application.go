package types

import "strings"

// Application is a job application, the central record that companies,
// files, recruiters and steps hang off.
//
// HourlyRate is derived from MonthlySalary; use SetMonthlySalary or
// Recompute instead of assigning it.
type Application struct {
	Position         int               `json:"-"`
	AppID            string            `json:"app_id"`
	ProfileID        ProfileID         `json:"profile_id"`
	CompanyID        string            `json:"company_id"`
	PositionTitle    string            `json:"position_title"`
	PositionURL      string            `json:"position_url"`
	Status           ApplicationStatus `json:"status"`
	Priority         Priority          `json:"priority"`
	ExcitementRating *float64          `json:"excitement_rating"`
	MonthlySalary    *float64          `json:"monthly_salary"`
	HourlyRate       *float64          `json:"hourly_rate"`
	JobOfferFileID   string            `json:"job_offer_file_id"`
	AppliedDate      string            `json:"applied_date"`
	ResponseDate     string            `json:"response_date"`
	RoleDescription  string            `json:"role_description"`
	Notes            string            `json:"notes"`
	CreatedAt        string            `json:"created_at"`
	UpdatedAt        string            `json:"updated_at"`
}

func (a Application) RowPosition() int                    { return a.Position }
func (a Application) AtPosition(position int) Application { a.Position = position; return a }
func (a Application) Profile() ProfileID                  { return a.ProfileID }

// SetMonthlySalary stores the salary and recomputes the hourly rate.
func (a *Application) SetMonthlySalary(monthly *float64) {
	a.MonthlySalary = monthly
	a.Recompute()
}

// Recompute refreshes every derived field.
func (a *Application) Recompute() {
	a.HourlyRate = HourlyRate(a.MonthlySalary)
}

// Validate checks required fields and value ranges.
func (a Application) Validate() error {
	if strings.TrimSpace(a.CompanyID) == "" {
		return invalid("company_id", "is required")
	}
	if strings.TrimSpace(a.PositionTitle) == "" {
		return invalid("position_title", "is required")
	}
	if !a.Status.Valid() {
		return invalid("status", "is not recognized")
	}
	if !a.Priority.Valid() {
		return invalid("priority", "is not recognized")
	}
	if r := a.ExcitementRating; r != nil && (*r < 1 || *r > 5) {
		return invalid("excitement_rating", "must be between 1 and 5")
	}
	if !a.ProfileID.Valid() {
		return invalid("profile_id", "is not recognized")
	}
	return nil
}
