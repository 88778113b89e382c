package types

import "strings"

// Recruiter is a contact person, optionally tied to a company.
type Recruiter struct {
	Position    int       `json:"-"`
	RecruiterID string    `json:"recruiter_id"`
	ProfileID   ProfileID `json:"profile_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	LinkedInURL string    `json:"linkedin_url"`
	CompanyID   string    `json:"company_id"`
	Notes       string    `json:"notes"`
	CreatedAt   string    `json:"created_at"`
}

func (r Recruiter) RowPosition() int                  { return r.Position }
func (r Recruiter) AtPosition(position int) Recruiter { r.Position = position; return r }
func (r Recruiter) Profile() ProfileID                { return r.ProfileID }

// FullName joins first and last name.
func (r Recruiter) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// Validate checks required fields.
func (r Recruiter) Validate() error {
	if r.FullName() == "" {
		return invalid("first_name", "or last_name is required")
	}
	if !r.ProfileID.Valid() {
		return invalid("profile_id", "is not recognized")
	}
	return nil
}
