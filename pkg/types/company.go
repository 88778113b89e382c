package types

import "strings"

// Company is an employer. The coordinates and commute figures are filled
// by the optional geocoding step and may be nil.
type Company struct {
	Position      int       `json:"-"`
	CompanyID     string    `json:"company_id"`
	ProfileID     ProfileID `json:"profile_id"`
	Name          string    `json:"name"`
	Industry      string    `json:"industry"`
	Website       string    `json:"website"`
	CareersURL    string    `json:"careers_url"`
	LinkedInURL   string    `json:"linkedin_url"`
	Address       string    `json:"address"`
	Lat           *float64  `json:"lat"`
	Lng           *float64  `json:"lng"`
	DistanceKm    *float64  `json:"distance_km"`
	TravelTimeMin *float64  `json:"travel_time_min"`
	Notes         string    `json:"notes"`
	CreatedAt     string    `json:"created_at"`
}

func (c Company) RowPosition() int                { return c.Position }
func (c Company) AtPosition(position int) Company { c.Position = position; return c }
func (c Company) Profile() ProfileID              { return c.ProfileID }

// Validate checks required fields.
func (c Company) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name", "is required")
	}
	if !c.ProfileID.Valid() {
		return invalid("profile_id", "is not recognized")
	}
	return nil
}
