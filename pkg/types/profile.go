package types

import "strings"

// ProfileID partitions every profile-scoped record. A tracker instance
// serves two fixed profiles.
type ProfileID string

// Known profiles.
const (
	ProfileMikolaj ProfileID = "mikolaj"
	ProfileEmilka  ProfileID = "emilka"
)

// DefaultProfile is used when a stored row carries no profile or an account
// email matches no configured profile.
const DefaultProfile = ProfileMikolaj

// Profiles lists the known profiles in display order.
var Profiles = []ProfileID{ProfileMikolaj, ProfileEmilka}

// Valid reports whether p is one of the known profiles.
func (p ProfileID) Valid() bool {
	return p == ProfileMikolaj || p == ProfileEmilka
}

// ParseProfile converts a user-supplied string into a ProfileID.
// Returns ErrUnknownProfile when the value names no known profile.
func ParseProfile(s string) (ProfileID, error) {
	p := ProfileID(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ErrUnknownProfile
	}
	return p, nil
}

// Scoped is implemented by records that belong to exactly one profile.
type Scoped interface {
	Profile() ProfileID
}
