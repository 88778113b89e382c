package types

import "strings"

// AppFile links an application to a file. Links have no identifier of
// their own and are addressed by position.
type AppFile struct {
	Position   int    `json:"-"`
	AppID      string `json:"app_id"`
	FileID     string `json:"file_id"`
	AttachedAt string `json:"attached_at"`
}

func (l AppFile) RowPosition() int                { return l.Position }
func (l AppFile) AtPosition(position int) AppFile { l.Position = position; return l }
func (l AppFile) ApplicationID() string           { return l.AppID }

// Validate checks that both ends of the link are set.
func (l AppFile) Validate() error {
	if strings.TrimSpace(l.AppID) == "" {
		return invalid("app_id", "is required")
	}
	if strings.TrimSpace(l.FileID) == "" {
		return invalid("file_id", "is required")
	}
	return nil
}

// AppRecruiter links an application to a recruiter.
type AppRecruiter struct {
	Position    int    `json:"-"`
	AppID       string `json:"app_id"`
	RecruiterID string `json:"recruiter_id"`
}

func (l AppRecruiter) RowPosition() int                     { return l.Position }
func (l AppRecruiter) AtPosition(position int) AppRecruiter { l.Position = position; return l }
func (l AppRecruiter) ApplicationID() string                { return l.AppID }

// Validate checks that both ends of the link are set.
func (l AppRecruiter) Validate() error {
	if strings.TrimSpace(l.AppID) == "" {
		return invalid("app_id", "is required")
	}
	if strings.TrimSpace(l.RecruiterID) == "" {
		return invalid("recruiter_id", "is required")
	}
	return nil
}

// AppLinked is implemented by records that are only valid while their
// application exists.
type AppLinked interface {
	ApplicationID() string
}
