package types

import "strings"

// File is a document stored in the blob store and referenced from
// applications.
type File struct {
	Position     int       `json:"-"`
	FileID       string    `json:"file_id"`
	ProfileID    ProfileID `json:"profile_id"`
	FileName     string    `json:"file_name"`
	FileType     FileType  `json:"file_type"`
	DriveFileID  string    `json:"drive_file_id"`
	DriveURL     string    `json:"drive_url"`
	Description  string    `json:"description"`
	VersionLabel string    `json:"version_label"`
	CreatedAt    string    `json:"created_at"`
}

func (f File) RowPosition() int             { return f.Position }
func (f File) AtPosition(position int) File { f.Position = position; return f }
func (f File) Profile() ProfileID           { return f.ProfileID }

// Validate checks required fields.
func (f File) Validate() error {
	if strings.TrimSpace(f.FileName) == "" {
		return invalid("file_name", "is required")
	}
	if !f.FileType.Valid() {
		return invalid("file_type", "is not recognized")
	}
	if !f.ProfileID.Valid() {
		return invalid("profile_id", "is not recognized")
	}
	return nil
}
