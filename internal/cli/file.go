package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cvtracker/internal/datastore"
	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

const defaultMimeType = "application/octet-stream"

func newFileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Manage stored documents",
	}
	cmd.AddCommand(newFileUploadCmd(a), newFileRmCmd(a))
	return cmd
}

func newFileUploadCmd(a *app) *cobra.Command {
	var (
		fileType, description, version string
		appRef, name                   string
	)
	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a document to Google Drive and record it",
		Long: `Upload a document into the active profile's Drive folder for its type
(cv, cover-letters, recommendations or other) and add it to the Files sheet.
With --app the file is also attached to an application.`,
		Example: `  cvtracker file upload ./cv-2025.pdf --type cv --version v3 --app 0195a3c4`,
		Args:    userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]
			fh, err := os.Open(path)
			if err != nil {
				return userError(err)
			}
			defer fh.Close()

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			var x types.Application
			if appRef != "" {
				if x, err = findApplication(s.Snapshot(), appRef); err != nil {
					return err
				}
			}
			if name == "" {
				name = filepath.Base(path)
			}
			mimeType := mime.TypeByExtension(filepath.Ext(path))
			if mimeType == "" {
				mimeType = defaultMimeType
			}
			f, err := s.UploadFile(ctx, datastore.Upload{
				Name:         name,
				MimeType:     mimeType,
				Content:      fh,
				FileType:     types.FileType(fileType),
				Description:  description,
				VersionLabel: version,
			})
			if err != nil {
				return err
			}
			if x.AppID != "" {
				if _, err := s.CreateAppFile(ctx, types.AppFile{AppID: x.AppID, FileID: f.FileID}); err != nil {
					return err
				}
			}
			return a.emit(f, func() {
				fmt.Fprintf(a.out, "Uploaded %s (%s)\n%s\n", f.FileName, shortID(f.FileID), f.DriveURL)
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&fileType, "type", "", "file type: cv, cover_letter, recommendation, reference_letter, other (default cv)")
	fl.StringVar(&name, "name", "", "file name to store (default: base name of path)")
	fl.StringVar(&description, "description", "", "description")
	fl.StringVar(&version, "version", "", "version label")
	fl.StringVar(&appRef, "app", "", "attach to this application")
	return cmd
}

func newFileRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <file>",
		Short: "Delete a file record and its stored copy",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			f, err := findFile(s.Snapshot(), args[0])
			if err != nil {
				return err
			}
			if err := s.DeleteFileWithBlob(cmd.Context(), f.Position); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted %s\n", f.FileName)
			return nil
		},
	}
}
