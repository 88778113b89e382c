// Package drive stores tracker documents in Google Drive under a fixed
// root/<profile>/<category> folder tree.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/mesh-intelligence/cvtracker/internal/metrics"
	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

const backendName = "drive"

// FolderMimeType marks Drive folders.
const FolderMimeType = "application/vnd.google-apps.folder"

// Category folder names.
const (
	FolderCV              = "cv"
	FolderCoverLetters    = "cover-letters"
	FolderRecommendations = "recommendations"
	FolderOther           = "other"
)

// Categories lists the folders every profile folder must contain.
var Categories = []string{FolderCV, FolderCoverLetters, FolderRecommendations, FolderOther}

// CategoryFor returns the category folder files of type t are stored in.
func CategoryFor(t types.FileType) string {
	switch t {
	case types.FileTypeCV:
		return FolderCV
	case types.FileTypeCoverLetter:
		return FolderCoverLetters
	case types.FileTypeRecommendation, types.FileTypeReferenceLetter:
		return FolderRecommendations
	}
	return FolderOther
}

// Item is one Drive file or folder.
type Item struct {
	ID          string
	Name        string
	MimeType    string
	WebViewLink string
}

// IsFolder reports whether the item is a folder.
func (i Item) IsFolder() bool { return i.MimeType == FolderMimeType }

// Options tunes a Client.
type Options struct {
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Client wraps the Drive v3 files API.
type Client struct {
	svc     *drivev3.Service
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a Client. clientOpts carry credentials.
func New(ctx context.Context, opts Options, clientOpts ...option.ClientOption) (*Client, error) {
	svc, err := drivev3.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{svc: svc, timeout: opts.Timeout, logger: logger.With("component", "drive"), metrics: opts.Metrics}, nil
}

func (c *Client) call(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	start := time.Now()
	err := fn(ctx)
	c.metrics.ObserveStore(backendName, op, start, err)
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			c.logger.Warn("drive request failed", "op", op, "status", apiErr.Code, "error", apiErr.Message)
		}
		return fmt.Errorf("drive %s: %w", op, err)
	}
	return nil
}

// quote escapes v for a Drive query string literal.
func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return "'" + strings.ReplaceAll(v, "'", `\'`) + "'"
}

func (c *Client) list(ctx context.Context, q string) ([]Item, error) {
	var out []Item
	err := c.call(ctx, "list", func(ctx context.Context) error {
		return c.svc.Files.List().
			Q(q).
			Fields("nextPageToken", "files(id,name,mimeType,webViewLink)").
			PageSize(1000).
			Pages(ctx, func(page *drivev3.FileList) error {
				for _, f := range page.Files {
					out = append(out, Item{ID: f.Id, Name: f.Name, MimeType: f.MimeType, WebViewLink: f.WebViewLink})
				}
				return nil
			})
	})
	return out, err
}

// ListChildren returns the non-trashed children of parentID.
func (c *Client) ListChildren(ctx context.Context, parentID string) ([]Item, error) {
	return c.list(ctx, quote(parentID)+" in parents and trashed = false")
}

func (c *Client) findFolder(ctx context.Context, parentID, name string) (Item, bool, error) {
	items, err := c.list(ctx, fmt.Sprintf("%s in parents and trashed = false and mimeType = %s and name = %s",
		quote(parentID), quote(FolderMimeType), quote(name)))
	if err != nil || len(items) == 0 {
		return Item{}, false, err
	}
	return items[0], true, nil
}

// ResolveUploadFolder returns the folder id of root/<profile>/<category
// of fileType>. Missing folders are reported, not created.
func (c *Client) ResolveUploadFolder(ctx context.Context, rootID string, profile types.ProfileID, fileType types.FileType) (string, error) {
	pf, ok, err := c.findFolder(ctx, rootID, string(profile))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("profile folder %s is missing", profile)
	}
	category := CategoryFor(fileType)
	cf, ok, err := c.findFolder(ctx, pf.ID, category)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("file type folder %s/%s is missing", profile, category)
	}
	return cf.ID, nil
}

// Upload stores content as name inside folderID.
func (c *Client) Upload(ctx context.Context, name, mimeType string, content io.Reader, folderID string) (types.Blob, error) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	var created *drivev3.File
	err := c.call(ctx, "upload", func(ctx context.Context) error {
		var err error
		created, err = c.svc.Files.Create(&drivev3.File{Name: name, Parents: []string{folderID}}).
			Media(content, googleapi.ContentType(mimeType)).
			Fields("id", "webViewLink").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return types.Blob{}, err
	}
	if created.Id == "" {
		return types.Blob{}, fmt.Errorf("drive upload of %s returned no id", name)
	}
	url := created.WebViewLink
	if url == "" {
		url = types.BlobViewURL(created.Id)
	}
	c.logger.Info("uploaded file", "name", name, "id", created.Id)
	return types.Blob{ID: created.Id, URL: url}, nil
}

// Delete removes blobID.
func (c *Client) Delete(ctx context.Context, blobID string) error {
	return c.call(ctx, "delete", func(ctx context.Context) error {
		return c.svc.Files.Delete(blobID).Context(ctx).Do()
	})
}

// ValidateStructure lists the profile and category folders missing under
// rootID. Missing profile folders come first, then every missing
// <profile>/<category>.
func (c *Client) ValidateStructure(ctx context.Context, rootID string) (types.DriveValidation, error) {
	children, err := c.ListChildren(ctx, rootID)
	if err != nil {
		return types.DriveValidation{}, err
	}
	folders := make(map[string]string)
	for _, it := range children {
		if it.IsFolder() {
			folders[it.Name] = it.ID
		}
	}

	v := types.DriveValidation{RootExists: true, Missing: []string{}}
	for _, p := range types.Profiles {
		if _, ok := folders[string(p)]; !ok {
			v.Missing = append(v.Missing, string(p))
		}
	}
	for _, p := range types.Profiles {
		id, ok := folders[string(p)]
		if !ok {
			for _, cat := range Categories {
				v.Missing = append(v.Missing, string(p)+"/"+cat)
			}
			continue
		}
		sub, err := c.ListChildren(ctx, id)
		if err != nil {
			return types.DriveValidation{}, err
		}
		have := make(map[string]bool)
		for _, it := range sub {
			if it.IsFolder() {
				have[it.Name] = true
			}
		}
		for _, cat := range Categories {
			if !have[cat] {
				v.Missing = append(v.Missing, string(p)+"/"+cat)
			}
		}
	}
	return v, nil
}
