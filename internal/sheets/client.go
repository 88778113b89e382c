// Package sheets implements types.RowStore on top of the Google Sheets v4
// API.
//
// Row 1 of every sheet is the header. Header order and the numeric sheet
// ids needed for row deletion are fetched once and cached. Every request
// runs under a per-call timeout and a shared rate limiter; failures are not
// retried.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mesh-intelligence/cvtracker/internal/metrics"
	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

const backendName = "sheets"

// Value input and insert modes for writes.
const (
	valueInputUserEntered = "USER_ENTERED"
	insertDataInsertRows  = "INSERT_ROWS"
	lastColumn            = "ZZ"
)

// Options tunes a Client. Zero values take the defaults from DefaultOptions.
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	// CacheTTL bounds how long header and sheet id lookups are reused.
	// Zero keeps them for the life of the client.
	CacheTTL time.Duration
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// DefaultOptions returns the settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		Timeout:           30 * time.Second,
		RequestsPerSecond: 1,
		Burst:             5,
	}
}

// Client talks to one Google account's spreadsheets.
type Client struct {
	svc      *sheetsapi.Service
	headers  *cache.Cache
	sheetIDs *cache.Cache
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

var (
	_ types.RowStore     = (*Client)(nil)
	_ types.HeaderWriter = (*Client)(nil)
)

// New creates a Client. clientOpts carry credentials, typically
// option.WithTokenSource, or option.WithHTTPClient in tests.
func New(ctx context.Context, opts Options, clientOpts ...option.ClientOption) (*Client, error) {
	svc, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = def.RequestsPerSecond
	}
	if opts.Burst <= 0 {
		opts.Burst = def.Burst
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		svc:      svc,
		headers:  cache.New(ttl, 10*time.Minute),
		sheetIDs: cache.New(ttl, 10*time.Minute),
		limiter:  rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		timeout:  opts.Timeout,
		logger:   logger.With("component", "sheets"),
		metrics:  opts.Metrics,
	}, nil
}

// ListRows reads the whole sheet and keys each data row by the header.
func (c *Client) ListRows(ctx context.Context, ref types.SheetRef) ([]types.Row, error) {
	var resp *sheetsapi.ValueRange
	err := c.call(ctx, "list", ref, func(ctx context.Context) error {
		var err error
		resp, err = c.svc.Spreadsheets.Values.Get(ref.Spreadsheet, fullRange(ref.Sheet)).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}

	header := cellsToStrings(resp.Values[0])
	c.headers.Set(ref.String(), header, cache.DefaultExpiration)

	rows := make([]types.Row, 0, len(resp.Values)-1)
	for i, raw := range resp.Values[1:] {
		cells := cellsToStrings(raw)
		values := make(map[string]string, len(header))
		for j, col := range header {
			if col == "" {
				continue
			}
			if j < len(cells) {
				values[col] = cells[j]
			} else {
				values[col] = ""
			}
		}
		rows = append(rows, types.Row{Position: i + types.FirstDataPosition, Values: values})
	}
	return rows, nil
}

// AppendRow appends values in header order after the last row.
func (c *Client) AppendRow(ctx context.Context, ref types.SheetRef, values map[string]string) error {
	header, err := c.header(ctx, ref)
	if err != nil {
		return err
	}
	vr := &sheetsapi.ValueRange{Values: [][]any{project(header, values)}}
	return c.call(ctx, "append", ref, func(ctx context.Context) error {
		_, err := c.svc.Spreadsheets.Values.Append(ref.Spreadsheet, ref.Sheet+"!A1", vr).
			ValueInputOption(valueInputUserEntered).
			InsertDataOption(insertDataInsertRows).
			Context(ctx).Do()
		return err
	})
}

// UpdateRow overwrites the row at position.
func (c *Client) UpdateRow(ctx context.Context, ref types.SheetRef, position int, values map[string]string) error {
	if position < types.FirstDataPosition {
		return fmt.Errorf("updating %s row %d: %w", ref.Sheet, position, types.ErrInvalidPosition)
	}
	header, err := c.header(ctx, ref)
	if err != nil {
		return err
	}
	vr := &sheetsapi.ValueRange{Values: [][]any{project(header, values)}}
	return c.call(ctx, "update", ref, func(ctx context.Context) error {
		_, err := c.svc.Spreadsheets.Values.Update(ref.Spreadsheet, rowRange(ref.Sheet, position), vr).
			ValueInputOption(valueInputUserEntered).
			Context(ctx).Do()
		return err
	})
}

// DeleteRow removes the row at position, shifting later rows up.
func (c *Client) DeleteRow(ctx context.Context, ref types.SheetRef, position int) error {
	if position < types.FirstDataPosition {
		return fmt.Errorf("deleting %s row %d: %w", ref.Sheet, position, types.ErrInvalidPosition)
	}
	sheetID, err := c.sheetID(ctx, ref)
	if err != nil {
		return err
	}
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			DeleteDimension: &sheetsapi.DeleteDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "ROWS",
					StartIndex:      int64(position - 1),
					EndIndex:        int64(position),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	return c.call(ctx, "delete", ref, func(ctx context.Context) error {
		_, err := c.svc.Spreadsheets.BatchUpdate(ref.Spreadsheet, req).Context(ctx).Do()
		return err
	})
}

// EnsureHeaders writes columns into row 1 when the sheet has no header yet.
// An existing header is left untouched.
func (c *Client) EnsureHeaders(ctx context.Context, ref types.SheetRef, columns []string) error {
	header, err := c.header(ctx, ref)
	if err == nil && len(header) > 0 {
		return nil
	}
	if err != nil && !errors.Is(err, types.ErrNoHeader) {
		return err
	}
	cells := make([]any, len(columns))
	for i, col := range columns {
		cells[i] = col
	}
	vr := &sheetsapi.ValueRange{Values: [][]any{cells}}
	err = c.call(ctx, "headers", ref, func(ctx context.Context) error {
		_, err := c.svc.Spreadsheets.Values.Update(ref.Spreadsheet, rowRange(ref.Sheet, 1), vr).
			ValueInputOption(valueInputUserEntered).
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return err
	}
	c.headers.Set(ref.String(), columns, cache.DefaultExpiration)
	c.logger.Info("wrote header row", "sheet", ref.Sheet, "columns", len(columns))
	return nil
}

// InvalidateCaches drops every cached header and sheet id.
func (c *Client) InvalidateCaches() {
	c.headers.Flush()
	c.sheetIDs.Flush()
}

// header returns the cached column order of ref, fetching row 1 on a miss.
func (c *Client) header(ctx context.Context, ref types.SheetRef) ([]string, error) {
	key := ref.String()
	if v, ok := c.headers.Get(key); ok {
		c.metrics.CacheLookup("headers", true)
		return v.([]string), nil
	}
	c.metrics.CacheLookup("headers", false)

	var resp *sheetsapi.ValueRange
	err := c.call(ctx, "headers", ref, func(ctx context.Context) error {
		var err error
		resp, err = c.svc.Spreadsheets.Values.Get(ref.Spreadsheet, ref.Sheet+"!1:1").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return nil, fmt.Errorf("reading %s header: %w", ref.Sheet, types.ErrNoHeader)
	}
	header := cellsToStrings(resp.Values[0])
	c.headers.Set(key, header, cache.DefaultExpiration)
	return header, nil
}

// sheetID resolves the numeric id of ref's sheet. One metadata call caches
// the ids of every sheet in the spreadsheet.
func (c *Client) sheetID(ctx context.Context, ref types.SheetRef) (int64, error) {
	key := ref.String()
	if v, ok := c.sheetIDs.Get(key); ok {
		c.metrics.CacheLookup("sheet_ids", true)
		return v.(int64), nil
	}
	c.metrics.CacheLookup("sheet_ids", false)

	var resp *sheetsapi.Spreadsheet
	err := c.call(ctx, "metadata", ref, func(ctx context.Context) error {
		var err error
		resp, err = c.svc.Spreadsheets.Get(ref.Spreadsheet).
			Fields("sheets.properties(sheetId,title)").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, err
	}

	found := false
	var id int64
	for _, s := range resp.Sheets {
		if s.Properties == nil {
			continue
		}
		k := types.SheetRef{Spreadsheet: ref.Spreadsheet, Sheet: s.Properties.Title}.String()
		c.sheetIDs.Set(k, s.Properties.SheetId, cache.DefaultExpiration)
		if s.Properties.Title == ref.Sheet {
			id, found = s.Properties.SheetId, true
		}
	}
	if !found {
		return 0, fmt.Errorf("resolving %s: %w", ref.Sheet, types.ErrSheetNotFound)
	}
	return id, nil
}

// call waits for the limiter, runs fn under the request timeout and maps
// API failures to *types.StoreError.
func (c *Client) call(ctx context.Context, op string, ref types.SheetRef, fn func(context.Context) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &types.StoreError{Op: op, Sheet: ref.Sheet, Err: err}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	c.metrics.ObserveStore(backendName, op, start, err)
	if err == nil {
		return nil
	}

	storeErr := &types.StoreError{Op: op, Sheet: ref.Sheet, Err: err}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		storeErr.Status = apiErr.Code
		storeErr.Body = apiErr.Body
		if storeErr.Body == "" {
			storeErr.Body = apiErr.Message
		}
	}
	c.logger.Warn("sheets request failed", "op", op, "sheet", ref.Sheet, "status", storeErr.Status, "error", err)
	return storeErr
}

func fullRange(sheet string) string {
	return sheet + "!A:" + lastColumn
}

func rowRange(sheet string, position int) string {
	n := strconv.Itoa(position)
	return sheet + "!A" + n + ":" + lastColumn + n
}

// project lays values out in header order. Missing keys become "".
func project(header []string, values map[string]string) []any {
	out := make([]any, len(header))
	for i, col := range header {
		out[i] = values[col]
	}
	return out
}

func cellsToStrings(cells []any) []string {
	out := make([]string, len(cells))
	for i, v := range cells {
		switch v := v.(type) {
		case string:
			out[i] = v
		case float64:
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out[i] = strconv.FormatBool(v)
		case nil:
			out[i] = ""
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
