package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

const testSpreadsheet = "sheet-123"

// fakeSpreadsheet serves the subset of the Sheets v4 API the client uses
// from in-memory grids.
type fakeSpreadsheet struct {
	mu     sync.Mutex
	grids  map[string][][]string
	ids    map[string]int64
	fail   map[string]int
	block  map[string]bool
	calls  map[string]int
	bodies map[string][]byte
}

func newFakeSpreadsheet() *fakeSpreadsheet {
	return &fakeSpreadsheet{
		grids:  map[string][][]string{},
		ids:    map[string]int64{},
		fail:   map[string]int{},
		block:  map[string]bool{},
		calls:  map[string]int{},
		bodies: map[string][]byte{},
	}
}

func (f *fakeSpreadsheet) addSheet(title string, id int64, rows ...[]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grids[title] = rows
	f.ids[title] = id
}

func (f *fakeSpreadsheet) grid(title string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.grids[title]
}

func (f *fakeSpreadsheet) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// handle dispatches on the decoded request path.
func (f *fakeSpreadsheet) handle(req *http.Request) (*http.Response, error) {
	path := strings.TrimPrefix(req.URL.Path, "/v4/spreadsheets/"+testSpreadsheet)
	op, rng := classify(req.Method, path)

	f.mu.Lock()
	f.calls[op]++
	status, failing := f.fail[op]
	blocking := f.block[op]
	f.mu.Unlock()

	if blocking {
		<-req.Context().Done()
		return nil, req.Context().Err()
	}
	if failing {
		return httpmock.NewJsonResponse(status, map[string]any{
			"error": map[string]any{"code": status, "message": "injected failure"},
		})
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch op {
	case "metadata":
		var sheets []map[string]any
		for title, id := range f.ids {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"sheetId": id, "title": title}})
		}
		return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"sheets": sheets})

	case "get", "header":
		sheet, first, last := parseRange(rng)
		grid := f.grids[sheet]
		var values [][]string
		for i, row := range grid {
			n := i + 1
			if (first == 0 || n >= first) && (last == 0 || n <= last) {
				values = append(values, row)
			}
		}
		return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"range": rng, "values": values})

	case "append", "update":
		var body struct {
			Values [][]string `json:"values"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
		}
		sheet, first, _ := parseRange(rng)
		if op == "append" {
			f.grids[sheet] = append(f.grids[sheet], body.Values[0])
		} else {
			for len(f.grids[sheet]) < first {
				f.grids[sheet] = append(f.grids[sheet], nil)
			}
			f.grids[sheet][first-1] = body.Values[0]
		}
		return httpmock.NewJsonResponse(http.StatusOK, map[string]any{})

	case "batchUpdate":
		var body struct {
			Requests []struct {
				DeleteDimension struct {
					Range struct {
						SheetID    int64 `json:"sheetId"`
						StartIndex int   `json:"startIndex"`
						EndIndex   int   `json:"endIndex"`
					} `json:"range"`
				} `json:"deleteDimension"`
			} `json:"requests"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
		}
		r := body.Requests[0].DeleteDimension.Range
		for title, id := range f.ids {
			if id != r.SheetID {
				continue
			}
			grid := f.grids[title]
			f.grids[title] = append(grid[:r.StartIndex:r.StartIndex], grid[r.EndIndex:]...)
		}
		return httpmock.NewJsonResponse(http.StatusOK, map[string]any{})
	}
	return httpmock.NewStringResponse(http.StatusNotFound, "unknown route "+req.URL.Path), nil
}

func classify(method, path string) (op, rng string) {
	switch {
	case path == "" && method == http.MethodGet:
		return "metadata", ""
	case path == ":batchUpdate":
		return "batchUpdate", ""
	case strings.HasSuffix(path, ":append"):
		return "append", strings.TrimSuffix(strings.TrimPrefix(path, "/values/"), ":append")
	case method == http.MethodPut:
		return "update", strings.TrimPrefix(path, "/values/")
	default:
		rng = strings.TrimPrefix(path, "/values/")
		if strings.HasSuffix(rng, "!1:1") {
			return "header", rng
		}
		return "get", rng
	}
}

// parseRange understands "S!A:ZZ", "S!1:1", "S!A5:ZZ5" and "S!A1".
func parseRange(rng string) (sheet string, first, last int) {
	sheet, cells, _ := strings.Cut(rng, "!")
	from, to, _ := strings.Cut(cells, ":")
	first = rowNumber(from)
	last = rowNumber(to)
	if to == "" {
		last = first
	}
	return sheet, first, last
}

func rowNumber(cell string) int {
	n, _ := strconv.Atoi(strings.TrimLeft(cell, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	return n
}

// newTestClient wires a Client to a fakeSpreadsheet through httpmock.
func newTestClient(t *testing.T, opts Options) (*Client, *fakeSpreadsheet) {
	t.Helper()
	fake := newFakeSpreadsheet()
	mt := httpmock.NewMockTransport()
	mt.RegisterNoResponder(fake.handle)

	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 1000
		opts.Burst = 1000
	}
	c, err := New(context.Background(), opts,
		option.WithHTTPClient(&http.Client{Transport: mt}),
		option.WithEndpoint("https://sheets.test/"),
	)
	require.NoError(t, err)
	return c, fake
}
