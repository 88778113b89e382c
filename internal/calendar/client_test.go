package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

var eventsURL = regexp.MustCompile(`/calendars/primary/events`)

func newTestClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()
	mock := httpmock.NewMockTransport()
	c, err := New(context.Background(), Options{},
		option.WithHTTPClient(&http.Client{Transport: mock}),
		option.WithEndpoint("https://calendar.test/calendar/v3/"),
	)
	require.NoError(t, err)
	return c, mock
}

func TestInsertEvent(t *testing.T) {
	c, mock := newTestClient(t)
	var sent map[string]any
	mock.RegisterRegexpResponder(http.MethodPost, eventsURL, func(req *http.Request) (*http.Response, error) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&sent))
		return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"id": "evt-1"})
	})

	loc, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, loc)
	id, err := c.InsertEvent(context.Background(), types.CalendarEntry{
		Title:    "Tech call - Acme - Engineer",
		Location: "Prosta 1",
		Start:    start,
		End:      start.Add(time.Hour),
		TimeZone: "Europe/Warsaw",
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", id)

	assert.Equal(t, "Tech call - Acme - Engineer", sent["summary"])
	assert.Equal(t, "Prosta 1", sent["location"])
	startJSON := sent["start"].(map[string]any)
	assert.Equal(t, "2025-06-02T10:00:00+02:00", startJSON["dateTime"])
	assert.Equal(t, "Europe/Warsaw", startJSON["timeZone"])

	reminders := sent["reminders"].(map[string]any)
	assert.Equal(t, false, reminders["useDefault"])
	overrides := reminders["overrides"].([]any)
	require.Len(t, overrides, 2)
	assert.Equal(t, "popup", overrides[0].(map[string]any)["method"])
	assert.EqualValues(t, 60, overrides[0].(map[string]any)["minutes"])
	assert.EqualValues(t, 1440, overrides[1].(map[string]any)["minutes"])
}

func TestInsertEventFailure(t *testing.T) {
	c, mock := newTestClient(t)
	mock.RegisterRegexpResponder(http.MethodPost, eventsURL,
		httpmock.NewStringResponder(http.StatusForbidden, `{"error":{"code":403,"message":"insufficient scope"}}`))

	_, err := c.InsertEvent(context.Background(), types.CalendarEntry{Title: "x", Start: time.Now(), End: time.Now()})
	assert.ErrorContains(t, err, "insufficient scope")
}

func TestInsertEventWithoutID(t *testing.T) {
	c, mock := newTestClient(t)
	mock.RegisterRegexpResponder(http.MethodPost, eventsURL, httpmock.NewStringResponder(http.StatusOK, `{}`))

	_, err := c.InsertEvent(context.Background(), types.CalendarEntry{Title: "x", Start: time.Now(), End: time.Now()})
	assert.ErrorIs(t, err, errNoEventID)
}
