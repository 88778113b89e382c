package maps

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "https://maps.test/api"

func newTestClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()
	mock := httpmock.NewMockTransport()
	c, err := New("key-1", WithHTTPClient(&http.Client{Transport: mock}), WithBaseURL(base))
	require.NoError(t, err)
	return c, mock
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestGeocode(t *testing.T) {
	c, mock := newTestClient(t)
	mock.RegisterResponder(http.MethodGet, base+"/geocode/json", func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "Prosta 1, Warszawa", req.URL.Query().Get("address"))
		assert.Equal(t, "key-1", req.URL.Query().Get("key"))
		return httpmock.NewStringResponse(http.StatusOK, `{
			"status": "OK",
			"results": [{"geometry": {"location": {"lat": 52.2297, "lng": 21.0122}}}]
		}`), nil
	})

	pt, err := c.Geocode(context.Background(), "Prosta 1, Warszawa")
	require.NoError(t, err)
	assert.Equal(t, 52.2297, pt.Lat)
	assert.Equal(t, 21.0122, pt.Lng)
}

func TestGeocodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "denied", status: http.StatusOK, body: `{"status":"REQUEST_DENIED","error_message":"bad key"}`, want: "bad key"},
		{name: "zero results", status: http.StatusOK, body: `{"status":"ZERO_RESULTS"}`, want: "ZERO_RESULTS"},
		{name: "no location", status: http.StatusOK, body: `{"status":"OK","results":[{}]}`, want: ErrNoResult.Error()},
		{name: "http failure", status: http.StatusBadGateway, body: ``, want: "status 502"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mock := newTestClient(t)
			mock.RegisterResponder(http.MethodGet, base+"/geocode/json", httpmock.NewStringResponder(tt.status, tt.body))
			_, err := c.Geocode(context.Background(), "x")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestDistance(t *testing.T) {
	c, mock := newTestClient(t)
	mock.RegisterResponder(http.MethodGet, base+"/distancematrix/json", func(req *http.Request) (*http.Response, error) {
		q := req.URL.Query()
		assert.Equal(t, "Home 1", q.Get("origins"))
		assert.Equal(t, "Office 2", q.Get("destinations"))
		assert.Equal(t, "driving", q.Get("mode"))
		return httpmock.NewStringResponse(http.StatusOK, `{
			"status": "OK",
			"rows": [{"elements": [{"status": "OK", "distance": {"value": 12449}, "duration": {"value": 1529}}]}]
		}`), nil
	})

	got, err := c.Distance(context.Background(), "Home 1", "Office 2")
	require.NoError(t, err)
	assert.Equal(t, 12.4, got.DistanceKm)
	assert.Equal(t, 25.0, got.TravelTimeMin)
}

func TestDistanceElementNotFound(t *testing.T) {
	c, mock := newTestClient(t)
	mock.RegisterResponder(http.MethodGet, base+"/distancematrix/json", httpmock.NewStringResponder(http.StatusOK,
		`{"status":"OK","rows":[{"elements":[{"status":"NOT_FOUND"}]}]}`))

	_, err := c.Distance(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrNoResult)
}
