// Package maps geocodes company addresses and measures the driving commute
// from a profile's home address through the Google Maps web services.
package maps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/antonholmquist/jason"
	"golang.org/x/time/rate"

	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

// DefaultBaseURL is the Maps web service root.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api"

const statusOK = "OK"

var (
	// ErrNoAPIKey is returned by New when the key is empty.
	ErrNoAPIKey = errors.New("maps API key is not configured")
	// ErrNoResult means the service answered OK without usable data.
	ErrNoResult = errors.New("maps returned no result")
)

// Client calls the geocoding and distance matrix services.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option { return func(m *Client) { m.http = c } }

// WithBaseURL points the client at another service root.
func WithBaseURL(u string) Option { return func(m *Client) { m.baseURL = u } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(m *Client) { m.logger = l } }

// New returns a Client for apiKey.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "maps")
	return c, nil
}

// get calls service with params and returns the decoded body once its
// status is OK.
func (c *Client) get(ctx context.Context, service string, params url.Values) (*jason.Object, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	params.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+service+"/json?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", service, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s request: status %d", service, resp.StatusCode)
	}
	obj, err := jason.NewObjectFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", service, err)
	}
	status, _ := obj.GetString("status")
	if status != statusOK {
		if msg, err := obj.GetString("error_message"); err == nil && msg != "" {
			return nil, fmt.Errorf("%s: %s", service, msg)
		}
		return nil, fmt.Errorf("%s returned status %s", service, status)
	}
	return obj, nil
}

// Geocode returns the coordinates of the first match for address.
func (c *Client) Geocode(ctx context.Context, address string) (types.GeoPoint, error) {
	obj, err := c.get(ctx, "geocode", url.Values{"address": {address}})
	if err != nil {
		return types.GeoPoint{}, err
	}
	results, err := obj.GetObjectArray("results")
	if err != nil || len(results) == 0 {
		return types.GeoPoint{}, fmt.Errorf("geocoding %q: %w", address, ErrNoResult)
	}
	lat, errLat := results[0].GetFloat64("geometry", "location", "lat")
	lng, errLng := results[0].GetFloat64("geometry", "location", "lng")
	if errLat != nil || errLng != nil {
		return types.GeoPoint{}, fmt.Errorf("geocoding %q: %w", address, ErrNoResult)
	}
	c.logger.Debug("geocoded", "address", address, "lat", lat, "lng", lng)
	return types.GeoPoint{Lat: lat, Lng: lng}, nil
}

// Distance returns the driving distance in kilometres (one decimal) and
// time in whole minutes from origin to destination.
func (c *Client) Distance(ctx context.Context, origin, destination string) (types.Commute, error) {
	obj, err := c.get(ctx, "distancematrix", url.Values{
		"origins":      {origin},
		"destinations": {destination},
		"mode":         {"driving"},
	})
	if err != nil {
		return types.Commute{}, err
	}
	rows, err := obj.GetObjectArray("rows")
	if err != nil || len(rows) == 0 {
		return types.Commute{}, ErrNoResult
	}
	elements, err := rows[0].GetObjectArray("elements")
	if err != nil || len(elements) == 0 {
		return types.Commute{}, ErrNoResult
	}
	el := elements[0]
	if status, _ := el.GetString("status"); status != statusOK {
		return types.Commute{}, fmt.Errorf("distance %q -> %q: %w", origin, destination, ErrNoResult)
	}
	meters, _ := el.GetFloat64("distance", "value")
	seconds, _ := el.GetFloat64("duration", "value")
	return types.Commute{
		DistanceKm:    math.Round(meters/100) / 10,
		TravelTimeMin: math.Round(seconds / 60),
	}, nil
}
