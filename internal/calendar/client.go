// Package calendar exports tracker events to Google Calendar.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	calendarv3 "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/mesh-intelligence/cvtracker/internal/metrics"
	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

const backendName = "calendar"

// PrimaryCalendar is the signed-in user's default calendar.
const PrimaryCalendar = "primary"

// Reminder lead times.
const (
	PopupReminderMinutes = 60
	EmailReminderMinutes = 24 * 60
)

var errNoEventID = errors.New("calendar returned no event id")

// Client inserts events into one calendar.
type Client struct {
	svc        *calendarv3.Service
	calendarID string
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Options tunes a Client.
type Options struct {
	CalendarID string
	Timeout    time.Duration
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// New creates a Client. clientOpts carry credentials.
func New(ctx context.Context, opts Options, clientOpts ...option.ClientOption) (*Client, error) {
	svc, err := calendarv3.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}
	if opts.CalendarID == "" {
		opts.CalendarID = PrimaryCalendar
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		svc:        svc,
		calendarID: opts.CalendarID,
		timeout:    opts.Timeout,
		logger:     logger.With("component", "calendar"),
		metrics:    opts.Metrics,
	}, nil
}

// InsertEvent creates entry with a popup reminder an hour before and an
// email reminder a day before, and returns the external event id.
func (c *Client) InsertEvent(ctx context.Context, entry types.CalendarEntry) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ev := &calendarv3.Event{
		Summary:     entry.Title,
		Description: entry.Description,
		Location:    entry.Location,
		Start:       eventTime(entry.Start, entry.TimeZone),
		End:         eventTime(entry.End, entry.TimeZone),
		Reminders: &calendarv3.EventReminders{
			UseDefault: false,
			Overrides: []*calendarv3.EventReminder{
				{Method: "popup", Minutes: PopupReminderMinutes},
				{Method: "email", Minutes: EmailReminderMinutes},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}
	start := time.Now()
	created, err := c.svc.Events.Insert(c.calendarID, ev).Context(ctx).Do()
	c.metrics.ObserveStore(backendName, "insert", start, err)
	if err != nil {
		return "", fmt.Errorf("inserting calendar event %q: %w", entry.Title, err)
	}
	if created.Id == "" {
		return "", errNoEventID
	}
	c.logger.Info("exported event", "title", entry.Title, "id", created.Id)
	return created.Id, nil
}

func eventTime(t time.Time, zone string) *calendarv3.EventDateTime {
	return &calendarv3.EventDateTime{DateTime: t.Format(time.RFC3339), TimeZone: zone}
}
