package types

import (
	"fmt"
	"time"
)

// CalendarEntry is an event to create in the external calendar.
type CalendarEntry struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// Blob identifies an uploaded file in the blob store.
type Blob struct {
	ID  string
	URL string
}

// BlobViewURL is the browser URL of a blob when the store returns none.
func BlobViewURL(id string) string {
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", id)
}

// GeoPoint is a geocoded coordinate.
type GeoPoint struct {
	Lat float64
	Lng float64
}

// Commute is the driving distance and time between two addresses.
type Commute struct {
	DistanceKm    float64
	TravelTimeMin float64
}
