// Package stats derives dashboard figures from loaded tracker data.
package stats

import (
	"math"
	"slices"
	"time"

	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

// Dashboard summarizes the application pipeline.
type Dashboard struct {
	TotalApplications int     `json:"total_applications"`
	TotalInterviews   int     `json:"total_interviews"`
	TotalOffers       int     `json:"total_offers"`
	TotalRejected     int     `json:"total_rejected"`
	ResponseRate      float64 `json:"response_rate"`
	AvgResponseDays   float64 `json:"avg_response_days"`
}

// CVUsage measures how often a CV led to an interview or offer.
type CVUsage struct {
	FileID         string  `json:"file_id"`
	FileName       string  `json:"file_name"`
	UsageCount     int     `json:"usage_count"`
	InterviewCount int     `json:"interview_count"`
	SuccessRate    float64 `json:"success_rate"`
}

// StatusCount is the number of applications in one status.
type StatusCount struct {
	Status types.ApplicationStatus `json:"status"`
	Count  int                     `json:"count"`
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round1(float64(part) / float64(whole) * 100)
}

// DashboardMetrics counts applications by outcome. The response rate is
// the share of applications with a response date; the average response
// time covers those that also have an applied date.
func DashboardMetrics(apps []types.Application) Dashboard {
	d := Dashboard{TotalApplications: len(apps)}
	var responded, measured int
	var days float64
	for _, a := range apps {
		switch a.Status {
		case types.StatusInterview:
			d.TotalInterviews++
		case types.StatusOffer:
			d.TotalOffers++
		case types.StatusRejected:
			d.TotalRejected++
		}
		if a.ResponseDate == "" {
			continue
		}
		responded++
		if n, ok := daysBetween(a.AppliedDate, a.ResponseDate); ok {
			days += float64(n)
			measured++
		}
	}
	d.ResponseRate = percent(responded, d.TotalApplications)
	if measured > 0 {
		d.AvgResponseDays = round1(days / float64(measured))
	}
	return d
}

// daysBetween returns the whole days from start to end, never negative.
func daysBetween(start, end string) (int, bool) {
	s, err1 := time.Parse(types.DateLayout, start)
	e, err2 := time.Parse(types.DateLayout, end)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return max(0, int(math.Round(e.Sub(s).Hours()/24))), true
}

// CVEffectiveness reports, for every CV file, how many applications used
// it and how many of those reached an interview or an offer.
func CVEffectiveness(files []types.File, apps []types.Application, links []types.AppFile) []CVUsage {
	status := make(map[string]types.ApplicationStatus, len(apps))
	for _, a := range apps {
		status[a.AppID] = a.Status
	}
	var out []CVUsage
	for _, f := range files {
		if f.FileType != types.FileTypeCV {
			continue
		}
		u := CVUsage{FileID: f.FileID, FileName: f.FileName}
		seen := make(map[string]bool)
		for _, l := range links {
			st, ok := status[l.AppID]
			if l.FileID != f.FileID || !ok || seen[l.AppID] {
				continue
			}
			seen[l.AppID] = true
			u.UsageCount++
			if st == types.StatusInterview || st == types.StatusOffer {
				u.InterviewCount++
			}
		}
		u.SuccessRate = percent(u.InterviewCount, u.UsageCount)
		out = append(out, u)
	}
	return out
}

// StatusDistribution counts applications per status in pipeline order.
func StatusDistribution(apps []types.Application) []StatusCount {
	out := make([]StatusCount, len(types.Statuses))
	for i, s := range types.Statuses {
		out[i].Status = s
	}
	for _, a := range apps {
		if i := slices.Index(types.Statuses, a.Status); i >= 0 {
			out[i].Count++
		}
	}
	return out
}

// UpcomingEvents returns up to limit events starting at or after now,
// soonest first. Events without a time start at midnight in loc.
func UpcomingEvents(events []types.CalendarEvent, now time.Time, loc *time.Location, limit int) []types.CalendarEvent {
	type timed struct {
		at time.Time
		ev types.CalendarEvent
	}
	var future []timed
	for _, e := range events {
		at, err := types.ParseLocal(e.EventDate, e.EventTime, "00:00", loc)
		if err != nil || at.Before(now) {
			continue
		}
		future = append(future, timed{at, e})
	}
	slices.SortStableFunc(future, func(a, b timed) int { return a.at.Compare(b.at) })
	if limit >= 0 && len(future) > limit {
		future = future[:limit]
	}
	out := make([]types.CalendarEvent, len(future))
	for i, t := range future {
		out[i] = t.ev
	}
	return out
}
