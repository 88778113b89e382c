package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cvtracker/internal/datastore"
	"github.com/mesh-intelligence/cvtracker/internal/stats"
	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

type statsView struct {
	Dashboard stats.Dashboard       `json:"dashboard"`
	Statuses  []stats.StatusCount   `json:"statuses"`
	CVs       []stats.CVUsage       `json:"cv_effectiveness"`
	Upcoming  []types.CalendarEvent `json:"upcoming_events"`
}

func newStatsCmd(a *app) *cobra.Command {
	var upcoming int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show response rates, CV effectiveness and upcoming events",
		Args:  userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			loc, err := time.LoadLocation(datastore.CalendarZone)
			if err != nil {
				return err
			}
			snap := s.Snapshot()
			view := statsView{
				Dashboard: stats.DashboardMetrics(snap.Applications),
				Statuses:  stats.StatusDistribution(snap.Applications),
				CVs:       stats.CVEffectiveness(snap.Files, snap.Applications, snap.AppFiles),
				Upcoming:  stats.UpcomingEvents(snap.CalendarEvents, time.Now(), loc, upcoming),
			}
			return a.emit(view, func() { a.printStats(view) })
		},
	}
	cmd.Flags().IntVar(&upcoming, "upcoming", 5, "number of upcoming events to show")
	return cmd
}

func (a *app) printStats(v statsView) {
	d := v.Dashboard
	fmt.Fprintf(a.out, "Applications:   %d\n", d.TotalApplications)
	fmt.Fprintf(a.out, "Interviews:     %d\n", d.TotalInterviews)
	fmt.Fprintf(a.out, "Offers:         %d\n", d.TotalOffers)
	fmt.Fprintf(a.out, "Rejected:       %d\n", d.TotalRejected)
	fmt.Fprintf(a.out, "Response rate:  %.1f%%\n", d.ResponseRate)
	fmt.Fprintf(a.out, "Avg response:   %.1f days\n\n", d.AvgResponseDays)

	var rows [][]string
	for _, s := range v.Statuses {
		rows = append(rows, []string{string(s.Status), fmt.Sprint(s.Count)})
	}
	a.table("", []string{"STATUS", "COUNT"}, rows)
	fmt.Fprintln(a.out)

	rows = nil
	for _, c := range v.CVs {
		rows = append(rows, []string{truncate(c.FileName, 32), fmt.Sprint(c.UsageCount), fmt.Sprint(c.InterviewCount),
			fmt.Sprintf("%.1f%%", c.SuccessRate)})
	}
	a.table("No CVs uploaded.", []string{"CV", "USED", "INTERVIEWS", "SUCCESS"}, rows)
	fmt.Fprintln(a.out)

	rows = nil
	for _, e := range v.Upcoming {
		rows = append(rows, []string{e.EventDate, e.EventTime, string(e.EventType), truncate(e.Title, 40)})
	}
	a.table("No upcoming events.", []string{"DATE", "TIME", "TYPE", "TITLE"}, rows)
}
