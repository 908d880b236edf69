package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fieldwork/dispatch/internal/stats"
	"github.com/fieldwork/dispatch/internal/ui"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard statistics",
	Long: `Show the dashboard counters: today's workload, weekly completion,
technician availability, and attention items. With --week, add the
day-by-day breakdown of the current week.`,
	RunE: runStats,
}

var statsWeek bool

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().BoolVarP(&statsWeek, "week", "w", false, "include the weekly day-by-day breakdown")
}

func runStats(cmd *cobra.Command, args []string) error {
	sched, err := GetScheduler()
	if err != nil {
		return err
	}
	defer func() { _ = sched.Close() }()

	snap := sched.Stats()

	if isJSON() {
		out := map[string]interface{}{"stats": snap, "alerts": stats.Alerts(snap)}
		if statsWeek {
			week, err := sched.Week()
			if err != nil {
				return err
			}
			out["week"] = week
		}
		return printJSON(out)
	}

	fmt.Println(ui.StyleHeader.Render("Dispatch Statistics"))
	fmt.Printf("  Today:        %d scheduled, %d completed\n", snap.TodayTasks, snap.TodayCompletedTasks)
	fmt.Printf("  In progress:  %d\n", snap.ActiveInterventions)
	fmt.Printf("  Pending:      %d (%d unassigned)\n", snap.PendingTasks, snap.UnassignedTasks)
	fmt.Printf("  Completed:    %d of %d total\n", snap.CompletedTasks, snap.TotalTasks)
	fmt.Printf("  High prio:    %d", snap.HighPriorityTasks)
	if snap.UrgentTasks > 0 {
		fmt.Printf("  (plus %d urgent on the legacy scale)", snap.UrgentTasks)
	}
	fmt.Println()
	fmt.Printf("  This week:    %d of %d done (%s%%)\n",
		snap.CompletedWeeklyInterventions, snap.TotalWeeklyInterventions, snap.WeeklyCompletionPercentage)
	fmt.Printf("  Technicians:  %d active, %d available, %d on roster\n",
		snap.ActiveTechnicians, snap.AvailableTechnicians, snap.TotalMembers)

	alerts := stats.Alerts(snap)
	if len(alerts) > 0 {
		fmt.Println()
		for _, a := range alerts {
			switch a.Kind {
			case "urgent":
				fmt.Println("  " + ui.StyleError.Render("! "+a.Message))
			case "warning":
				fmt.Println("  " + ui.StyleWarning.Render("! "+a.Message))
			default:
				fmt.Println("  " + ui.StyleSubtle.Render("· "+a.Message))
			}
		}
	}

	if statsWeek {
		week, err := sched.Week()
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(ui.StyleTitle.Render("  This week"))
		for _, day := range week {
			marker := " "
			if day.IsToday {
				marker = ">"
			}
			bar := strings.Repeat("█", day.Completed) + strings.Repeat("░", day.Total-day.Completed)
			fmt.Printf("  %s %s %s  %2d total  %s\n", marker, day.Name, day.Date, day.Total, bar)
		}
	}
	return nil
}
