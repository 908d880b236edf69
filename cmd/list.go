package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldwork/dispatch/internal/schedule"
	"github.com/fieldwork/dispatch/models"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List interventions",
	Long: `List interventions, optionally filtered. Filters combine with AND.

Examples:
  dispatch list --date 2026-09-01
  dispatch list --from 2026-09-01 --to 2026-09-07 --tech tech-1
  dispatch list --status pending --high
  dispatch list --unassigned`,
	RunE: runList,
}

var (
	listDate       string
	listFrom       string
	listTo         string
	listStatus     string
	listTech       string
	listUnassigned bool
	listHigh       bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listDate, "date", "d", "", "exact date (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listFrom, "from", "", "range start (YYYY-MM-DD, inclusive)")
	listCmd.Flags().StringVar(&listTo, "to", "", "range end (YYYY-MM-DD, inclusive)")
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "status filter (pending, in_progress, completed)")
	listCmd.Flags().StringVar(&listTech, "tech", "", "technician id filter")
	listCmd.Flags().BoolVar(&listUnassigned, "unassigned", false, "only unassigned interventions")
	listCmd.Flags().BoolVar(&listHigh, "high", false, "only high priority interventions")
}

func buildListFilter() (func(models.Task) bool, error) {
	var from, to time.Time
	var err error
	if listFrom != "" {
		if from, err = time.Parse(models.DateLayout, listFrom); err != nil {
			return nil, fmt.Errorf("invalid --from date %q: %w", listFrom, err)
		}
	}
	if listTo != "" {
		if to, err = time.Parse(models.DateLayout, listTo); err != nil {
			return nil, fmt.Errorf("invalid --to date %q: %w", listTo, err)
		}
	}

	return func(t models.Task) bool {
		if listDate != "" && t.Date != listDate {
			return false
		}
		if listFrom != "" || listTo != "" {
			d, parseErr := time.Parse(models.DateLayout, t.Date)
			if parseErr != nil {
				return false
			}
			if listFrom != "" && d.Before(from) {
				return false
			}
			if listTo != "" && d.After(to) {
				return false
			}
		}
		if listStatus != "" && string(t.Status) != listStatus {
			return false
		}
		if listTech != "" && t.TechnicianID != listTech {
			return false
		}
		if listUnassigned && t.Assigned() {
			return false
		}
		if listHigh && models.PriorityRank(t.Priority) != 0 {
			return false
		}
		return true
	}, nil
}

func runList(cmd *cobra.Command, args []string) error {
	filter, err := buildListFilter()
	if err != nil {
		return err
	}

	sched, err := GetScheduler()
	if err != nil {
		return err
	}
	defer func() { _ = sched.Close() }()

	tasks, err := sched.List(filter, schedule.SortByDateTime)
	if err != nil {
		return fmt.Errorf("failed to list interventions: %w", err)
	}

	return printTasks(tasks, sched.Members())
}
