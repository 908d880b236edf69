package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldwork/dispatch/models"
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Schedule a new intervention",
	Long: `Add a new intervention to the schedule. Date, start time, and
duration are required; everything else is optional.

Examples:
  dispatch add "Walk-in freezer compressor service" --date 2026-09-01 --time 08:30 --duration 90
  dispatch add "Filter replacement" -d 2026-09-01 -t 11:00 -D 60 --tech tech-1 --priority 1`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var (
	addDate      string
	addTime      string
	addDuration  int
	addClient    string
	addTech      string
	addPriority  int
	addEquipment string
	addDesc      string
)

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addDate, "date", "d", "", "date (YYYY-MM-DD)")
	addCmd.Flags().StringVarP(&addTime, "time", "t", "", "start time (HH:MM, 24h)")
	addCmd.Flags().IntVarP(&addDuration, "duration", "D", 60, "duration in minutes")
	addCmd.Flags().StringVar(&addClient, "client", "", "client name")
	addCmd.Flags().StringVar(&addTech, "tech", "", "technician id")
	addCmd.Flags().IntVarP(&addPriority, "priority", "p", models.PriorityMedium, "priority (1=high, 2=medium, 3=low)")
	addCmd.Flags().StringVar(&addEquipment, "equipment", "", "equipment description")
	addCmd.Flags().StringVar(&addDesc, "description", "", "free-form description")

	_ = addCmd.MarkFlagRequired("date")
	_ = addCmd.MarkFlagRequired("time")
}

func runAdd(cmd *cobra.Command, args []string) error {
	task := models.NewTask(args[0], addDate, addTime, addDuration)
	task.Client = addClient
	task.TechnicianID = addTech
	task.Priority = addPriority
	task.Equipment = addEquipment
	task.Description = addDesc

	if err := task.ValidateSchedule(); err != nil {
		return err
	}

	sched, err := GetScheduler()
	if err != nil {
		return err
	}
	defer func() { _ = sched.Close() }()

	created, err := sched.Create(task)
	if err != nil {
		return fmt.Errorf("failed to create intervention: %w", err)
	}

	if isJSON() {
		return printJSON(created)
	}
	fmt.Printf("Created %s: %s on %s at %s (%d min)\n",
		created.ID, created.Title, created.Date, created.StartTime, created.Duration)
	return nil
}
