package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update [task-id]",
	Short: "Update fields of an intervention",
	Long: `Update an intervention. Only the flags you pass change; identity
and audit fields cannot be updated.

Examples:
  dispatch update TASK-007 --status in_progress --progress 40
  dispatch update TASK-007 --tech tech-2 --time 14:00`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUpdate,
}

var (
	updateTitle    string
	updateClient   string
	updateDate     string
	updateTime     string
	updateDuration int
	updateTech     string
	updateStatus   string
	updatePriority int
	updateProgress int
	updateDesc     string
)

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().StringVar(&updateTitle, "title", "", "new title")
	updateCmd.Flags().StringVar(&updateClient, "client", "", "new client")
	updateCmd.Flags().StringVarP(&updateDate, "date", "d", "", "new date (YYYY-MM-DD)")
	updateCmd.Flags().StringVarP(&updateTime, "time", "t", "", "new start time (HH:MM)")
	updateCmd.Flags().IntVarP(&updateDuration, "duration", "D", 0, "new duration in minutes")
	updateCmd.Flags().StringVar(&updateTech, "tech", "", "new technician id")
	updateCmd.Flags().StringVarP(&updateStatus, "status", "s", "", "new status (pending, in_progress, completed)")
	updateCmd.Flags().IntVarP(&updatePriority, "priority", "p", 0, "new priority (1=high, 2=medium, 3=low)")
	updateCmd.Flags().IntVar(&updateProgress, "progress", -1, "completion percentage (0-100)")
	updateCmd.Flags().StringVar(&updateDesc, "description", "", "new description")
}

func collectUpdates(cmd *cobra.Command) map[string]interface{} {
	updates := make(map[string]interface{})
	if cmd.Flags().Changed("title") {
		updates["title"] = updateTitle
	}
	if cmd.Flags().Changed("client") {
		updates["client"] = updateClient
	}
	if cmd.Flags().Changed("date") {
		updates["date"] = updateDate
	}
	if cmd.Flags().Changed("time") {
		updates["startTime"] = updateTime
	}
	if cmd.Flags().Changed("duration") {
		updates["duration"] = updateDuration
	}
	if cmd.Flags().Changed("tech") {
		updates["technicianId"] = updateTech
	}
	if cmd.Flags().Changed("status") {
		updates["status"] = updateStatus
	}
	if cmd.Flags().Changed("priority") {
		updates["priority"] = updatePriority
	}
	if cmd.Flags().Changed("progress") {
		updates["progress"] = updateProgress
	}
	if cmd.Flags().Changed("description") {
		updates["description"] = updateDesc
	}
	return updates
}

func runUpdate(cmd *cobra.Command, args []string) error {
	updates := collectUpdates(cmd)
	if len(updates) == 0 {
		return fmt.Errorf("nothing to update: pass at least one field flag")
	}

	sched, err := GetScheduler()
	if err != nil {
		return err
	}
	defer func() { _ = sched.Close() }()

	task, err := resolveTask(sched, args, "Select an intervention to update")
	if err != nil {
		return err
	}

	updated, err := sched.Update(task.ID, updates)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", task.ID, err)
	}

	if isJSON() {
		return printJSON(updated)
	}
	fmt.Printf("Updated %s: %s\n", updated.ID, updated.Title)
	return nil
}
