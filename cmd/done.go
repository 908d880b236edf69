package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldwork/dispatch/models"
)

// doneCmd represents the done command
var doneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Mark an intervention completed",
	Long: `Mark an intervention as completed with full progress. With no id,
select one interactively from the open interventions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDone,
}

func init() {
	rootCmd.AddCommand(doneCmd)
}

func runDone(cmd *cobra.Command, args []string) error {
	sched, err := GetScheduler()
	if err != nil {
		return err
	}
	defer func() { _ = sched.Close() }()

	var id string
	if len(args) > 0 {
		id = args[0]
	} else {
		open := func(t models.Task) bool { return t.Status != models.StatusCompleted }
		task, err := selectTaskInteractive(sched, open, "Select an intervention to complete")
		if err != nil {
			return err
		}
		id = task.ID
	}

	done, err := sched.Done(id)
	if err != nil {
		return fmt.Errorf("failed to complete %s: %w", id, err)
	}

	if isJSON() {
		return printJSON(done)
	}
	fmt.Printf("Completed %s: %s\n", done.ID, done.Title)
	return nil
}
