package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete [task-id]",
	Short: "Delete an intervention",
	Long: `Delete an intervention permanently. Its id is never reused.
With --all, clear the whole schedule.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDelete,
}

var (
	deleteAll   bool
	deleteForce bool
)

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().BoolVar(&deleteAll, "all", false, "delete every intervention")
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	sched, err := GetScheduler()
	if err != nil {
		return err
	}
	defer func() { _ = sched.Close() }()

	if deleteAll {
		if !deleteForce && !confirmOrAbort("Delete ALL interventions? [y/N] ") {
			return nil
		}
		tasks, err := sched.List(nil, nil)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			if err := sched.Delete(t.ID); err != nil {
				return fmt.Errorf("failed to delete %s: %w", t.ID, err)
			}
		}
		fmt.Printf("Deleted %d interventions.\n", len(tasks))
		return nil
	}

	task, err := resolveTask(sched, args, "Select an intervention to delete")
	if err != nil {
		return err
	}

	if !deleteForce && !confirmOrAbort(fmt.Sprintf("Delete %s (%s)? [y/N] ", task.ID, task.Title)) {
		return nil
	}

	if err := sched.Delete(task.ID); err != nil {
		return fmt.Errorf("failed to delete %s: %w", task.ID, err)
	}
	fmt.Printf("Deleted %s.\n", task.ID)
	return nil
}
