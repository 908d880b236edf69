package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldwork/dispatch/types"
)

// moveCmd represents the move command
var moveCmd = &cobra.Command{
	Use:   "move <task-id> <date>",
	Short: "Reschedule an intervention to another date",
	Long: `Move an intervention to a new date. The move is refused when the
assigned technician already has an overlapping slot that day; back-to-back
bookings are fine.

Example:
  dispatch move TASK-007 2026-09-03`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

func init() {
	rootCmd.AddCommand(moveCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	id, newDate := args[0], args[1]

	sched, err := GetScheduler()
	if err != nil {
		return err
	}
	defer func() { _ = sched.Close() }()

	moved, err := sched.Move(id, newDate)
	if err != nil {
		var conflict *types.ConflictError
		if errors.As(err, &conflict) {
			return fmt.Errorf("cannot move %s to %s: technician %s is already booked by %s",
				conflict.TaskID, conflict.Date, conflict.TechnicianID, conflict.BlockingID)
		}
		return err
	}

	if isJSON() {
		return printJSON(moved)
	}
	fmt.Printf("Moved %s to %s (%s).\n", moved.ID, moved.Date, moved.StartTime)
	return nil
}
