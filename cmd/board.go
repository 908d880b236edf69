package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fieldwork/dispatch/internal/ui"
)

// boardCmd represents the board command
var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Interactive day board",
	Long: `Open the interactive board: one day of the schedule at a time,
with live statistics. Arrow keys change the day, r forces a resync,
q quits.`,
	RunE: runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
}

func runBoard(cmd *cobra.Command, args []string) error {
	sched, err := GetScheduler()
	if err != nil {
		return err
	}
	defer func() { _ = sched.Close() }()

	model := ui.NewBoardModel(sched)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("board exited with error: %w", err)
	}
	return nil
}
