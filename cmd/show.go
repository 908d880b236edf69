package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldwork/dispatch/internal/roster"
	"github.com/fieldwork/dispatch/internal/ui"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show one intervention in detail",
	Long: `Show every field of an intervention. With no id, select one
interactively.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	sched, err := GetScheduler()
	if err != nil {
		return err
	}
	defer func() { _ = sched.Close() }()

	task, err := resolveTask(sched, args, "Select an intervention to show")
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(task)
	}

	fmt.Println(ui.StyleTitle.Render(task.ID) + "  " + task.Title)
	fmt.Printf("  Date:      %s %s (%d min)\n", task.Date, ui.TimeSpan(task), task.Duration)
	fmt.Printf("  Status:    %s\n", ui.StatusStyle(task.Status).Render(string(task.Status)))
	fmt.Printf("  Priority:  %s\n", ui.PriorityLabel(task.Priority))
	if task.Progress > 0 {
		fmt.Printf("  Progress:  %d%%\n", task.Progress)
	}
	if task.Client != "" {
		fmt.Printf("  Client:    %s\n", task.Client)
	}
	if task.Assigned() {
		tech := task.TechnicianID
		if member, ok := roster.Lookup(sched.Members(), task.TechnicianID); ok {
			tech = fmt.Sprintf("%s (%s, %s)", member.Name, member.ID, member.Status)
		}
		fmt.Printf("  Tech:      %s\n", tech)
	}
	if task.Equipment != "" {
		line := task.Equipment
		if task.Brand != "" {
			line += " / " + task.Brand
		}
		if task.Model != "" {
			line += " " + task.Model
		}
		fmt.Printf("  Equipment: %s\n", line)
	}
	if task.SerialNumber != "" {
		fmt.Printf("  Serial:    %s\n", task.SerialNumber)
	}
	if task.ReportNumber != "" {
		fmt.Printf("  Report:    %s\n", task.ReportNumber)
	}
	if task.Description != "" {
		fmt.Printf("  Notes:     %s\n", task.Description)
	}
	fmt.Println(ui.StyleSubtle.Render(fmt.Sprintf("  created %s · updated %s",
		task.CreatedAt.Format("2006-01-02 15:04"), task.UpdatedAt.Format("2006-01-02 15:04"))))
	return nil
}
