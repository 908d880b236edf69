package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/fieldwork/dispatch/internal/ui"
	"github.com/fieldwork/dispatch/models"
)

func isJSON() bool {
	return viper.GetBool("json")
}

func isVerbose() bool {
	return viper.GetBool("verbose")
}

func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

func confirmOrAbort(prompt string) bool {
	if isJSON() {
		return true
	}
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	if response != "y" && response != "yes" {
		fmt.Println("Cancelled.")
		return false
	}
	return true
}

// memberNames builds the technician id to display name map the tables use.
func memberNames(members []models.TeamMember) map[string]string {
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}
	return names
}

// printTasks renders a task list as JSON or a table, per the global flag.
func printTasks(tasks []models.Task, members []models.TeamMember) error {
	if isJSON() {
		return printJSON(tasks)
	}
	if len(tasks) == 0 {
		fmt.Println("No interventions found.")
		return nil
	}
	fmt.Print(ui.TaskTable(tasks, memberNames(members)).Render())
	return nil
}
