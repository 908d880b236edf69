package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fieldwork/dispatch/internal/roster"
	"github.com/fieldwork/dispatch/internal/scheduler"
	"github.com/fieldwork/dispatch/models"
	"github.com/fieldwork/dispatch/store"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// jsonOutput switches command output to JSON.
	jsonOutput bool
	// ErrNoTasksFound is returned when an interactive selection is attempted but no tasks are available.
	ErrNoTasksFound = errors.New("no tasks found matching your criteria")
	// version is the application version.
	version = "0.3.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Dispatch manages field service interventions from the command line.",
	Long: `Dispatch is the scheduling core for a field service team.
It keeps the authoritative intervention list, detects technician
double-bookings, and maintains the calendar and statistics views the
dashboard is built on.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			_ = cmd.Help()
			os.Exit(0)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(InitConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.dispatch/.dispatch.yaml or $HOME/.dispatch.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON instead of tables")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// GetTaskFilePath returns the full path to the data file.
func GetTaskFilePath() string {
	config := GetConfig()
	return filepath.Join(config.Project.RootDir, config.Project.DataDir, config.Data.File)
}

// GetStore initializes and returns the task store for the configured
// backend.
func GetStore() (store.TaskStore, error) {
	config := GetConfig()
	taskFilePath := GetTaskFilePath()

	var s store.TaskStore
	switch config.Data.Backend {
	case "sqlite":
		s = store.NewSQLiteTaskStore()
	default:
		s = store.NewFileTaskStore()
	}

	err := s.Initialize(map[string]string{
		"dataFile":       taskFilePath,
		"dataFileFormat": config.Data.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store at %s: %w", taskFilePath, err)
	}
	return s, nil
}

// GetScheduler builds the application core: store, roster, and synced
// projections. Callers own Close.
func GetScheduler() (*scheduler.Scheduler, error) {
	s, err := GetStore()
	if err != nil {
		return nil, err
	}

	members, err := roster.Load(GetConfig().Roster.File)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	sched := scheduler.New(s, members)
	if err := sched.Bootstrap(false); err != nil {
		_ = sched.Close()
		return nil, err
	}
	return sched, nil
}

// selectTaskInteractive presents a prompt to the user to select a task from a list.
// It can be filtered using the provided filter function.
func selectTaskInteractive(sched *scheduler.Scheduler, filterFn func(models.Task) bool, label string) (models.Task, error) {
	tasks, err := sched.List(filterFn, nil)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to list tasks for selection: %w", err)
	}

	if len(tasks) == 0 {
		return models.Task{}, ErrNoTasksFound
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   `> {{ .Title | cyan }} (ID: {{ .ID }}, {{ .Date }} {{ .StartTime }})`,
		Inactive: `  {{ .Title | faint }} (ID: {{ .ID }}, {{ .Date }} {{ .StartTime }})`,
		Selected: `{{ "✔" | green }} {{ .Title | faint }} (ID: {{ .ID }})`,
		Details: `
--------- Intervention ----------
{{ "ID:\t" | faint }} {{ .ID }}
{{ "Title:\t" | faint }} {{ .Title }}
{{ "Client:\t" | faint }} {{ .Client }}
{{ "Date:\t" | faint }} {{ .Date }} {{ .StartTime }} ({{ .Duration }} min)
{{ "Status:\t" | faint }} {{ .Status }}
{{ "Priority:\t" | faint }} {{ .Priority }}`,
	}

	searcher := func(input string, index int) bool {
		task := tasks[index]
		name := strings.ToLower(task.Title)
		id := strings.ToLower(task.ID)
		input = strings.ToLower(input)
		return strings.Contains(name, input) || strings.Contains(id, input)
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     tasks,
		Templates: templates,
		Searcher:  searcher,
	}

	i, _, err := prompt.Run()
	if err != nil {
		return models.Task{}, err // Return error as is (includes promptui.ErrInterrupt)
	}

	return tasks[i], nil
}

// resolveTask returns the task for an explicit id argument, or falls back
// to interactive selection when no id was given.
func resolveTask(sched *scheduler.Scheduler, args []string, label string) (models.Task, error) {
	if len(args) > 0 {
		return sched.Get(args[0])
	}
	return selectTaskInteractive(sched, nil, label)
}
