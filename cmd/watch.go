package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fieldwork/dispatch/internal/watch"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the data file and keep projections synced",
	Long: `Watch the data file for edits from other processes and resync the
calendar and statistics projections whenever it changes. Runs until
interrupted. Only meaningful with the file backend; the sqlite backend
serializes writers itself.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if GetConfig().Data.Backend != "file" {
		return fmt.Errorf("watch requires the file backend, configured backend is %q", GetConfig().Data.Backend)
	}

	sched, err := GetScheduler()
	if err != nil {
		return err
	}
	defer func() { _ = sched.Close() }()

	dataPath := GetTaskFilePath()
	watcher, err := watch.New(dataPath, func() {
		result, err := sched.Resync()
		if err != nil {
			fmt.Fprintf(os.Stderr, "resync failed: %v\n", err)
			return
		}
		line := fmt.Sprintf("resynced: %d events", result.Events)
		if len(result.Coerced) > 0 {
			line += fmt.Sprintf(", %d tasks coerced to pending", len(result.Coerced))
		}
		fmt.Println(line)
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	fmt.Printf("Watching %s (ctrl-c to stop)\n", dataPath)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	<-sigs
	fmt.Println("\nStopped.")
	return nil
}
