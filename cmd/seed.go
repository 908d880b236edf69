package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldwork/dispatch/internal/roster"
	"github.com/fieldwork/dispatch/internal/scheduler"
	"github.com/fieldwork/dispatch/internal/seed"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo interventions into an empty schedule",
	Long: `Populate the store with a demo data set dated around today, so the
board and stats have something to show. Refuses to run on a non-empty
store unless --force is given.`,
	RunE: runSeed,
}

var seedForce bool

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().BoolVarP(&seedForce, "force", "f", false, "seed even if the store already has interventions")
}

func runSeed(cmd *cobra.Command, args []string) error {
	s, err := GetStore()
	if err != nil {
		return err
	}

	members, err := roster.Load(GetConfig().Roster.File)
	if err != nil {
		_ = s.Close()
		return err
	}
	sched := scheduler.New(s, members)
	defer func() { _ = sched.Close() }()

	existing, err := sched.List(nil, nil)
	if err != nil {
		return err
	}
	if len(existing) > 0 && !seedForce {
		return fmt.Errorf("store already holds %d interventions; pass --force to seed anyway", len(existing))
	}

	created, err := seed.Populate(s, time.Now())
	if err != nil {
		return err
	}
	if _, err := sched.Resync(); err != nil {
		return err
	}

	fmt.Printf("Seeded %d demo interventions.\n", len(created))
	return nil
}
