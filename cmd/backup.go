package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// backupCmd represents the backup command
var backupCmd = &cobra.Command{
	Use:   "backup <path>",
	Short: "Write a backup of the schedule",
	Long: `Write the full task collection, including the id counter, to a
backup file. Backups are portable between the file and sqlite backends.`,
	Args: cobra.ExactArgs(1),
	RunE: runBackup,
}

// restoreCmd represents the restore command
var restoreCmd = &cobra.Command{
	Use:   "restore <path>",
	Short: "Restore the schedule from a backup",
	Long: `Replace the current task collection with the contents of a backup
file. The current data is overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	s, err := GetStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.Backup(args[0]); err != nil {
		return err
	}
	fmt.Printf("Backup written to %s\n", args[0])
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	if !confirmOrAbort("Overwrite the current schedule with the backup? [y/N] ") {
		return nil
	}

	s, err := GetStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.Restore(args[0]); err != nil {
		return err
	}
	fmt.Printf("Schedule restored from %s\n", args[0])
	return nil
}
