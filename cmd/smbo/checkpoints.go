package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/thalesfsp/smbo/internal/store"
)

var (
	checkpointDataDir string
	keepLast          int
	olderThanDays     int
)

var checkpointsCmd = &cobra.Command{
	Use:   "checkpoints",
	Short: "Manage optimization checkpoints",
}

var listCheckpointsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available checkpoints",
	RunE:  runListCheckpoints,
}

var deleteCheckpointCmd = &cobra.Command{
	Use:   "delete [run-id]",
	Short: "Delete one checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		checkpointStore, err := store.NewFSStore(checkpointDataDir, logger)
		if err != nil {
			return fmt.Errorf("failed to create checkpoint store: %w", err)
		}

		return checkpointStore.DeleteCheckpoint(args[0])
	},
}

var cleanCheckpointsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete old checkpoints",
	Long:  `Delete checkpoints beyond the newest --keep-last, or older than --older-than days.`,
	RunE:  runCleanCheckpoints,
}

func init() {
	rootCmd.AddCommand(checkpointsCmd)

	checkpointsCmd.AddCommand(listCheckpointsCmd)
	checkpointsCmd.AddCommand(deleteCheckpointCmd)
	checkpointsCmd.AddCommand(cleanCheckpointsCmd)

	checkpointsCmd.PersistentFlags().StringVar(&checkpointDataDir, "data-dir", "./data", "Checkpoint directory")

	cleanCheckpointsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the newest N checkpoints (0 = keep all)")
	cleanCheckpointsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete checkpoints older than N days (0 = no age limit)")
}

func runListCheckpoints(cmd *cobra.Command, args []string) error {
	checkpointStore, err := store.NewFSStore(checkpointDataDir, logger)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}

	infos, err := checkpointStore.ListCheckpoints()
	if err != nil {
		return fmt.Errorf("failed to list checkpoints: %w", err)
	}

	out := cmd.OutOrStdout()

	if len(infos) == 0 {
		fmt.Fprintln(out, "No checkpoints found.")

		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tFUNCTION\tSTATE\tITERATION\tSAMPLES\tBEST Y\tTIMESTAMP")

	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.6g\t%s\n",
			info.RunID,
			info.Function,
			info.State,
			info.Iteration,
			info.Samples,
			info.BestY,
			info.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	w.Flush()

	return nil
}

func runCleanCheckpoints(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	checkpointStore, err := store.NewFSStore(checkpointDataDir, logger)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}

	infos, err := checkpointStore.ListCheckpoints()
	if err != nil {
		return fmt.Errorf("failed to list checkpoints: %w", err)
	}

	deleted := 0

	for _, info := range selectCheckpointsForDeletion(infos, keepLast, olderThanDays, time.Now()) {
		if err := checkpointStore.DeleteCheckpoint(info.RunID); err != nil {
			logger.Error("Failed to delete checkpoint", "runID", info.RunID, "error", err)

			continue
		}

		logger.Info("Deleted checkpoint", "runID", info.RunID)
		deleted++
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d checkpoint(s).\n", deleted)

	return nil
}

// selectCheckpointsForDeletion returns the checkpoints older than
// olderThanDays plus all but the newest keepLast. infos must be sorted
// newest first, as ListCheckpoints returns them.
func selectCheckpointsForDeletion(infos []store.CheckpointInfo, keepLast, olderThanDays int, now time.Time) []store.CheckpointInfo {
	var toDelete []store.CheckpointInfo

	cutoff := now.AddDate(0, 0, -olderThanDays)

	for i, info := range infos {
		tooOld := olderThanDays > 0 && info.Timestamp.Before(cutoff)
		beyondKept := keepLast > 0 && i >= keepLast

		if tooOld || beyondKept {
			toDelete = append(toDelete, info)
		}
	}

	return toDelete
}
