package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thalesfsp/smbo"
	"github.com/thalesfsp/smbo/internal/bench"
	"github.com/thalesfsp/smbo/internal/store"
)

var (
	resumeDataDir string
	resumeIters   int
)

var resumeCmd = &cobra.Command{
	Use:   "resume [run-id]",
	Short: "Resume a run from its checkpoint",
	Long: `Loads the checkpoint of a run and continues it. The surrogate is rebuilt
from the saved samples and hyperparameters, so the run picks up exactly where it
stopped. Use --iters to extend a run that spent its budget.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeDataDir, "data-dir", "./data", "Checkpoint directory")
	resumeCmd.Flags().IntVar(&resumeIters, "iters", 0, "New iteration budget (0 = keep the saved one)")

	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	id := args[0]

	checkpointStore, err := store.NewFSStore(resumeDataDir, logger)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}

	checkpoint, err := checkpointStore.LoadCheckpoint(id)
	if err != nil {
		return err
	}

	if err := checkpoint.Validate(); err != nil {
		return fmt.Errorf("invalid checkpoint: %w", err)
	}

	runConfig := checkpoint.Config
	if resumeIters > 0 {
		runConfig.Iterations = resumeIters
	}

	fn, err := bench.ByName(runConfig.Function, runConfig.Dims)
	if err != nil {
		return err
	}

	if err := checkpoint.IsCompatible(runConfig); err != nil {
		return err
	}

	acq, err := acquisitionByName(runConfig.Acquisition, runConfig.Seed+int64(checkpoint.Snapshot.Iteration))
	if err != nil {
		return err
	}

	config := smbo.DefaultConfig()
	config.Iterations = runConfig.Iterations
	config.InitialSamples = runConfig.InitialSamples
	config.Seed = runConfig.Seed
	config.StopImprovement = runConfig.StopImprovement
	config.Acquisition = acq
	config.Logger = logger

	progress, stopProgress := watchProgress()
	defer stopProgress()

	config.ProgressChan = progress
	config.Checkpointer = &store.RunCheckpointer{Store: checkpointStore, RunID: id, Domain: checkpoint.Domain, Config: runConfig}

	optimizer, err := smbo.New(checkpoint.Domain, smbo.SimpleObjective(fn.Eval), config)
	if err != nil {
		return err
	}

	if err := optimizer.Resume(&checkpoint.Snapshot); err != nil {
		return err
	}

	logger.Info("Resuming optimization",
		"runID", id,
		"func", fn.Name(),
		"iteration", checkpoint.Snapshot.Iteration,
		"iters", runConfig.Iterations,
	)

	return execute(cmd.Context(), cmd.OutOrStdout(), optimizer, fn)
}
