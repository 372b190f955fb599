package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/thalesfsp/smbo"
	"github.com/thalesfsp/smbo/internal/bench"
	"github.com/thalesfsp/smbo/internal/store"
)

var (
	funcName    string
	dims        int
	iters       int
	initSamples int
	seed        int64
	threshold   float64
	acqName     string
	dataDir     string
	runID       string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Minimize a benchmark function",
	Long: `Runs sequential model-based optimization on a benchmark function and
prints the best point found. With --data-dir every iteration is checkpointed
under the run ID so it can be resumed later.`,
	RunE: runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&funcName, "func", "sinusoparaboloid", "Benchmark function: "+strings.Join(bench.Names(), ", "))
	runCmd.Flags().IntVar(&dims, "dims", 1, "Dimensions, for functions that support several")
	runCmd.Flags().IntVar(&iters, "iters", 20, "Max iterations after the initial design")
	runCmd.Flags().IntVar(&initSamples, "init", 0, "Initial samples (0 = 2k+2)")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "Random seed")
	runCmd.Flags().Float64Var(&threshold, "threshold", 1e-6, "Stop once the expected improvement is at most this")
	runCmd.Flags().StringVar(&acqName, "acq", "multistart", "Acquisition search: multistart, local, mayfly, grid")
	runCmd.Flags().StringVar(&dataDir, "data-dir", "", "Checkpoint directory (empty = no checkpoints)")
	runCmd.Flags().StringVar(&runID, "run-id", "", "Run ID for checkpoints (default: random UUID)")

	rootCmd.AddCommand(runCmd)
}

func runOptimization(cmd *cobra.Command, args []string) error {
	fn, err := bench.ByName(funcName, dims)
	if err != nil {
		return err
	}

	acq, err := acquisitionByName(acqName, seed)
	if err != nil {
		return err
	}

	if runID == "" {
		runID = uuid.NewString()
	}

	runConfig := store.RunConfig{
		Function:        funcName,
		Dims:            dims,
		Iterations:      iters,
		InitialSamples:  initSamples,
		Seed:            seed,
		StopImprovement: threshold,
		Acquisition:     acqName,
	}

	domain := domainOf(fn)

	config := smbo.DefaultConfig()
	config.Iterations = iters
	config.InitialSamples = initSamples
	config.Seed = seed
	config.StopImprovement = threshold
	config.Acquisition = acq
	config.Logger = logger

	progress, stopProgress := watchProgress()
	defer stopProgress()

	config.ProgressChan = progress

	if dataDir != "" {
		checkpointStore, err := store.NewFSStore(dataDir, logger)
		if err != nil {
			return fmt.Errorf("failed to create checkpoint store: %w", err)
		}

		config.Checkpointer = &store.RunCheckpointer{Store: checkpointStore, RunID: runID, Domain: domain, Config: runConfig}
	}

	optimizer, err := smbo.New(domain, smbo.SimpleObjective(fn.Eval), config)
	if err != nil {
		return err
	}

	logger.Info("Starting optimization", "runID", runID, "func", fn.Name(), "iters", iters, "acq", acqName)

	return execute(cmd.Context(), cmd.OutOrStdout(), optimizer, fn)
}

// execute runs the optimizer until it ends or the process is interrupted,
// printing progress and the result to out.
func execute(ctx context.Context, out io.Writer, optimizer *smbo.Optimizer, fn bench.Func) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	start := time.Now()

	result, err := optimizer.Run(ctx)
	if err != nil {
		logger.Error("Optimization stopped", "error", err, "iterations", result.Iterations)
	}

	fmt.Fprintf(out, "state:      %s\n", result.State)
	fmt.Fprintf(out, "iterations: %d\n", result.Iterations)
	fmt.Fprintf(out, "samples:    %d\n", len(result.Samples))
	fmt.Fprintf(out, "best x:     %v\n", result.BestX)
	fmt.Fprintf(out, "best y:     %.6g\n", result.BestY)
	fmt.Fprintf(out, "known min:  %.6g\n", fn.Optima()[0].Y)
	fmt.Fprintf(out, "elapsed:    %s\n", time.Since(start).Round(time.Millisecond))

	return err
}

// watchProgress logs every progress update until stop is called.
func watchProgress() (progress chan<- smbo.ProgressUpdate, stop func()) {
	ch := make(chan smbo.ProgressUpdate, 64)
	done := make(chan struct{})

	go func() {
		defer close(done)

		for u := range ch {
			logger.Info("Progress",
				"state", u.State,
				"iteration", u.CurrentIteration,
				"total", u.TotalIterations,
				"x", u.CurrentX,
				"y", u.CurrentY,
				"bestY", u.BestY,
				"acquisition", u.Acquisition,
			)
		}
	}()

	return ch, func() {
		close(ch)
		<-done
	}
}

func domainOf(fn bench.Func) smbo.Domain {
	low, up := fn.Bounds()

	domain := make(smbo.Domain, len(low))
	for i := range low {
		domain[i] = smbo.ParameterRange[float64]{Min: low[i], Max: up[i]}
	}

	return domain
}

func acquisitionByName(name string, seed int64) (smbo.AcquisitionOptimizer, error) {
	switch strings.ToLower(name) {
	case "multistart":
		return &smbo.MultiStart{Rand: rand.New(rand.NewSource(seed))}, nil
	case "local":
		return &smbo.LocalSearch{}, nil
	case "mayfly":
		return &smbo.MayflySearch{Rand: rand.New(rand.NewSource(seed))}, nil
	case "grid":
		return &smbo.GridSearch{}, nil
	default:
		return nil, fmt.Errorf("unknown acquisition search %q", name)
	}
}
