package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/arena"
	"github.com/joshuapare/heapkit/arena/alloc"
	"github.com/joshuapare/heapkit/arena/dirty"
	"github.com/joshuapare/heapkit/internal/trace"
)

var (
	replayCheck    bool
	replayFile     string
	replayMaxHeap  int
	replayPageSize int
	replayStats    bool
)

func init() {
	cmd := newReplayCmd()
	cmd.Flags().BoolVar(&replayCheck, "check", false, "Run the consistency checker after every operation")
	cmd.Flags().StringVar(&replayFile, "file", "", "Back the arena with this file (one file per trace, suffixed when replaying several)")
	cmd.Flags().IntVar(&replayMaxHeap, "max-heap", arena.DefaultMaxSize, "Arena size limit in bytes")
	cmd.Flags().IntVar(&replayPageSize, "page-size", arena.DefaultPageSize, "Arena page size in bytes")
	cmd.Flags().BoolVar(&replayStats, "stats", false, "Print allocator statistics after each trace")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <trace>...",
		Short: "Replay allocation traces against a fresh allocator",
		Long: `The replay command runs each trace against its own allocator. Every
payload is filled with a per-id pattern and checked for alignment, bounds,
overlap and content preservation. Peak utilization is reported per trace.

Example:
  mmctl replay traces/short1.rep
  mmctl replay --check traces/*.rep
  mmctl replay --file heap.arena --json traces/binary.rep`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), args)
		},
	}
	return cmd
}

// replayResult is the per-trace report.
type replayResult struct {
	Trace       string  `json:"trace"`
	Ops         int     `json:"ops"`
	PeakPayload int     `json:"peak_payload"`
	ArenaSize   int     `json:"arena_size"`
	Utilization float64 `json:"utilization"`
	GrowCalls   int     `json:"grow_calls"`
	Splits      int     `json:"splits"`
	Coalesces   int     `json:"coalesces"`
	Error       string  `json:"error,omitempty"`
}

func runReplay(ctx context.Context, paths []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var results []replayResult
	failed := 0

	for i, path := range paths {
		res, err := replayOne(ctx, path, arenaPath(i, len(paths)))
		if err != nil {
			failed++
			res.Error = err.Error()
			if !jsonOut {
				printError("%s: %v\n", path, err)
			}
		}
		results = append(results, res)
		if !jsonOut && err == nil {
			printInfo("%-32s ops=%d peak=%d arena=%d util=%.1f%%\n",
				filepath.Base(path), res.Ops, res.PeakPayload, res.ArenaSize, 100*res.Utilization)
		}
	}

	if jsonOut {
		if err := printJSON(results); err != nil {
			return err
		}
	} else if len(results) > 1 {
		printInfo("\n%d traces, %d failed, mean utilization %.1f%%\n", len(results), failed, 100*meanUtilization(results))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d traces failed", failed, len(paths))
	}
	return nil
}

// arenaPath returns the backing file for trace i, or "" for memory arenas.
func arenaPath(i, n int) string {
	if replayFile == "" {
		return ""
	}
	if n == 1 {
		return replayFile
	}
	return fmt.Sprintf("%s.%d", replayFile, i)
}

func replayOne(ctx context.Context, path, backing string) (replayResult, error) {
	res := replayResult{Trace: path}
	printVerbose("Parsing trace: %s\n", path)
	tr, err := trace.ParseFile(path)
	if err != nil {
		return res, err
	}

	cfg := arena.Config{PageSize: replayPageSize, MaxSize: replayMaxHeap}
	var a *arena.Arena
	if backing != "" {
		a, err = arena.Create(backing, cfg)
	} else {
		a, err = arena.New(cfg)
	}
	if err != nil {
		return res, err
	}
	defer a.Close()

	opts := &alloc.Options{Logger: logger()}
	var dt *dirty.Tracker
	if backing != "" {
		dt = dirty.NewTracker(a)
		opts.Dirty = dt
	}
	fa, err := alloc.New(a, opts)
	if err != nil {
		return res, err
	}

	out, err := trace.Replay(fa, tr, trace.ReplayOptions{Check: replayCheck, Logger: opts.Logger})
	if out != nil {
		res.Ops = out.Ops
		res.PeakPayload = out.PeakPayload
		res.ArenaSize = out.ArenaSize
		res.Utilization = out.Utilization
	}
	s := fa.Stats()
	res.GrowCalls = s.GrowCalls
	res.Splits = s.SplitCount
	res.Coalesces = s.CoalesceForward + s.CoalesceBackward
	if err != nil {
		return res, err
	}
	if err := fa.Check(); err != nil {
		return res, err
	}

	if dt != nil {
		printVerbose("Flushing %d dirty ranges to %s\n", dt.Len(), backing)
		if err := dt.Flush(ctx); err != nil {
			return res, fmt.Errorf("flush: %w", err)
		}
	}
	if replayStats && !jsonOut && !quiet {
		if err := fa.WriteStats(os.Stdout); err != nil {
			return res, err
		}
	}
	return res, nil
}

func meanUtilization(results []replayResult) float64 {
	sum, n := 0.0, 0
	for _, r := range results {
		if r.Error == "" {
			sum += r.Utilization
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
