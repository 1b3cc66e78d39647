package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/arena"
	"github.com/joshuapare/heapkit/arena/alloc"
	"github.com/joshuapare/heapkit/arena/verify"
	"github.com/joshuapare/heapkit/internal/layout"
)

var (
	inspectBlocks   bool
	inspectPageSize int
)

func init() {
	cmd := newInspectCmd()
	cmd.Flags().BoolVar(&inspectBlocks, "blocks", false, "List every block")
	cmd.Flags().IntVar(&inspectPageSize, "page-size", arena.DefaultPageSize, "Arena page size in bytes")
	rootCmd.AddCommand(cmd)
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <arena>",
		Short: "Validate and summarize a file-backed arena",
		Long: `The inspect command opens an arena file, rebuilds its free lists, runs
the consistency checker and the arena walk validators, and prints a per-tier
summary.

Example:
  mmctl inspect heap.arena
  mmctl inspect heap.arena --blocks
  mmctl inspect heap.arena --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args)
		},
	}
	return cmd
}

type tierSummary struct {
	Tier   string `json:"tier"`
	Blocks int    `json:"blocks"`
	Bytes  int64  `json:"bytes"`
}

type blockEntry struct {
	Offset int    `json:"offset"`
	Size   int    `json:"size"`
	Used   bool   `json:"used"`
	Tier   string `json:"tier,omitempty"`
	End    bool   `json:"end,omitempty"`
}

type inspectReport struct {
	Path       string        `json:"path"`
	Size       int           `json:"size"`
	UsedBlocks int           `json:"used_blocks"`
	UsedBytes  int64         `json:"used_bytes"`
	Tiers      []tierSummary `json:"tiers"`
	Blocks     []blockEntry  `json:"blocks,omitempty"`
	Valid      bool          `json:"valid"`
	Problems   []string      `json:"problems,omitempty"`
}

func runInspect(args []string) error {
	path := args[0]
	printVerbose("Opening arena: %s\n", path)

	a, err := arena.Open(path, arena.Config{PageSize: inspectPageSize, MaxSize: arena.DefaultMaxSize * 64})
	if err != nil {
		return fmt.Errorf("failed to open arena: %w", err)
	}
	defer a.Close()
	if a.Size() == 0 {
		return fmt.Errorf("arena %s is empty", path)
	}

	fa, err := alloc.New(a, &alloc.Options{Logger: logger()})
	if err != nil {
		return fmt.Errorf("failed to rebuild allocator: %w", err)
	}

	report := buildReport(path, fa, a.Bytes())
	if jsonOut {
		return printJSON(report)
	}
	printReport(report)
	if !report.Valid {
		return fmt.Errorf("arena %s failed validation", path)
	}
	return nil
}

func buildReport(path string, fa *alloc.Allocator, data []byte) inspectReport {
	r := inspectReport{Path: path, Size: len(data)}

	s := fa.Stats()
	for t := range layout.NumTiers {
		r.Tiers = append(r.Tiers, tierSummary{
			Tier:   layout.Tier(t).String(),
			Blocks: s.FreeBlocks[t],
			Bytes:  s.FreeBytes[t],
		})
	}

	blocks, err := fa.Blocks()
	if err != nil {
		r.Problems = append(r.Problems, err.Error())
	}
	for _, b := range blocks {
		if b.Used {
			r.UsedBlocks++
			r.UsedBytes += int64(b.Size)
		}
		if inspectBlocks {
			e := blockEntry{Offset: b.Offset, Size: b.Size, Used: b.Used, End: b.End}
			if !b.Used {
				e.Tier = b.Tier.String()
			}
			r.Blocks = append(r.Blocks, e)
		}
	}

	if err := fa.Check(); err != nil {
		r.Problems = append(r.Problems, err.Error())
	}
	if err := verify.AllInvariants(data, fa.End()); err != nil {
		r.Problems = append(r.Problems, err.Error())
	}
	if err := verify.FreeListCoverage(data, fa.Heads()); err != nil {
		r.Problems = append(r.Problems, err.Error())
	}
	r.Valid = len(r.Problems) == 0
	return r
}

func printReport(r inspectReport) {
	printInfo("Arena: %s (%d bytes)\n", r.Path, r.Size)
	printInfo("Used:  %d blocks, %d bytes\n", r.UsedBlocks, r.UsedBytes)
	printInfo("\nFree lists:\n")
	for _, t := range r.Tiers {
		printInfo("  %-8s %6d blocks %12d bytes\n", t.Tier, t.Blocks, t.Bytes)
	}

	if len(r.Blocks) > 0 {
		printInfo("\n%10s %10s  %-6s %s\n", "OFFSET", "SIZE", "STATE", "TIER")
		for _, b := range r.Blocks {
			state := "used"
			if !b.Used {
				state = "free"
			}
			end := ""
			if b.End {
				end = " (end)"
			}
			printInfo("%10d %10d  %-6s %s%s\n", b.Offset, b.Size, state, b.Tier, end)
		}
	}

	if r.Valid {
		printInfo("\nValidation: OK\n")
		return
	}
	printInfo("\nValidation: FAILED\n")
	for _, p := range r.Problems {
		printInfo("  - %s\n", p)
	}
}
