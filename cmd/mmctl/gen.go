package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/internal/trace"
)

var (
	genOps     int
	genMaxSize int
	genMaxLive int
	genSeed    int64
	genOutput  string
)

func init() {
	cmd := newGenCmd()
	cmd.Flags().IntVar(&genOps, "ops", 1000, "Operations before the trailing frees")
	cmd.Flags().IntVar(&genMaxSize, "max-size", 4096, "Largest request size in bytes")
	cmd.Flags().IntVar(&genMaxLive, "max-live", 256, "Largest number of simultaneously live ids")
	cmd.Flags().Int64Var(&genSeed, "seed", 1, "Random seed")
	cmd.Flags().StringVarP(&genOutput, "output", "o", "", "Write the trace to this file instead of stdout")
	rootCmd.AddCommand(cmd)
}

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a random allocation trace",
		Long: `The gen command writes a random, valid trace in replay format. The
same seed always produces the same trace.

Example:
  mmctl gen --ops 5000 --seed 7 -o random.rep
  mmctl gen --max-size 64 | mmctl replay /dev/stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen()
		},
	}
	return cmd
}

func runGen() error {
	tr := trace.Generate(rand.New(rand.NewSource(genSeed)), trace.GenOptions{
		Ops:     genOps,
		MaxSize: genMaxSize,
		MaxLive: genMaxLive,
	})

	var w io.Writer = os.Stdout
	if genOutput != "" {
		f, err := os.Create(genOutput)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := trace.Write(w, tr); err != nil {
		return err
	}
	if genOutput != "" {
		printVerbose("Wrote %d ops (%d ids) to %s\n", len(tr.Ops), tr.NumIDs, genOutput)
	}
	return nil
}
