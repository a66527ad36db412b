package main

import (
	"fmt"
	"os"

	"github.com/CTAG07/Murmur/pkg/markov"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatsCmd(_ *app) *cobra.Command {
	var modelPath string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print statistics of a model file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			model, err := markov.DecodeFile(modelPath)
			if err != nil {
				return err
			}
			info, err := os.Stat(modelPath)
			if err != nil {
				return fmt.Errorf("%w: %w", markov.ErrIO, err)
			}
			printStats(cmd, model.Stats())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "file size:       %s\n", humanize.Bytes(uint64(info.Size())))
			return nil
		},
	}
	cmd.Flags().StringVarP(&modelPath, "model", "m", "model.bin", "model file")
	return cmd
}

func printStats(cmd *cobra.Command, stats markov.ModelStats) {
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "sources:         %s\n", humanize.Comma(int64(stats.Sources)))
	_, _ = fmt.Fprintf(w, "links:           %s\n", humanize.Comma(int64(stats.TotalChains)))
	_, _ = fmt.Fprintf(w, "transitions:     %s\n", humanize.Comma(int64(stats.TotalFrequency)))
	_, _ = fmt.Fprintf(w, "starting tokens: %s\n", humanize.Comma(int64(stats.StartingTokens)))
	_, _ = fmt.Fprintf(w, "vocabulary:      %s\n", humanize.Comma(int64(stats.VocabSize)))
}
