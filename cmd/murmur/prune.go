package main

import (
	"fmt"

	"github.com/CTAG07/Murmur/pkg/markov"
	"github.com/spf13/cobra"
)

func newPruneCmd(a *app) *cobra.Command {
	var (
		modelPath string
		out       string
		minFreq   uint32
	)
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop rare links from a model file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			model, err := markov.DecodeFile(modelPath)
			if err != nil {
				return err
			}
			if out == "" {
				out = modelPath
			}
			pruned := model.Pruned(minFreq)
			if err = markov.EncodeFile(pruned, out); err != nil {
				return err
			}
			before, after := model.Stats(), pruned.Stats()
			a.logger.Info("Model pruned", "min_freq", minFreq, "path", out)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %d of %d links, wrote %s\n",
				before.TotalChains-after.TotalChains, before.TotalChains, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&modelPath, "model", "m", "model.bin", "model file")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: overwrite the model)")
	cmd.Flags().Uint32Var(&minFreq, "min", 1, "remove links seen this many times or fewer")
	return cmd
}
