package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/CTAG07/Murmur/pkg/markov"
	"github.com/spf13/cobra"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		modelPath string
		start     string
		count     int
		maxLength int
		seed      uint64
		tokenizer string
		spModel   string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate texts from a model file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			model, err := markov.DecodeFile(modelPath)
			if err != nil {
				return err
			}
			tok, err := markov.NewTokenizer(tokenizer, spModel)
			if err != nil {
				return err
			}

			opts := []markov.GeneratorOption{
				markov.WithMaxLength(maxLength),
				markov.WithLogger(a.logger),
			}
			if cmd.Flags().Changed("seed") {
				opts = append(opts, markov.WithRand(rand.New(rand.NewPCG(seed, seed))))
			}
			gen := markov.NewGenerator(model, opts...)
			if err = gen.SetStart(start); err != nil {
				return err
			}

			for i := 0; i < count; i++ {
				words, err := gen.Generate(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), markov.JoinWords(tok, words))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&modelPath, "model", "m", "model.bin", "model file")
	cmd.Flags().StringVarP(&start, "start", "s", "", "starting word (default: start of a text)")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of texts to generate")
	cmd.Flags().IntVar(&maxLength, "max-length", 0, "maximum words per text, 0 for unbounded")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for reproducible output")
	cmd.Flags().StringVar(&tokenizer, "tokenizer", markov.TokenizerDefault, "tokenizer used to join words")
	cmd.Flags().StringVar(&spModel, "sentencepiece-model", "", "sentencepiece .model file")
	return cmd
}
