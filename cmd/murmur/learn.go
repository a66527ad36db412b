package main

import (
	"fmt"

	"github.com/CTAG07/Murmur/pkg/markov"
	"github.com/CTAG07/Murmur/pkg/notestock"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newLearnCmd(a *app) *cobra.Command {
	var (
		out         string
		glob        string
		tokenizer   string
		spModel     string
		spamMarkers []string
	)
	cmd := &cobra.Command{
		Use:   "learn [archive.zip...]",
		Short: "Learn a model from notestock archives",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && glob == "" {
				return fmt.Errorf("no archives given: pass archive paths or --glob")
			}

			tok, err := markov.NewTokenizer(tokenizer, spModel)
			if err != nil {
				return err
			}
			opts := []notestock.Option{notestock.WithLogger(a.logger)}
			if cmd.Flags().Changed("spam-marker") {
				opts = append(opts, notestock.WithSpamMarkers(spamMarkers...))
			}
			extractor := notestock.NewExtractor(opts...)

			var texts []string
			for _, path := range args {
				fileTexts, err := extractor.ParseFile(path)
				if err != nil {
					return err
				}
				texts = append(texts, fileTexts...)
			}
			if glob != "" {
				globTexts, err := extractor.ParseGlob(glob)
				if err != nil {
					return err
				}
				texts = append(texts, globTexts...)
			}

			builder := markov.NewBuilder(tok)
			builder.SetLogger(a.logger)
			failed := builder.LearnMany(texts)
			model := builder.Build()

			size, err := markov.WriteEncodedFile(markov.Encode(model), out)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "learned %d texts (%d failed), %d sources, wrote %s to %s\n",
				len(texts)-failed, failed, model.Len(), humanize.Bytes(uint64(size)), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "model.bin", "output model file")
	cmd.Flags().StringVar(&glob, "glob", "", "glob of archives to learn, ** matches any directories")
	cmd.Flags().StringVar(&tokenizer, "tokenizer", markov.TokenizerDefault, "tokenizer: default, prose or sentencepiece")
	cmd.Flags().StringVar(&spModel, "sentencepiece-model", "", "sentencepiece .model file")
	cmd.Flags().StringSliceVar(&spamMarkers, "spam-marker", nil, "substring marking posts to skip (repeatable, replaces the defaults)")
	return cmd
}
