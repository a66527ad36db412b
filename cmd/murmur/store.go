package main

import (
	"fmt"
	"time"

	"github.com/CTAG07/Murmur/pkg/markov"
	"github.com/CTAG07/Murmur/pkg/store"
	"github.com/spf13/cobra"
)

// storeFlags are shared by the store subcommands.
type storeFlags struct {
	dbPath string
}

// open connects to the database, creates the schema if needed and returns a
// Store with a cleanup function.
func (f *storeFlags) open(a *app) (*store.Store, func(), error) {
	db, err := initDB(f.dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = store.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	s, err := store.New(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	s.SetLogger(a.logger)
	return s, func() {
		s.Close()
		_ = db.Close()
	}, nil
}

func newStoreCmd(a *app) *cobra.Command {
	f := &storeFlags{}
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage models kept in a SQLite database",
	}
	cmd.PersistentFlags().StringVar(&f.dbPath, "db", "murmur.db", "database file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List stored models",
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, done, err := f.open(a)
				if err != nil {
					return err
				}
				defer done()
				models, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, m := range models {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", m.Name, m.CreatedAt.Format(time.RFC3339))
				}
				return nil
			},
		},
		newStoreSaveCmd(a, f),
		newStoreExportCmd(a, f),
		&cobra.Command{
			Use:   "remove NAME",
			Short: "Remove a stored model",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, done, err := f.open(a)
				if err != nil {
					return err
				}
				defer done()
				return s.Remove(cmd.Context(), args[0])
			},
		},
	)
	return cmd
}

func newStoreSaveCmd(a *app, f *storeFlags) *cobra.Command {
	var modelPath string
	cmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Save a model file into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := markov.DecodeFile(modelPath)
			if err != nil {
				return err
			}
			s, done, err := f.open(a)
			if err != nil {
				return err
			}
			defer done()
			return s.Save(cmd.Context(), args[0], model)
		},
	}
	cmd.Flags().StringVarP(&modelPath, "model", "m", "model.bin", "model file")
	return cmd
}

func newStoreExportCmd(a *app, f *storeFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export NAME",
		Short: "Write a stored model to a model file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done, err := f.open(a)
			if err != nil {
				return err
			}
			defer done()
			model, err := s.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return markov.EncodeFile(model, out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "model.bin", "output model file")
	return cmd
}

