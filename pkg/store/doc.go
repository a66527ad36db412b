// Package store persists Markov models in a SQL database.
//
// Models are kept as rows of a shared vocabulary and per-model chain links,
// so several named models can live side by side in one database file. The
// schema is created with SetupSchema, and a Store wraps prepared statements
// for saving, loading, listing and removing models.
//
// The package uses only database/sql; callers choose the driver. The
// services in this module use modernc.org/sqlite by default and
// github.com/mattn/go-sqlite3 when built with the cgo_sqlite tag.
//
// Basic Usage:
//
//	db, _ := sql.Open("sqlite", "murmur.db")
//	if err := store.SetupSchema(db); err != nil {
//		log.Fatal(err)
//	}
//	s, err := store.New(db)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer s.Close()
//
//	if err := s.Save(ctx, "posts", model); err != nil {
//		log.Fatal(err)
//	}
//	loaded, err := s.Load(ctx, "posts")
package store
