// Package database opens the local SQLite state database.
//
// The state database is separate from the source notes database, which is
// only ever read through internal/notesdb. It holds:
//
//	keep_tokens     # encrypted master tokens, owned by internal/tokenstore
//	migration_runs  # one row per convert run, see runs/
//
// Sub-packages provide a Repository per table:
//
//	db, err := database.NewDatabase(cfg.State.DatabasePath)
//	repo := runs.NewRepository(db.DB)
//	recent, err := repo.GetRecent(10)
package database
