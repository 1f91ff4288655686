// Package notesdb reads the source note-taking database.
package notesdb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	rawItemsQuery  = "SELECT _id, title, type, body, folder, sticked, priority FROM Notes"
	listItemsQuery = "SELECT item_text, checked FROM ChecklistItems WHERE note_id=? ORDER BY sort_order ASC"
)

// RawNoteRow is one row of the Notes table, in column order.
type RawNoteRow struct {
	ID        int64
	Title     string
	Type      sql.NullInt64 // NULL marks a folder definition
	Body      string
	FolderRef string
	Sticked   int64
	Priority  int64
}

// IsFolder reports whether the row defines a folder rather than a note.
func (r RawNoteRow) IsFolder() bool {
	return !r.Type.Valid
}

// RawChecklistRow is one row of the ChecklistItems table for a note.
type RawChecklistRow struct {
	Text    string
	Checked int64
}

// Reader executes the two fixed source queries over one read-only connection.
type Reader struct {
	dbPath string
	db     *sql.DB
}

// NewReader checks that dbPath exists. The database is not opened until Open.
func NewReader(dbPath string) (*Reader, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, &DataAccessError{Op: "stat " + dbPath, Err: err}
	}
	return &Reader{dbPath: dbPath}, nil
}

// Path returns the source database path the reader was created with.
func (r *Reader) Path() string {
	return r.dbPath
}

// dsn builds a read-only SQLite URI. The path is percent-escaped so that
// characters such as '#' or '?' stay part of the file name.
func (r *Reader) dsn() string {
	u := url.URL{Scheme: "file", OmitHost: true, Path: r.dbPath, RawQuery: "mode=ro"}
	return u.String()
}

// Open opens the database read-only and verifies the connection.
func (r *Reader) Open(ctx context.Context) error {
	db, err := sql.Open("sqlite3", r.dsn())
	if err != nil {
		return &DataAccessError{Op: "open database", Err: err}
	}
	// A single connection keeps the checklist lookups on the same snapshot
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return &DataAccessError{Op: "open database", Err: err}
	}

	r.db = db
	return nil
}

func (r *Reader) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// Notes returns every row of the Notes table in query order.
func (r *Reader) Notes(ctx context.Context) ([]RawNoteRow, error) {
	if r.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := r.db.QueryContext(ctx, rawItemsQuery)
	if err != nil {
		return nil, &DataAccessError{Op: "query notes", Err: err}
	}
	defer rows.Close()

	var notes []RawNoteRow
	for rows.Next() {
		var n RawNoteRow
		var title, body, folder sql.NullString
		var sticked, priority sql.NullInt64

		err := rows.Scan(
			&n.ID,
			&title,
			&n.Type,
			&body,
			&folder,
			&sticked,
			&priority,
		)
		if err != nil {
			return nil, &DataAccessError{Op: "scan note", Err: err}
		}

		n.Title = title.String
		n.Body = body.String
		n.FolderRef = folder.String
		n.Sticked = sticked.Int64
		n.Priority = priority.Int64

		notes = append(notes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, &DataAccessError{Op: "iterate notes", Err: err}
	}

	return notes, nil
}

// ChecklistItems returns the checklist rows of a note ordered by sort_order.
func (r *Reader) ChecklistItems(ctx context.Context, noteID int64) ([]RawChecklistRow, error) {
	if r.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := r.db.QueryContext(ctx, listItemsQuery, noteID)
	if err != nil {
		return nil, &DataAccessError{Op: fmt.Sprintf("query checklist of note %d", noteID), Err: err}
	}
	defer rows.Close()

	var items []RawChecklistRow
	for rows.Next() {
		var item RawChecklistRow
		var text sql.NullString
		var checked sql.NullInt64

		if err := rows.Scan(&text, &checked); err != nil {
			return nil, &DataAccessError{Op: "scan checklist item", Err: err}
		}

		item.Text = text.String
		item.Checked = checked.Int64
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, &DataAccessError{Op: "iterate checklist items", Err: err}
	}

	return items, nil
}
