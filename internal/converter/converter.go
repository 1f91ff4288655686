// Package converter turns raw source rows into typed items.
package converter

import (
	"context"
	"fmt"
	"io"
	"log"
	"unicode/utf8"

	"github.com/mrlokans/ne2keep/internal/entities"
	"github.com/mrlokans/ne2keep/internal/notesdb"
)

// Source type codes that mark a note as a checklist
const (
	typeChecklist       = 4
	typeChecklistLegacy = 5
)

// ChecklistSource supplies the ordered checklist rows of a note.
type ChecklistSource interface {
	ChecklistItems(ctx context.Context, noteID int64) ([]notesdb.RawChecklistRow, error)
}

// Warning is a non-fatal problem found while converting a row.
type Warning struct {
	NoteID   int64
	Title    string
	Priority int64
}

func (w Warning) String() string {
	return fmt.Sprintf("Unsupported item priority: #%d (note %d %q)", w.Priority, w.NoteID, w.Title)
}

// Converter maps RawNoteRows to items, fetching checklist entries lazily.
type Converter struct {
	lists    ChecklistSource
	logger   *log.Logger
	warnings []Warning
}

// NewConverter creates a converter. A nil logger discards diagnostics.
func NewConverter(lists ChecklistSource, logger *log.Logger) *Converter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Converter{lists: lists, logger: logger}
}

// Warnings returns the diagnostics collected so far, in row order.
func (c *Converter) Warnings() []Warning {
	return c.warnings
}

// Transform converts one row.
func (c *Converter) Transform(ctx context.Context, row notesdb.RawNoteRow) (entities.Item, error) {
	color := c.color(row)
	folder := FolderTitle(row.FolderRef)

	if row.IsFolder() {
		return entities.Folder{Title: folder, Color: color}, nil
	}

	pinned := row.Sticked == 0

	switch row.Type.Int64 {
	case typeChecklist, typeChecklistLegacy:
		entries, err := c.entries(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		return entities.Checklist{
			Title:   row.Title,
			Entries: entries,
			Folder:  folder,
			Pinned:  pinned,
			Color:   color,
		}, nil
	default:
		return entities.Note{
			Title:  row.Title,
			Body:   row.Body,
			Folder: folder,
			Pinned: pinned,
			Color:  color,
		}, nil
	}
}

// TransformAll converts rows in order.
func (c *Converter) TransformAll(ctx context.Context, rows []notesdb.RawNoteRow) ([]entities.Item, error) {
	items := make([]entities.Item, 0, len(rows))
	for _, row := range rows {
		item, err := c.Transform(ctx, row)
		if err != nil {
			return nil, fmt.Errorf("failed to convert note %d: %w", row.ID, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *Converter) color(row notesdb.RawNoteRow) entities.Color {
	color, ok := PriorityToColor(row.Priority)
	if !ok {
		w := Warning{NoteID: row.ID, Title: row.Title, Priority: row.Priority}
		c.warnings = append(c.warnings, w)
		c.logger.Print(w.String())
	}
	return color
}

func (c *Converter) entries(ctx context.Context, noteID int64) ([]entities.ListEntry, error) {
	rows, err := c.lists.ChecklistItems(ctx, noteID)
	if err != nil {
		return nil, err
	}

	entries := make([]entities.ListEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, entities.ListEntry{
			Text:    r.Text,
			Checked: r.Checked != 0,
		})
	}
	return entries, nil
}

// FolderTitle strips the one-character discriminator from a raw folder
// reference ("#Shopping" -> "Shopping").
func FolderTitle(ref string) string {
	if ref == "" {
		return ""
	}
	_, size := utf8.DecodeRuneInString(ref)
	return ref[size:]
}
