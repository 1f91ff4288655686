// Package importer writes converted items into a Destination.
package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/mrlokans/ne2keep/internal/entities"
	"github.com/mrlokans/ne2keep/internal/progress"
)

// Result counts what an import run created.
type Result struct {
	Notes      int
	Checklists int
	Labelled   int
}

// Imported is the number of items created and synced.
func (r Result) Imported() int {
	return r.Notes + r.Checklists
}

type Importer struct {
	dest Destination
	out  io.Writer
}

func NewImporter(dest Destination, out io.Writer) *Importer {
	return &Importer{dest: dest, out: out}
}

// Import creates every item in order and syncs after each one. The first
// error stops the run; Result holds what was imported before it.
func (im *Importer) Import(ctx context.Context, items []entities.Item, labels map[string]Label) (Result, error) {
	var result Result
	bar := progress.New(im.out, len(items))

	for i, it := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var label Label
		if folder := entities.FolderName(it); folder != "" {
			l, ok := labels[folder]
			if !ok {
				return result, &MissingLabelError{Title: it.ItemTitle(), Folder: folder}
			}
			label = l
		}

		var (
			handle Handle
			color  entities.Color
			pinned bool
		)
		switch v := it.(type) {
		case entities.Note:
			handle = im.dest.CreateNote(v.Title, v.Body)
			color, pinned = v.Color, v.Pinned
		case entities.Checklist:
			handle = im.dest.CreateList(v.Title, v.Entries)
			color, pinned = v.Color, v.Pinned
		default:
			return result, &UnknownItemError{Position: i, Item: it}
		}

		if color.IsSet() {
			handle.SetColor(color)
		}
		handle.SetPinned(pinned)

		if label != nil {
			if err := handle.AddLabel(label); err != nil {
				return result, err
			}
		}

		if err := im.dest.Sync(ctx); err != nil {
			return result, fmt.Errorf("failed to sync item %q: %w", it.ItemTitle(), err)
		}

		switch it.(type) {
		case entities.Note:
			result.Notes++
		case entities.Checklist:
			result.Checklists++
		}
		if label != nil {
			result.Labelled++
		}

		bar.Next("Adding items")
	}

	return result, nil
}
