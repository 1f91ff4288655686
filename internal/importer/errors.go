package importer

import (
	"fmt"

	"github.com/mrlokans/ne2keep/internal/entities"
)

// UnknownItemError is returned when an item that cannot be imported, such
// as a Folder, reaches the importer.
type UnknownItemError struct {
	Position int
	Item     entities.Item
}

func (e *UnknownItemError) Error() string {
	if e.Item == nil {
		return fmt.Sprintf("unknown item at position %d: <nil>", e.Position)
	}
	return fmt.Sprintf("unknown item at position %d: %s %q", e.Position, e.Item.Kind(), e.Item.ItemTitle())
}

// MissingLabelError is returned when an item names a folder that was not
// resolved to a label.
type MissingLabelError struct {
	Title  string
	Folder string
}

func (e *MissingLabelError) Error() string {
	return fmt.Sprintf("no label resolved for folder %q of item %q", e.Folder, e.Title)
}
