package importer

import (
	"context"
	"fmt"

	"github.com/mrlokans/ne2keep/internal/entities"
	"github.com/mrlokans/ne2keep/internal/keep"
)

// Label is a destination label handle.
type Label interface {
	Name() string
}

// Handle is a created destination note or list, modified before the next Sync.
type Handle interface {
	SetColor(c entities.Color)
	SetPinned(pinned bool)
	AddLabel(l Label) error
}

// Destination is the note service items are imported into.
//
// Implementations:
//   - KeepDestination (Google Keep)
type Destination interface {
	FindLabel(name string) (Label, bool)
	CreateLabel(name string) (Label, error)
	CreateNote(title, body string) Handle
	CreateList(title string, entries []entities.ListEntry) Handle
	Sync(ctx context.Context) error
}

// KeepDestination adapts an authenticated keep session to Destination.
type KeepDestination struct {
	keep *keep.Keep
}

var _ Destination = (*KeepDestination)(nil)

func NewKeepDestination(k *keep.Keep) *KeepDestination {
	return &KeepDestination{keep: k}
}

func (d *KeepDestination) FindLabel(name string) (Label, bool) {
	l := d.keep.FindLabel(name)
	if l == nil {
		return nil, false
	}
	return l, true
}

func (d *KeepDestination) CreateLabel(name string) (Label, error) {
	l, err := d.keep.CreateLabel(name)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (d *KeepDestination) CreateNote(title, body string) Handle {
	return keepHandle{node: d.keep.CreateNote(title, body)}
}

func (d *KeepDestination) CreateList(title string, entries []entities.ListEntry) Handle {
	return keepHandle{node: d.keep.CreateList(title, entries)}
}

func (d *KeepDestination) Sync(ctx context.Context) error {
	return d.keep.Sync(ctx)
}

type keepHandle struct {
	node *keep.Node
}

func (h keepHandle) SetColor(c entities.Color) { h.node.SetColor(c) }
func (h keepHandle) SetPinned(pinned bool)     { h.node.SetPinned(pinned) }

func (h keepHandle) AddLabel(l Label) error {
	kl, ok := l.(*keep.Label)
	if !ok {
		return fmt.Errorf("label %q does not belong to Google Keep", l.Name())
	}
	h.node.AddLabel(kl)
	return nil
}
