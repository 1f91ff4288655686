package importer

import (
	"context"
	"fmt"

	"github.com/mrlokans/ne2keep/internal/entities"
)

type mockLabel struct {
	name string
}

func (l *mockLabel) Name() string { return l.name }

type mockHandle struct {
	kind    string
	title   string
	body    string
	entries []entities.ListEntry
	color   entities.Color
	pinned  bool
	labels  []string
	synced  bool
}

func (h *mockHandle) SetColor(c entities.Color) { h.color = c }
func (h *mockHandle) SetPinned(pinned bool)     { h.pinned = pinned }

func (h *mockHandle) AddLabel(l Label) error {
	h.labels = append(h.labels, l.Name())
	return nil
}

type mockDestination struct {
	existing map[string]*mockLabel
	created  []string
	handles  []*mockHandle
	syncs    int

	// Fail the Nth Sync call (1-based); zero never fails
	failSyncAt int
	syncErr    error
	createErr  error
}

func newMockDestination(existing ...string) *mockDestination {
	d := &mockDestination{existing: make(map[string]*mockLabel)}
	for _, name := range existing {
		d.existing[name] = &mockLabel{name: name}
	}
	return d
}

func (d *mockDestination) FindLabel(name string) (Label, bool) {
	l, ok := d.existing[name]
	if !ok {
		return nil, false
	}
	return l, true
}

func (d *mockDestination) CreateLabel(name string) (Label, error) {
	if d.createErr != nil {
		return nil, d.createErr
	}
	if _, ok := d.existing[name]; ok {
		return nil, fmt.Errorf("label %q already exists", name)
	}
	l := &mockLabel{name: name}
	d.existing[name] = l
	d.created = append(d.created, name)
	return l, nil
}

func (d *mockDestination) CreateNote(title, body string) Handle {
	h := &mockHandle{kind: "note", title: title, body: body}
	d.handles = append(d.handles, h)
	return h
}

func (d *mockDestination) CreateList(title string, entries []entities.ListEntry) Handle {
	h := &mockHandle{kind: "list", title: title, entries: entries}
	d.handles = append(d.handles, h)
	return h
}

func (d *mockDestination) Sync(ctx context.Context) error {
	d.syncs++
	if d.failSyncAt != 0 && d.syncs == d.failSyncAt {
		return d.syncErr
	}
	for _, h := range d.handles {
		h.synced = true
	}
	return nil
}
