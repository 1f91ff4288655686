package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/mrlokans/ne2keep/internal/entities"
	"github.com/mrlokans/ne2keep/internal/progress"
)

// LabelResolver maps folder titles to destination labels, reusing existing
// labels and creating missing ones.
type LabelResolver struct {
	dest    Destination
	out     io.Writer
	labels  map[string]Label
	created int
	reused  int
}

func NewLabelResolver(dest Destination, out io.Writer) *LabelResolver {
	return &LabelResolver{
		dest:   dest,
		out:    out,
		labels: make(map[string]Label),
	}
}

// Resolve returns a label for every folder with a non-empty title. Each new
// label is synced before the next folder so later lookups can see it.
func (r *LabelResolver) Resolve(ctx context.Context, folders []entities.Folder) (map[string]Label, error) {
	bar := progress.New(r.out, len(folders))

	for _, f := range folders {
		if err := ctx.Err(); err != nil {
			return r.labels, err
		}

		if f.Title != "" {
			if err := r.resolve(ctx, f.Title); err != nil {
				return r.labels, err
			}
		}
		bar.Next("Processing labels")
	}

	return r.labels, nil
}

func (r *LabelResolver) resolve(ctx context.Context, title string) error {
	if _, ok := r.labels[title]; ok {
		return nil
	}

	if l, ok := r.dest.FindLabel(title); ok {
		r.labels[title] = l
		r.reused++
		return nil
	}

	l, err := r.dest.CreateLabel(title)
	if err != nil {
		return fmt.Errorf("failed to create label %q: %w", title, err)
	}
	if err := r.dest.Sync(ctx); err != nil {
		return fmt.Errorf("failed to sync label %q: %w", title, err)
	}

	r.labels[title] = l
	r.created++
	return nil
}

// Created is the number of labels created in the destination.
func (r *LabelResolver) Created() int { return r.created }

// Reused is the number of labels that already existed in the destination.
func (r *LabelResolver) Reused() int { return r.reused }
