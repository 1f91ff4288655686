package importer

import (
	"context"
	"io"
	"log"

	"github.com/mrlokans/ne2keep/internal/converter"
	"github.com/mrlokans/ne2keep/internal/entities"
)

// RunResult summarizes a pipeline run.
type RunResult struct {
	Folders       int
	LabelsCreated int
	LabelsReused  int
	ItemsTotal    int
	Imported      Result
}

// Pipeline runs the import workflow:
// partition → resolve labels → import items.
type Pipeline struct {
	dest   Destination
	out    io.Writer
	logger *log.Logger
}

// NewPipeline creates a pipeline. Progress is written to out and
// diagnostics to logger; a nil logger uses the standard logger.
func NewPipeline(dest Destination, out io.Writer, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{dest: dest, out: out, logger: logger}
}

// Run imports items. Labels are fully resolved before the first item is
// created. On error the returned RunResult covers the work done so far.
func (p *Pipeline) Run(ctx context.Context, items []entities.Item) (RunResult, error) {
	plan := converter.Partition(items)

	result := RunResult{
		Folders:    len(plan.Folders),
		ItemsTotal: len(plan.Items),
	}
	for _, name := range plan.Implicit {
		p.logger.Printf("Folder %q has no definition, creating label without color", name)
	}

	resolver := NewLabelResolver(p.dest, p.out)
	labels, err := resolver.Resolve(ctx, plan.Folders)
	result.LabelsCreated = resolver.Created()
	result.LabelsReused = resolver.Reused()
	if err != nil {
		return result, err
	}

	imported, err := NewImporter(p.dest, p.out).Import(ctx, plan.Items, labels)
	result.Imported = imported
	return result, err
}
