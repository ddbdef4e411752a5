// Offload pipeline: scan -> schedule -> rewrite as one operation.

package offload

import (
	"context"

	"github.com/richinex/webpilot/storage"
)

// Pipeline bundles the scanner, scheduler and rewriter behind a single
// call. One pipeline per concern (conversation vs. bulk) with its own
// concurrency width; widths are configuration, not hidden globals, so
// tests can exercise different bounds.
type Pipeline struct {
	scheduler *Scheduler
}

// NewPipeline creates a pipeline uploading through the given uploader
// with the given concurrency width.
func NewPipeline(uploader storage.Uploader, width int) *Pipeline {
	return &Pipeline{scheduler: NewScheduler(uploader, width)}
}

// Offload scans structure for inline payloads, uploads them, and returns
// the rewritten structure plus the per-payload results. When nothing
// needs offloading the input is returned unchanged and the result slice
// is empty.
func (p *Pipeline) Offload(ctx context.Context, structure any) (any, []UploadResult, error) {
	descriptors := Scan(structure)
	if len(descriptors) == 0 {
		return structure, nil, nil
	}

	results, err := p.scheduler.Schedule(ctx, descriptors)
	if err != nil {
		return nil, nil, err
	}

	rewritten, err := Rewrite(structure, results)
	if err != nil {
		return nil, nil, err
	}

	return rewritten, results, nil
}
