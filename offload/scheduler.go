// Bounded concurrent upload scheduler.
//
// Descriptors are uploaded in batches of a fixed maximum width. All
// uploads within a batch run concurrently and the whole batch settles
// before the next one starts, which bounds peak in-flight connections
// without serializing everything.

package offload

import (
	"context"
	"sync"

	"github.com/richinex/webpilot/storage"
)

// Concurrency widths. Conversation payloads stay narrow to keep a chat
// session's outbound connections bounded; bulk administrative uploads
// can go wider.
const (
	ConversationWidth = 3
	BulkWidth         = 10
)

// Scheduler uploads scanned payloads with bounded concurrency.
type Scheduler struct {
	uploader storage.Uploader
	width    int
}

// NewScheduler creates a scheduler with the given concurrency width.
// A non-positive width falls back to ConversationWidth.
func NewScheduler(uploader storage.Uploader, width int) *Scheduler {
	if width <= 0 {
		width = ConversationWidth
	}
	return &Scheduler{uploader: uploader, width: width}
}

// Width returns the configured concurrency bound.
func (s *Scheduler) Width() int {
	return s.width
}

// Schedule uploads every descriptor and returns exactly one result per
// input, correlated by path. An empty path is valid and addresses the
// scanned root. Individual failures are isolated into their result and
// never abort the batch; the error return is reserved for a total
// inability to schedule.
func (s *Scheduler) Schedule(ctx context.Context, descriptors []PayloadDescriptor) ([]UploadResult, error) {
	results := make([]UploadResult, len(descriptors))

	for start := 0; start < len(descriptors); start += s.width {
		end := start + s.width
		if end > len(descriptors) {
			end = len(descriptors)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = s.uploadOne(ctx, descriptors[i])
			}(i)
		}
		wg.Wait()
	}

	return results, nil
}

func (s *Scheduler) uploadOne(ctx context.Context, desc PayloadDescriptor) UploadResult {
	obj, err := s.uploader.Upload(ctx, desc.Data, desc.MIMEType, desc.Filename)
	if err != nil {
		return UploadResult{Path: desc.Path, MIMEType: desc.MIMEType, Err: err}
	}
	return UploadResult{
		Path:     desc.Path,
		URL:      obj.URL,
		MIMEType: obj.MIMEType,
		Expiry:   obj.Expiry,
	}
}
