// Package offload moves inline binary payloads out of conversation and
// tool-call structures into object storage, replacing them with
// time-limited retrieval links.
//
// The pipeline is scan -> schedule -> rewrite:
//   - Scan walks a decoded JSON structure and finds inline payloads.
//   - Schedule uploads them with bounded concurrency.
//   - Rewrite replaces each uploaded payload with its retrieval URL on a
//     deep copy of the structure, leaving failed uploads inline.
package offload

import (
	"time"

	"github.com/richinex/webpilot/internal/jsonpath"
)

// PayloadDescriptor is a transient record of one inline payload found
// during a scan. It is consumed by the scheduler and discarded after
// rewriting; it is never persisted.
type PayloadDescriptor struct {
	// Path addresses the leaf within the scanned structure. An empty
	// path means the scanned value itself was the payload.
	Path     jsonpath.Path
	MIMEType string
	Data     []byte
	Filename string
}

// UploadResult correlates one descriptor's upload outcome back to its
// location. A failed result leaves the original inline payload in place.
type UploadResult struct {
	Path     jsonpath.Path
	URL      string
	MIMEType string
	Expiry   time.Time
	Err      error
}

// Succeeded reports whether the upload produced a retrieval URL.
func (r UploadResult) Succeeded() bool {
	return r.Err == nil
}
