// Structure rewriter: applies upload results back onto a deep copy.

package offload

import (
	"fmt"
	"log"

	"github.com/richinex/webpilot/internal/jsonpath"
)

// Rewrite produces a new structure with every successful upload's inline
// payload replaced by its retrieval URL. The input is never mutated.
// Failed uploads leave the original inline value in place (fail-open),
// and all sibling fields and array ordering are preserved exactly.
func Rewrite(structure any, results []UploadResult) (any, error) {
	if len(results) == 0 {
		return structure, nil
	}

	rewritten, err := jsonpath.Clone(structure)
	if err != nil {
		return nil, fmt.Errorf("rewrite: %w", err)
	}

	for _, r := range results {
		if !r.Succeeded() {
			continue
		}
		// A bare data-URI input scans to the root path; its rewrite is
		// the URL itself.
		if r.Path.IsRoot() {
			rewritten = r.URL
			continue
		}
		if err := jsonpath.Set(rewritten, r.Path, r.URL); err != nil {
			// The path came from scanning this same structure, so a miss
			// here means the caller passed mismatched inputs. Leave the
			// inline payload alone rather than corrupting the structure.
			log.Printf("offload: cannot rewrite %q: %v", r.Path, err)
		}
	}

	return rewritten, nil
}
