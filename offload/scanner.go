// Payload scanner: locates inline binary payloads in decoded JSON.

package offload

import (
	"encoding/base64"
	"log"
	"regexp"
	"strings"

	"github.com/richinex/webpilot/internal/jsonpath"
)

// maxScanDepth bounds recursion. Conversation and tool JSON is acyclic,
// but a cyclic or pathological input must not loop forever; subtrees
// beyond the bound are treated as non-payload and skipped.
const maxScanDepth = 64

// dataURIPattern matches self-describing inline payloads of the form
// data:<mime>;base64,<payload>. Any size qualifies: offloading is about
// token economy, not just large blobs.
var dataURIPattern = regexp.MustCompile(`^data:([a-zA-Z0-9][\w.+-]*/[\w.+-]+);base64,(.+)$`)

// Scan walks structure (a decoded JSON value) and returns a descriptor
// for every inline payload found. Scanning is read-only; the input is
// never mutated. Non-payload leaves are not reported.
func Scan(structure any) []PayloadDescriptor {
	var found []PayloadDescriptor
	walk(structure, nil, 0, &found)
	return found
}

func walk(node any, path jsonpath.Path, depth int, found *[]PayloadDescriptor) {
	if depth > maxScanDepth {
		log.Printf("offload: recursion bound exceeded at %q, skipping subtree", path)
		return
	}

	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			walk(child, path.Child(jsonpath.Key(key)), depth+1, found)
		}
	case []any:
		for i, child := range v {
			walk(child, path.Child(jsonpath.Index(i)), depth+1, found)
		}
	case string:
		if desc, ok := parseInlinePayload(v, path); ok {
			*found = append(*found, desc)
		}
	}
	// Numbers, booleans and nulls are never payloads.
}

// parseInlinePayload decodes a data-URI leaf into a descriptor. Strings
// that look like payloads but fail to decode are treated as plain text.
func parseInlinePayload(value string, path jsonpath.Path) (PayloadDescriptor, bool) {
	match := dataURIPattern.FindStringSubmatch(value)
	if match == nil {
		return PayloadDescriptor{}, false
	}

	mimeType := match[1]
	data, err := base64.StdEncoding.DecodeString(match[2])
	if err != nil {
		log.Printf("offload: undecodable inline payload at %q, leaving as text", path)
		return PayloadDescriptor{}, false
	}

	return PayloadDescriptor{
		Path:     path,
		MIMEType: mimeType,
		Data:     data,
		Filename: filenameFor(mimeType),
	}, true
}

// extensions maps common payload MIME types to file extensions. Anything
// unrecognized gets a .bin suffix.
var extensions = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/svg+xml":   ".svg",
	"application/pdf": ".pdf",
	"audio/mpeg":      ".mp3",
	"audio/wav":       ".wav",
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"text/plain":      ".txt",
	"text/html":       ".html",
}

func filenameFor(mimeType string) string {
	ext, ok := extensions[strings.ToLower(mimeType)]
	if !ok {
		ext = ".bin"
	}
	return "file" + ext
}
