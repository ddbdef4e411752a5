package offload

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return v
}

func TestScanFindsNestedPayload(t *testing.T) {
	structure := decode(t, `{"output": {"screenshot": "data:image/png;base64,AAAA", "title": "Example"}}`)

	found := Scan(structure)
	if len(found) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(found))
	}

	desc := found[0]
	if desc.Path.String() != "output.screenshot" {
		t.Errorf("expected path 'output.screenshot', got %q", desc.Path)
	}
	if desc.MIMEType != "image/png" {
		t.Errorf("expected image/png, got %q", desc.MIMEType)
	}
	if len(desc.Data) != 3 {
		t.Errorf("expected 3 decoded bytes, got %d", len(desc.Data))
	}
	if desc.Filename != "file.png" {
		t.Errorf("expected file.png, got %q", desc.Filename)
	}
}

func TestScanFindsPayloadsInArrays(t *testing.T) {
	structure := decode(t, `{"pages": [
		{"thumb": "data:image/jpeg;base64,AAAA"},
		{"thumb": "plain text"},
		{"thumb": "data:application/pdf;base64,AAAA"}
	]}`)

	found := Scan(structure)
	if len(found) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(found))
	}

	paths := map[string]bool{}
	for _, d := range found {
		paths[d.Path.String()] = true
	}
	if !paths["pages.0.thumb"] || !paths["pages.2.thumb"] {
		t.Errorf("unexpected paths: %v", paths)
	}
}

func TestScanBareStringPayload(t *testing.T) {
	// A tool result may be a single data URI rather than an object.
	found := Scan("data:image/png;base64,AAAA")
	if len(found) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(found))
	}
	if !found[0].Path.IsRoot() {
		t.Errorf("bare payload must scan to the root path, got %q", found[0].Path)
	}
}

func TestScanNoPayloadsReturnsEmpty(t *testing.T) {
	structure := decode(t, `{"text": "hello", "count": 3, "ok": true, "none": null}`)
	if found := Scan(structure); len(found) != 0 {
		t.Errorf("expected no descriptors, got %d", len(found))
	}
}

func TestScanSmallPayloadsQualify(t *testing.T) {
	// Offloading is about token economy: even a tiny payload qualifies.
	structure := decode(t, `{"x": "data:image/png;base64,AA==" }`)
	if found := Scan(structure); len(found) != 1 {
		t.Errorf("expected tiny payload to qualify, got %d descriptors", len(found))
	}
}

func TestScanIgnoresUndecodablePayload(t *testing.T) {
	structure := decode(t, `{"x": "data:image/png;base64,!!!not-base64!!!"}`)
	if found := Scan(structure); len(found) != 0 {
		t.Errorf("expected undecodable payload to be skipped, got %d", len(found))
	}
}

func TestScanDoesNotMutateInput(t *testing.T) {
	raw := `{"output":{"screenshot":"data:image/png;base64,AAAA"}}`
	structure := decode(t, raw)

	Scan(structure)

	after, err := json.Marshal(structure)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var want, got any
	_ = json.Unmarshal([]byte(raw), &want)
	_ = json.Unmarshal(after, &got)
	wantJSON, _ := json.Marshal(want)
	if string(after) != string(wantJSON) {
		t.Errorf("scan mutated input:\nbefore: %s\nafter:  %s", wantJSON, got)
	}
}

func TestScanBoundsRecursionDepth(t *testing.T) {
	// Build nesting deeper than the scan bound with a payload at the bottom.
	leaf := any("data:image/png;base64,AAAA")
	node := leaf
	for i := 0; i < maxScanDepth+10; i++ {
		node = map[string]any{"child": node}
	}

	// Must terminate and fail closed: the too-deep payload is not found.
	if found := Scan(node); len(found) != 0 {
		t.Errorf("expected overdeep payload to be skipped, got %d", len(found))
	}
}

func TestFilenameForUnknownMIME(t *testing.T) {
	if got := filenameFor("application/x-custom"); got != "file.bin" {
		t.Errorf("expected file.bin, got %q", got)
	}
}
