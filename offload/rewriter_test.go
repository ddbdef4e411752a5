package offload

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/richinex/webpilot/internal/jsonpath"
)

func TestRewriteReplacesSuccessfulUploads(t *testing.T) {
	structure := decode(t, `{"output": {"screenshot": "data:image/png;base64,AAAA", "title": "Example"}}`)

	results := []UploadResult{{
		Path:     jsonpath.Path{jsonpath.Key("output"), jsonpath.Key("screenshot")},
		URL:      "https://blob.test/uploads/abc/file.png",
		MIMEType: "image/png",
		Expiry:   time.Now().Add(time.Hour),
	}}

	rewritten, err := Rewrite(structure, results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := json.Marshal(rewritten)
	want := `{"output":{"screenshot":"https://blob.test/uploads/abc/file.png","title":"Example"}}`
	if string(got) != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestRewriteLeavesFailuresInline(t *testing.T) {
	raw := `{"output":{"screenshot":"data:image/png;base64,AAAA"}}`
	structure := decode(t, raw)

	results := []UploadResult{{
		Path: jsonpath.Path{jsonpath.Key("output"), jsonpath.Key("screenshot")},
		Err:  fmt.Errorf("auth failure"),
	}}

	rewritten, err := Rewrite(structure, results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := json.Marshal(rewritten)
	if string(got) != raw {
		t.Errorf("fail-open violated:\nwant %s\ngot  %s", raw, got)
	}
}

func TestRewriteDoesNotMutateInput(t *testing.T) {
	raw := `{"output":{"screenshot":"data:image/png;base64,AAAA"}}`
	structure := decode(t, raw)

	results := []UploadResult{{
		Path: jsonpath.Path{jsonpath.Key("output"), jsonpath.Key("screenshot")},
		URL:  "https://blob.test/x.png",
	}}
	if _, err := Rewrite(structure, results); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after, _ := json.Marshal(structure)
	if string(after) != raw {
		t.Errorf("input was mutated: %s", after)
	}
}

func TestRewritePreservesSiblingsAndOrdering(t *testing.T) {
	structure := decode(t, `{"items": ["a", "data:image/png;base64,AAAA", "c"], "n": 7}`)

	results := []UploadResult{{
		Path: jsonpath.Path{jsonpath.Key("items"), jsonpath.Index(1)},
		URL:  "https://blob.test/file.png",
	}}
	rewritten, err := Rewrite(structure, results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := json.Marshal(rewritten)
	want := `{"items":["a","https://blob.test/file.png","c"],"n":7}`
	if string(got) != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestRewriteDistinguishesDottedKeys(t *testing.T) {
	// A payload under a flat key containing a dot must not clobber the
	// nested field the same characters would spell out.
	structure := decode(t, `{"a": {"b": "keep-me"}, "a.b": "data:image/png;base64,AAAA"}`)

	found := Scan(structure)
	if len(found) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(found))
	}

	results := []UploadResult{{
		Path: found[0].Path,
		URL:  "https://blob.test/uploads/u/file.png",
	}}
	rewritten, err := Rewrite(structure, results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := rewritten.(map[string]any)
	if nested := m["a"].(map[string]any)["b"]; nested != "keep-me" {
		t.Errorf("non-payload sibling overwritten: %v", nested)
	}
	if flat := m["a.b"]; flat != "https://blob.test/uploads/u/file.png" {
		t.Errorf("payload left inline: %v", flat)
	}
}

func TestRewriteRootPayload(t *testing.T) {
	rewritten, err := Rewrite("data:image/png;base64,AAAA", []UploadResult{{
		Path: nil,
		URL:  "https://blob.test/uploads/u/file.png",
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rewritten != "https://blob.test/uploads/u/file.png" {
		t.Errorf("root payload not replaced: %v", rewritten)
	}
}

func TestRewriteNoResultsIsIdentity(t *testing.T) {
	structure := decode(t, `{"a": 1}`)
	rewritten, err := Rewrite(structure, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// With nothing to rewrite the same value comes back untouched.
	got, _ := json.Marshal(rewritten)
	want, _ := json.Marshal(structure)
	if string(got) != string(want) {
		t.Errorf("identity violated: %s vs %s", want, got)
	}
}
