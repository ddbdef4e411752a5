package jsonpath

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

func TestGetNested(t *testing.T) {
	root := decode(t, `{"output": {"screenshot": "abc", "pages": [1, 2, 3]}}`)

	val, err := Get(root, Path{Key("output"), Key("screenshot")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "abc" {
		t.Errorf("expected 'abc', got %v", val)
	}

	val, err = Get(root, Path{Key("output"), Key("pages"), Index(1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != float64(2) {
		t.Errorf("expected 2, got %v", val)
	}
}

func TestGetRoot(t *testing.T) {
	root := decode(t, `"bare leaf"`)
	val, err := Get(root, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "bare leaf" {
		t.Errorf("empty path must return the root, got %v", val)
	}
}

func TestGetMissingField(t *testing.T) {
	root := decode(t, `{"a": 1}`)
	if _, err := Get(root, Path{Key("b")}); err == nil {
		t.Fatal("expected error for missing field")
	}
}

func TestGetIndexOutOfRange(t *testing.T) {
	root := decode(t, `{"items": [1]}`)
	if _, err := Get(root, Path{Key("items"), Index(5)}); err == nil {
		t.Fatal("expected error for out-of-range index")
	}
}

func TestGetStepKindMismatch(t *testing.T) {
	root := decode(t, `{"items": [1], "obj": {"a": 1}}`)
	if _, err := Get(root, Path{Key("items"), Key("a")}); err == nil {
		t.Fatal("expected error for key step into array")
	}
	if _, err := Get(root, Path{Key("obj"), Index(0)}); err == nil {
		t.Fatal("expected error for index step into object")
	}
}

func TestSetObjectField(t *testing.T) {
	root := decode(t, `{"output": {"screenshot": "data"}}`)
	path := Path{Key("output"), Key("screenshot")}
	if err := Set(root, path, "https://example.com/x.png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	val, _ := Get(root, path)
	if val != "https://example.com/x.png" {
		t.Errorf("set did not stick, got %v", val)
	}
}

func TestSetArrayElement(t *testing.T) {
	root := decode(t, `{"items": ["a", "b"]}`)
	path := Path{Key("items"), Index(1)}
	if err := Set(root, path, "c"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	val, _ := Get(root, path)
	if val != "c" {
		t.Errorf("expected 'c', got %v", val)
	}
}

func TestSetNeverCreates(t *testing.T) {
	root := decode(t, `{"a": {}}`)
	if err := Set(root, Path{Key("a"), Key("b")}, 1); err == nil {
		t.Fatal("expected error setting a missing field")
	}
}

func TestSetRejectsRoot(t *testing.T) {
	root := decode(t, `{"a": 1}`)
	if err := Set(root, nil, "x"); err == nil {
		t.Fatal("expected error setting the root in place")
	}
}

func TestKeysWithDotsAreDistinct(t *testing.T) {
	// A flat key containing a dot must never collide with the nested
	// field the same characters would spell out.
	root := decode(t, `{"a": {"b": "keep-me"}, "a.b": "payload"}`)

	val, err := Get(root, Path{Key("a.b")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "payload" {
		t.Errorf("flat key misread: %v", val)
	}

	if err := Set(root, Path{Key("a.b")}, "https://blob.test/file.png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nested, _ := Get(root, Path{Key("a"), Key("b")})
	if nested != "keep-me" {
		t.Errorf("nested sibling overwritten: %v", nested)
	}
	flat, _ := Get(root, Path{Key("a.b")})
	if flat != "https://blob.test/file.png" {
		t.Errorf("flat key not overwritten: %v", flat)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	root := decode(t, `{"a": {"b": [1, 2]}}`)
	clone, err := Clone(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := Set(clone, Path{Key("a"), Key("b"), Index(0)}, 99); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	orig, _ := Get(root, Path{Key("a"), Key("b"), Index(0)})
	if orig != float64(1) {
		t.Errorf("clone mutation leaked into original: %v", orig)
	}
}

func TestChildDoesNotAliasSiblings(t *testing.T) {
	parent := Path{Key("output")}
	first := parent.Child(Key("screenshot"))
	second := parent.Child(Index(2))

	if first.String() != "output.screenshot" {
		t.Errorf("first child: %q", first)
	}
	if second.String() != "output.2" {
		t.Errorf("second child corrupted by sibling: %q", second)
	}
}

func TestPathString(t *testing.T) {
	if got := (Path{}).String(); got != "(root)" {
		t.Errorf("root rendering: %q", got)
	}
	p := Path{Key("pages"), Index(2), Key("thumbnail")}
	if got := p.String(); got != "pages.2.thumbnail" {
		t.Errorf("rendering: %q", got)
	}
}
