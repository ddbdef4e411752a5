// Package jsonpath addresses leaves inside decoded JSON values.
//
// A Path is a sequence of steps, each either an object key or an array
// index. Paths are produced while walking a structure and later used to
// overwrite the exact leaf during rewriting. Keys are matched literally,
// so a key that happens to contain "." or a digit sequence is never
// confused with a nested path or an array index.
package jsonpath

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Step is one level of a path: an object key or an array index.
type Step struct {
	key     string
	index   int
	isIndex bool
}

// Key creates an object-key step.
func Key(k string) Step { return Step{key: k} }

// Index creates an array-index step.
func Index(i int) Step { return Step{index: i, isIndex: true} }

func (s Step) String() string {
	if s.isIndex {
		return strconv.Itoa(s.index)
	}
	return s.key
}

// Path addresses a leaf inside a decoded JSON value. The empty path
// addresses the root value itself.
type Path []Step

// IsRoot reports whether the path addresses the root value.
func (p Path) IsRoot() bool { return len(p) == 0 }

// Child returns a new path extended by one step. The result never shares
// a backing array with the receiver, so sibling paths derived from the
// same parent stay independent.
func (p Path) Child(s Step) Path {
	child := make(Path, len(p)+1)
	copy(child, p)
	child[len(p)] = s
	return child
}

// String renders the path dotted for logs and error messages. The
// rendering is display-only; addressing always goes through the
// structured steps.
func (p Path) String() string {
	if len(p) == 0 {
		return "(root)"
	}
	segs := make([]string, len(p))
	for i, s := range p {
		segs[i] = s.String()
	}
	return strings.Join(segs, ".")
}

// Get returns the value at path within root, which must be a decoded JSON
// value (map[string]any, []any, or a leaf).
func Get(root any, path Path) (any, error) {
	current := root
	for _, step := range path {
		switch node := current.(type) {
		case map[string]any:
			if step.isIndex {
				return nil, fmt.Errorf("index %d into object in path %q", step.index, path)
			}
			val, ok := node[step.key]
			if !ok {
				return nil, fmt.Errorf("no field %q in path %q", step.key, path)
			}
			current = val
		case []any:
			if !step.isIndex {
				return nil, fmt.Errorf("key %q into array in path %q", step.key, path)
			}
			if step.index < 0 || step.index >= len(node) {
				return nil, fmt.Errorf("index %d out of range in path %q", step.index, path)
			}
			current = node[step.index]
		default:
			return nil, fmt.Errorf("cannot descend into leaf at %q in path %q", step, path)
		}
	}
	return current, nil
}

// Set overwrites the value at path within root. The containers along the
// path must already exist; Set never creates intermediate nodes. The root
// itself cannot be replaced in place, so the empty path is rejected.
func Set(root any, path Path, value any) error {
	if path.IsRoot() {
		return fmt.Errorf("cannot set the root value")
	}

	parent, err := Get(root, path[:len(path)-1])
	if err != nil {
		return err
	}
	last := path[len(path)-1]

	switch node := parent.(type) {
	case map[string]any:
		if last.isIndex {
			return fmt.Errorf("index %d into object in path %q", last.index, path)
		}
		if _, ok := node[last.key]; !ok {
			return fmt.Errorf("no field %q in path %q", last.key, path)
		}
		node[last.key] = value
		return nil
	case []any:
		if !last.isIndex {
			return fmt.Errorf("key %q into array in path %q", last.key, path)
		}
		if last.index < 0 || last.index >= len(node) {
			return fmt.Errorf("index %d out of range in path %q", last.index, path)
		}
		node[last.index] = value
		return nil
	default:
		return fmt.Errorf("parent of %q is a leaf", path)
	}
}

// Clone deep-copies a decoded JSON value via a marshal round trip.
func Clone(root any) (any, error) {
	data, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("clone marshal: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("clone unmarshal: %w", err)
	}
	return out, nil
}
