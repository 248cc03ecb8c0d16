package core

import (
	"errors"
	"fmt"
	"strings"
)

// Tree is a nested string map built from dotted paths. Each value is either
// a string leaf or a child Tree.
type Tree map[string]any

// ConflictPolicy decides what Tree.Set does when a path needs a nested level
// where a leaf already sits, or writes a leaf over an existing nested level.
type ConflictPolicy int

const (
	// ConflictOverwrite replaces whatever is in the way (last write wins).
	ConflictOverwrite ConflictPolicy = iota
	// ConflictFail rejects the write with ErrPathConflict.
	ConflictFail
)

// ErrPathConflict is returned by Tree.Set under ConflictFail.
var ErrPathConflict = errors.New("path conflict")

// ParseConflictPolicy accepts "overwrite" or "fail" (case-insensitive).
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overwrite":
		return ConflictOverwrite, nil
	case "fail":
		return ConflictFail, nil
	default:
		return ConflictOverwrite, fmt.Errorf("unknown conflict policy %q", s)
	}
}

func (p ConflictPolicy) String() string {
	if p == ConflictFail {
		return "fail"
	}
	return "overwrite"
}

// Set writes value at path, creating intermediate levels as needed.
func (t Tree) Set(path []string, value string, policy ConflictPolicy) error {
	if len(path) == 0 {
		return errors.New("empty path")
	}

	node := t
	for i, seg := range path[:len(path)-1] {
		switch existing := node[seg].(type) {
		case Tree:
			node = existing
			continue
		case nil:
		default:
			if policy == ConflictFail {
				return fmt.Errorf("%w: %q holds a value and cannot hold nested fields",
					ErrPathConflict, strings.Join(path[:i+1], addressSeparator))
			}
		}
		child := Tree{}
		node[seg] = child
		node = child
	}

	leaf := path[len(path)-1]
	if _, isTree := node[leaf].(Tree); isTree && policy == ConflictFail {
		return fmt.Errorf("%w: %q holds nested fields and cannot hold a value",
			ErrPathConflict, strings.Join(path, addressSeparator))
	}
	node[leaf] = value
	return nil
}

// Leaf returns the string stored at path.
func (t Tree) Leaf(path ...string) (string, bool) {
	if len(path) == 0 {
		return "", false
	}
	node := t
	for _, seg := range path[:len(path)-1] {
		child, ok := node[seg].(Tree)
		if !ok {
			return "", false
		}
		node = child
	}
	v, ok := node[path[len(path)-1]].(string)
	return v, ok
}

// Depth returns the number of levels on the longest path; a flat tree of
// leaves has depth 1 and an empty tree depth 0.
func (t Tree) Depth() int {
	depth := 0
	for _, v := range t {
		d := 1
		if child, ok := v.(Tree); ok {
			d += child.Depth()
		}
		depth = max(depth, d)
	}
	return depth
}

// Map returns a deep copy as plain map[string]any values, never nil.
func (t Tree) Map() map[string]any {
	m := make(map[string]any, len(t))
	for k, v := range t {
		if child, ok := v.(Tree); ok {
			m[k] = child.Map()
			continue
		}
		m[k] = v
	}
	return m
}
