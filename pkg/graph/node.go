// Package graph stores flattened linked-data nodes for a single verification run.
package graph

import (
	"sort"
	"strings"
)

// BlankPrefix marks generated node ids that have no external URI.
const BlankPrefix = "_:b"

// Node is a flattened linked-data node. After flattening every reference
// property holds a bare id string, never an embedded object.
type Node map[string]any

// ID returns the node id, or empty string when the node has none.
func (n Node) ID() string {
	id, _ := n["id"].(string)
	return id
}

// Get returns the raw value of prop.
func (n Node) Get(prop string) (any, bool) {
	v, ok := n[prop]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns prop as a string. Single-element lists are unwrapped.
func (n Node) String(prop string) (string, bool) {
	v, ok := n.Get(prop)
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case []any:
		if len(s) == 1 {
			str, ok := s[0].(string)
			return str, ok
		}
	}
	return "", false
}

// Strings returns prop as a list of strings, accepting a single string or a
// list. Non-string members are skipped.
func (n Node) Strings(prop string) []string {
	v, ok := n.Get(prop)
	if !ok {
		return nil
	}
	return AsStrings(v)
}

// Types returns the declared rdf types of the node.
func (n Node) Types() []string {
	return n.Strings("type")
}

// HasType reports whether the node declares t among its types.
func (n Node) HasType(t string) bool {
	for _, typ := range n.Types() {
		if typ == t {
			return true
		}
	}
	return false
}

// IsBlank reports whether the node id is a generated blank-node id.
func (n Node) IsBlank() bool {
	return IsBlankID(n.ID())
}

// Keys returns the node property names in sorted order.
func (n Node) Keys() []string {
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy of the node that shares no lists or maps with n.
func (n Node) Clone() Node {
	if n == nil {
		return nil
	}
	out := make(Node, len(n))
	for k, v := range n {
		out[k] = cloneValue(v)
	}
	return out
}

// IsBlankID reports whether id was generated by a Graph.
func IsBlankID(id string) bool {
	return strings.HasPrefix(id, BlankPrefix)
}

// AsStrings converts a string or list value to a string slice.
func AsStrings(v any) []string {
	switch s := v.(type) {
	case string:
		return []string{s}
	case []string:
		return append([]string(nil), s...)
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case Node:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	}
	return v
}
