package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common errors returned by graph lookups.
var (
	ErrNotFound = errors.New("node or property not found")
	ErrType     = errors.New("path segment does not match value type")
)

// Path addresses a value inside a node: property names are strings, list
// positions are ints.
type Path []any

// String renders the path in dotted form, e.g. badge.alignment[0].targetUrl.
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		switch s := seg.(type) {
		case int:
			fmt.Fprintf(&b, "[%d]", s)
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			fmt.Fprintf(&b, "%v", s)
		}
	}
	return b.String()
}

// PathError records a failed lookup.
type PathError struct {
	ID   string
	Path Path
	Err  error
}

func (e *PathError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("%s: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("%s at %s: %v", e.ID, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Graph is an ordered, immutable collection of flattened nodes. Every
// mutating method returns a new Graph and leaves the receiver untouched.
// The blank-node sequence travels with the Graph value.
type Graph struct {
	nodes []Node
	blank int
}

// Len returns the number of stored nodes.
func (g Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns the stored nodes in insertion order. Callers must not
// modify the returned nodes.
func (g Graph) Nodes() []Node {
	return append([]Node(nil), g.nodes...)
}

// MarshalJSON encodes the graph as a list of nodes.
func (g Graph) MarshalJSON() ([]byte, error) {
	if g.nodes == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(g.nodes)
}

// NextBlankID returns the blank-node id the next generated node will use.
func (g Graph) NextBlankID() string {
	return fmt.Sprintf("%s%d", BlankPrefix, g.blank)
}

// Has reports whether a node with id is stored.
func (g Graph) Has(id string) bool {
	return g.index(id) >= 0
}

// NodeByID returns the first node stored under id.
func (g Graph) NodeByID(id string) (Node, error) {
	i := g.index(id)
	if i < 0 {
		return nil, &PathError{ID: id, Err: ErrNotFound}
	}
	return g.nodes[i], nil
}

// NodesByID returns every node stored under id, oldest first.
func (g Graph) NodesByID(id string) []Node {
	var out []Node
	for _, n := range g.nodes {
		if n.ID() == id {
			out = append(out, n)
		}
	}
	return out
}

// ValueByPath walks path starting at node id. String segments descend into
// node properties, following id references into other stored nodes; int
// segments index into lists.
func (g Graph) ValueByPath(id string, path ...any) (any, error) {
	root, err := g.NodeByID(id)
	if err != nil {
		return nil, err
	}
	var cur any = root
	for i, seg := range path {
		switch s := seg.(type) {
		case string:
			n, ok := g.resolve(cur)
			if !ok {
				return nil, &PathError{ID: id, Path: Path(path[:i+1]), Err: ErrType}
			}
			v, ok := n.Get(s)
			if !ok {
				return nil, &PathError{ID: id, Path: Path(path[:i+1]), Err: ErrNotFound}
			}
			cur = v
		case int:
			list, ok := cur.([]any)
			if !ok {
				return nil, &PathError{ID: id, Path: Path(path[:i+1]), Err: ErrType}
			}
			if s < 0 || s >= len(list) {
				return nil, &PathError{ID: id, Path: Path(path[:i+1]), Err: ErrNotFound}
			}
			cur = list[s]
		default:
			return nil, &PathError{ID: id, Path: Path(path[:i+1]), Err: ErrType}
		}
	}
	return cur, nil
}

// NodeByPath is ValueByPath for paths that end at a node, either an id
// reference or an embedded object.
func (g Graph) NodeByPath(id string, path ...any) (Node, error) {
	v, err := g.ValueByPath(id, path...)
	if err != nil {
		return nil, err
	}
	n, ok := g.resolve(v)
	if !ok {
		if _, isString := v.(string); isString {
			return nil, &PathError{ID: id, Path: Path(path), Err: ErrNotFound}
		}
		return nil, &PathError{ID: id, Path: Path(path), Err: ErrType}
	}
	return n, nil
}

// Add flattens data into the graph. Nested objects become nodes of their
// own, keeping a declared id or receiving a blank-node id, and the parent
// property is rewritten to the child id. The primary node is returned first.
// An empty id falls back to data["id"], then to a blank-node id.
func (g Graph) Add(id string, data map[string]any) (Graph, []Node) {
	out := g.clone()
	if id != "" && id == g.NextBlankID() {
		out.blank++
	}
	var added []Node
	out.flatten(id, data, &added)
	out.nodes = append(out.nodes, added...)
	return out, added
}

// Patch shallow-merges partial into the node stored under id. Keys absent
// from partial are kept. Patching an unknown id is a no-op.
func (g Graph) Patch(id string, partial map[string]any) Graph {
	i := g.index(id)
	if i < 0 {
		return g
	}
	out := g.clone()
	n := out.nodes[i].Clone()
	for k, v := range partial {
		if k == "id" {
			continue
		}
		n[k] = cloneValue(v)
	}
	out.nodes[i] = n
	return out
}

// Replace swaps the node stored under id for data, keeping the id.
// Replacing an unknown id is a no-op.
func (g Graph) Replace(id string, data map[string]any) Graph {
	i := g.index(id)
	if i < 0 {
		return g
	}
	out := g.clone()
	n := Node(cloneValue(data).(map[string]any))
	n["id"] = id
	out.nodes[i] = n
	return out
}

// RepairReference rewrites the reference found at path to newID. The first
// path element is the id of the node holding the reference; the remaining
// elements are a property name and optional list index.
func (g Graph) RepairReference(path Path, newID string) (Graph, error) {
	if len(path) < 2 {
		return g, fmt.Errorf("reference path %s is too short", path)
	}
	id, ok := path[0].(string)
	if !ok {
		return g, &PathError{Path: path, Err: ErrType}
	}
	prop, ok := path[1].(string)
	if !ok {
		return g, &PathError{ID: id, Path: path[1:], Err: ErrType}
	}
	i := g.index(id)
	if i < 0 {
		return g, &PathError{ID: id, Err: ErrNotFound}
	}
	n := g.nodes[i].Clone()
	switch len(path) {
	case 2:
		if _, ok := n[prop]; !ok {
			return g, &PathError{ID: id, Path: path[1:], Err: ErrNotFound}
		}
		n[prop] = newID
	case 3:
		idx, ok := path[2].(int)
		list, isList := n[prop].([]any)
		if !ok || !isList {
			return g, &PathError{ID: id, Path: path[1:], Err: ErrType}
		}
		if idx < 0 || idx >= len(list) {
			return g, &PathError{ID: id, Path: path[1:], Err: ErrNotFound}
		}
		list[idx] = newID
	default:
		return g, fmt.Errorf("reference path %s is too deep", path)
	}
	out := g.clone()
	out.nodes[i] = n
	return out, nil
}

func (g Graph) index(id string) int {
	for i, n := range g.nodes {
		if n.ID() == id {
			return i
		}
	}
	return -1
}

func (g Graph) clone() Graph {
	return Graph{nodes: append([]Node(nil), g.nodes...), blank: g.blank}
}

func (g Graph) resolve(v any) (Node, bool) {
	switch val := v.(type) {
	case Node:
		return val, true
	case map[string]any:
		return Node(val), true
	case string:
		n, err := g.NodeByID(val)
		return n, err == nil
	}
	return nil, false
}

func (g *Graph) nextBlank() string {
	id := g.NextBlankID()
	g.blank++
	return id
}

// flatten appends the node for data and, after it, the nodes of every
// nested object in depth-first order with properties visited sorted.
func (g *Graph) flatten(id string, data map[string]any, added *[]Node) string {
	if id == "" {
		id, _ = data["id"].(string)
	}
	if id == "" {
		id = g.nextBlank()
	}
	n := Node{"id": id}
	*added = append(*added, n)

	keys := make([]string, 0, len(data))
	for k := range data {
		if k == "id" || strings.HasPrefix(k, "@") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n[k] = g.flattenValue(data[k], added)
	}
	return id
}

func (g *Graph) flattenValue(v any, added *[]Node) any {
	switch val := v.(type) {
	case map[string]any:
		if ref, ok := val["id"].(string); ok && len(val) == 1 {
			return ref
		}
		return g.flatten("", val, added)
	case Node:
		return g.flattenValue(map[string]any(val), added)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = g.flattenValue(item, added)
		}
		return out
	}
	return v
}
