// Package revocation reads issuer-published revocation lists.
package revocation

import "github.com/capiscio/badgecheck/pkg/graph"

// Entry is one revoked assertion.
type Entry struct {
	// ID is the revoked assertion id.
	ID string
	// Reason is the optional revocation reason.
	Reason string
}

// ParseEntries reads the revokedAssertions value of a revocation list. Each
// member is either a bare assertion id or an object with an id and an
// optional revocationReason. Compaction collapses single-member lists, so a
// lone string or object is accepted too.
func ParseEntries(v any) []Entry {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		var out []Entry
		for _, item := range val {
			out = append(out, ParseEntries(item)...)
		}
		return out
	case string:
		if val == "" {
			return nil
		}
		return []Entry{{ID: val}}
	case map[string]any:
		return entryFromMap(val)
	case graph.Node:
		return entryFromMap(val)
	}
	return nil
}

func entryFromMap(m map[string]any) []Entry {
	id, _ := m["id"].(string)
	if id == "" {
		id, _ = m["uid"].(string)
	}
	if id == "" {
		return nil
	}
	reason, _ := m["revocationReason"].(string)
	return []Entry{{ID: id, Reason: reason}}
}

// Find returns the entry revoking assertionID.
func Find(entries []Entry, assertionID string) (Entry, bool) {
	for _, e := range entries {
		if e.ID == assertionID {
			return e, true
		}
	}
	return Entry{}, false
}

// FillReasons completes entries that only carry an id with the reason held
// by a stored node of that id. Flattening moves entry objects out of the
// list into nodes of their own.
func FillReasons(entries []Entry, g graph.Graph) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = e
		if e.Reason != "" {
			continue
		}
		for _, n := range g.NodesByID(e.ID) {
			if reason, ok := n.String("revocationReason"); ok && reason != "" {
				out[i].Reason = reason
				break
			}
		}
	}
	return out
}
