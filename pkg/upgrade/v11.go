package upgrade

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/capiscio/badgecheck/pkg/graph"
)

// Layouts accepted for legacy dates, tried in order. Values already in
// RFC 3339 form are kept verbatim.
var legacyLayouts = []string{
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// NormalizeDateTime converts a Unix timestamp, an ISO 8601 string or a bare
// date into RFC 3339. Bare dates mean midnight UTC. changed is false when v
// was already canonical.
func NormalizeDateTime(v any) (normalized string, changed bool, err error) {
	switch val := v.(type) {
	case float64:
		return unix(int64(val)), true, nil
	case int:
		return unix(int64(val)), true, nil
	case int64:
		return unix(val), true, nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return "", false, fmt.Errorf("invalid timestamp %q: %w", val, err)
		}
		return unix(n), true, nil
	case string:
		s := strings.TrimSpace(val)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return unix(n), true, nil
		}
		if _, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return val, false, nil
		}
		for _, layout := range legacyLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC().Format(time.RFC3339), true, nil
			}
		}
		return "", false, fmt.Errorf("unrecognized date %q", val)
	}
	return "", false, fmt.Errorf("unsupported date value of type %T", v)
}

func unix(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

// DatePatch returns the issuedOn and expires values of node that need
// rewriting. Values that cannot be parsed are left for validation to report.
func DatePatch(node graph.Node) map[string]any {
	patch := map[string]any{}
	for _, prop := range []string{"issuedOn", "expires"} {
		v, ok := node.Get(prop)
		if !ok {
			continue
		}
		normalized, changed, err := NormalizeDateTime(v)
		if err != nil || !changed {
			continue
		}
		patch[prop] = normalized
	}
	return patch
}

var alignmentRenames = [][2]string{
	{"url", "targetUrl"},
	{"name", "targetName"},
	{"description", "targetDescription"},
}

// UpgradeAlignment renames the 1.x alignment fields of an alignment node to
// their 2.0 names when the new names are absent, dropping the old names. It
// returns the rewritten copy and whether anything changed.
func UpgradeAlignment(node graph.Node) (graph.Node, bool) {
	out := node.Clone()
	changed := false
	for _, r := range alignmentRenames {
		v, ok := node.Get(r[0])
		if !ok {
			continue
		}
		if _, exists := node.Get(r[1]); exists {
			continue
		}
		out[r[1]] = v
		delete(out, r[0])
		changed = true
	}
	return out, changed
}
