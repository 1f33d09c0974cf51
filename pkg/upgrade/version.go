// Package upgrade detects the Open Badges version of a document and lifts
// legacy documents toward the 2.0 shape.
package upgrade

import (
	"strings"

	"github.com/capiscio/badgecheck/pkg/jsonld"
)

// Open Badges versions.
const (
	Version05 = "0.5"
	Version10 = "1.0"
	Version11 = "1.1"
	Version20 = "2.0"
)

// Canonical context URLs.
const (
	ContextV1 = jsonld.ContextV1
	ContextV2 = jsonld.ContextV2
)

// DetectVersion infers the Open Badges version of a raw document from its
// @context and recipient shape.
func DetectVersion(doc map[string]any) string {
	ctx, present := doc["@context"]
	if s, ok := ctx.(string); ok {
		switch {
		case strings.Contains(s, "v1"):
			return Version11
		case strings.Contains(s, "v2"):
			return Version20
		}
	}
	if !present || ctx == nil {
		if _, ok := doc["recipient"].(string); ok {
			return Version05
		}
		return Version10
	}
	return Version20
}

// IsLegacy reports whether documents of version v still need the 1.1
// field upgrade after compaction.
func IsLegacy(v string) bool {
	return v == Version05 || v == Version10 || v == Version11
}
