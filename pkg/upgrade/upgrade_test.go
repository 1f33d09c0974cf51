package upgrade_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capiscio/badgecheck/pkg/graph"
	"github.com/capiscio/badgecheck/pkg/upgrade"
)

func TestDetectVersion(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
		want string
	}{
		{"v1 context", map[string]any{"@context": "https://w3id.org/openbadges/v1"}, "1.1"},
		{"v2 context", map[string]any{"@context": "https://w3id.org/openbadges/v2"}, "2.0"},
		{"no context string recipient", map[string]any{"recipient": "sha256$abc"}, "0.5"},
		{"no context object recipient", map[string]any{"recipient": map[string]any{"identity": "a"}}, "1.0"},
		{"no context no recipient", map[string]any{"name": "x"}, "1.0"},
		{"list context", map[string]any{"@context": []any{"https://example.org/ctx"}}, "2.0"},
		{"unrelated string context", map[string]any{"@context": "https://example.org/ctx"}, "2.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, upgrade.DetectVersion(tt.doc))
		})
	}
}

func TestFrom05(t *testing.T) {
	doc := map[string]any{
		"recipient": "sha256$c7ef86405ba71b85acd8e2e95166c4b111448089f2e1599f42fe1bba46e865c5",
		"salt":      "deadsea",
		"issued_on": "2011-06-01",
		"badge": map[string]any{
			"version": "0.5.0",
			"name":    "Badge",
			"issuer": map[string]any{
				"origin":  "https://example.org",
				"name":    "Example",
				"org":     "Widgets",
				"contact": "badges@example.org",
			},
		},
	}

	out, err := upgrade.From05(doc, "https://example.org/assertion.json")
	require.NoError(t, err)

	assert.Equal(t, upgrade.ContextV1, out["@context"])
	assert.Equal(t, "https://example.org/assertion.json", out["id"])
	assert.Equal(t, "Assertion", out["type"])
	assert.Equal(t, "2011-06-01", out["issuedOn"])
	assert.NotContains(t, out, "issued_on")
	assert.NotContains(t, out, "salt")

	recipient := out["recipient"].(map[string]any)
	assert.Equal(t, "email", recipient["type"])
	assert.Equal(t, true, recipient["hashed"])
	assert.Equal(t, "deadsea", recipient["salt"])

	verify := out["verify"].(map[string]any)
	assert.Equal(t, "HostedBadge", verify["type"])
	assert.Equal(t, "https://example.org/assertion.json", verify["url"])

	badge := out["badge"].(map[string]any)
	assert.Equal(t, "BadgeClass", badge["type"])
	issuer := badge["issuer"].(map[string]any)
	assert.Equal(t, "Issuer", issuer["type"])
	assert.Equal(t, "Example: Widgets", issuer["name"])
	assert.Equal(t, "badges@example.org", issuer["email"])
	assert.Equal(t, "https://example.org", issuer["url"])
	assert.NotContains(t, issuer, "origin")

	assert.Equal(t, "2011-06-01", doc["issued_on"], "input is not modified")
}

func TestFrom05_PlainEmailIsNotHashed(t *testing.T) {
	out, err := upgrade.From05(map[string]any{"recipient": "nobody@example.org"}, "")
	require.NoError(t, err)
	assert.Equal(t, false, out["recipient"].(map[string]any)["hashed"])
	assert.NotContains(t, out, "id")
}

func TestFrom10(t *testing.T) {
	t.Run("hosted assertion", func(t *testing.T) {
		out := upgrade.From10(map[string]any{
			"uid":       "abc",
			"recipient": map[string]any{"identity": "a@example.org"},
			"verify":    map[string]any{"type": "hosted", "url": "https://example.org/a"},
		})
		assert.Equal(t, "https://example.org/a", out["id"])
		assert.Equal(t, "Assertion", out["type"])
		assert.Equal(t, upgrade.ContextV1, out["@context"])
	})

	t.Run("signed assertion", func(t *testing.T) {
		out := upgrade.From10(map[string]any{
			"uid":       "abc",
			"recipient": map[string]any{"identity": "a@example.org"},
			"verify":    map[string]any{"type": "signed", "url": "https://example.org/key.pem"},
		})
		assert.Equal(t, "uid:abc", out["id"])
	})

	t.Run("badge class and issuer", func(t *testing.T) {
		assert.Equal(t, "BadgeClass", upgrade.From10(map[string]any{"criteria": "https://example.org/c", "url": "x"})["type"])
		assert.Equal(t, "Issuer", upgrade.From10(map[string]any{"url": "https://example.org"})["type"])
	})

	t.Run("declared values kept", func(t *testing.T) {
		out := upgrade.From10(map[string]any{"id": "urn:x", "type": "Issuer", "recipient": "r"})
		assert.Equal(t, "urn:x", out["id"])
		assert.Equal(t, "Issuer", out["type"])
	})
}

func TestNormalizeDateTime(t *testing.T) {
	tests := []struct {
		in      any
		want    string
		changed bool
	}{
		{float64(1400000000), "2014-05-13T16:53:20Z", true},
		{"1400000000", "2014-05-13T16:53:20Z", true},
		{"2016-12-31", "2016-12-31T00:00:00Z", true},
		{"2016-12-31T23:00:00", "2016-12-31T23:00:00Z", true},
		{"2016-12-31T23:00:00+0100", "2016-12-31T22:00:00Z", true},
		{"2016-12-31T23:00:00Z", "2016-12-31T23:00:00Z", false},
		{"2016-12-31T23:00:00+01:00", "2016-12-31T23:00:00+01:00", false},
	}
	for _, tt := range tests {
		got, changed, err := upgrade.NormalizeDateTime(tt.in)
		require.NoError(t, err, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
		assert.Equal(t, tt.changed, changed, "%v", tt.in)
	}

	_, _, err := upgrade.NormalizeDateTime("yesterday")
	assert.Error(t, err)
	_, _, err = upgrade.NormalizeDateTime(true)
	assert.Error(t, err)
}

func TestUpgrade11_CanonicalNodeIsNoOp(t *testing.T) {
	assertion := graph.Node{"id": "urn:a", "issuedOn": "2016-12-31T23:00:00Z", "expires": "2030-01-01T00:00:00Z"}
	alignment := graph.Node{"id": "_:b0", "targetUrl": "https://example.org", "targetName": "Std"}

	assert.Empty(t, upgrade.DatePatch(assertion))
	_, changed := upgrade.UpgradeAlignment(alignment)
	assert.False(t, changed)
}

func TestUpgrade11_Patches(t *testing.T) {
	assertion := graph.Node{"id": "urn:a", "issuedOn": float64(1400000000), "expires": "2030-01-01T00:00:00Z"}
	assert.Equal(t, map[string]any{"issuedOn": "2014-05-13T16:53:20Z"}, upgrade.DatePatch(assertion))

	alignment := graph.Node{"id": "_:b0", "url": "https://example.org", "name": "Std", "targetName": "Kept"}
	upgraded, changed := upgrade.UpgradeAlignment(alignment)
	require.True(t, changed)
	assert.Equal(t, graph.Node{"id": "_:b0", "targetUrl": "https://example.org", "name": "Std", "targetName": "Kept"}, upgraded)
	assert.Equal(t, "https://example.org", alignment["url"], "input node is not modified")
}
