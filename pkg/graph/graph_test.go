package graph_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capiscio/badgecheck/pkg/graph"
)

func TestAdd_FlatNodeIsUnchanged(t *testing.T) {
	data := map[string]any{
		"id":   "https://example.org/issuer",
		"type": "Issuer",
		"name": "Example",
	}

	g, added := graph.Graph{}.Add("", data)

	require.Len(t, added, 1)
	assert.Equal(t, 1, g.Len())
	if diff := cmp.Diff(graph.Node(data), added[0]); diff != "" {
		t.Errorf("flattened node mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "_:b0", g.NextBlankID(), "flat input must not consume blank ids")
}

func TestAdd_FlattensNestedObjects(t *testing.T) {
	data := map[string]any{
		"id":        "https://example.org/assertion",
		"recipient": map[string]any{"type": "email", "identity": "a@example.org"},
		"badge": map[string]any{
			"id":     "https://example.org/badge",
			"issuer": map[string]any{"id": "https://example.org/issuer"},
		},
		"evidence": []any{
			map[string]any{"narrative": "first"},
			"https://example.org/evidence/2",
		},
	}

	g, added := graph.Graph{}.Add("", data)

	require.Len(t, added, 4)
	assert.Equal(t, "https://example.org/assertion", added[0].ID(), "primary node comes first")

	root, err := g.NodeByID("https://example.org/assertion")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/badge", root["badge"])
	assert.Equal(t, []any{"_:b0", "https://example.org/evidence/2"}, root["evidence"])
	assert.Equal(t, "_:b1", root["recipient"])

	badge, err := g.NodeByID("https://example.org/badge")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/issuer", badge["issuer"], "id-only objects collapse to references")
	assert.False(t, g.Has("https://example.org/issuer"))

	assert.Equal(t, "_:b2", g.NextBlankID())
}

func TestAdd_BlankIDsAreMonotonic(t *testing.T) {
	g, first := graph.Graph{}.Add("", map[string]any{"name": "a"})
	g, second := g.Add("", map[string]any{"name": "b"})

	assert.Equal(t, "_:b0", first[0].ID())
	assert.Equal(t, "_:b1", second[0].ID())
	assert.Equal(t, 2, g.Len())
}

func TestAdd_ReservedBlankIDConsumesSequence(t *testing.T) {
	g := graph.Graph{}
	reserved := g.NextBlankID()

	g, added := g.Add(reserved, map[string]any{"name": "a"})
	require.Len(t, added, 1)
	assert.Equal(t, reserved, added[0].ID())
	assert.Equal(t, "_:b1", g.NextBlankID())
}

func TestAdd_LeavesReceiverUntouched(t *testing.T) {
	before, _ := graph.Graph{}.Add("", map[string]any{"id": "urn:a", "name": "a"})
	after, _ := before.Add("", map[string]any{"id": "urn:b"})

	assert.Equal(t, 1, before.Len())
	assert.Equal(t, 2, after.Len())
}

func TestValueByPath(t *testing.T) {
	g, _ := graph.Graph{}.Add("", map[string]any{
		"id": "urn:assertion",
		"badge": map[string]any{
			"id": "urn:badge",
			"alignment": []any{
				map[string]any{"targetUrl": "https://example.org/std"},
			},
		},
		"name": "plain",
	})

	t.Run("follows references and indexes", func(t *testing.T) {
		v, err := g.ValueByPath("urn:assertion", "badge", "alignment", 0, "targetUrl")
		require.NoError(t, err)
		assert.Equal(t, "https://example.org/std", v)
	})

	t.Run("missing property", func(t *testing.T) {
		_, err := g.ValueByPath("urn:assertion", "badge", "criteria")
		assert.True(t, errors.Is(err, graph.ErrNotFound))
		var pathErr *graph.PathError
		require.ErrorAs(t, err, &pathErr)
		assert.Equal(t, "badge.criteria", pathErr.Path.String())
	})

	t.Run("index into non-list", func(t *testing.T) {
		_, err := g.ValueByPath("urn:assertion", "name", 0)
		assert.True(t, errors.Is(err, graph.ErrType))
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := g.ValueByPath("urn:assertion", "badge", "alignment", 3)
		assert.True(t, errors.Is(err, graph.ErrNotFound))
	})

	t.Run("unknown node", func(t *testing.T) {
		_, err := g.ValueByPath("urn:missing", "badge")
		assert.True(t, errors.Is(err, graph.ErrNotFound))
	})

	t.Run("node by path", func(t *testing.T) {
		n, err := g.NodeByPath("urn:assertion", "badge")
		require.NoError(t, err)
		assert.Equal(t, "urn:badge", n.ID())

		_, err = g.NodeByPath("urn:assertion", "name")
		assert.True(t, errors.Is(err, graph.ErrNotFound))
	})
}

func TestPatch(t *testing.T) {
	g, _ := graph.Graph{}.Add("", map[string]any{"id": "urn:a", "name": "a", "description": "d"})

	patched := g.Patch("urn:a", map[string]any{"name": "b", "id": "urn:other"})

	n, err := patched.NodeByID("urn:a")
	require.NoError(t, err)
	assert.Equal(t, "b", n["name"])
	assert.Equal(t, "d", n["description"])

	old, _ := g.NodeByID("urn:a")
	assert.Equal(t, "a", old["name"], "patch must not alias the previous graph")

	same := g.Patch("urn:missing", map[string]any{"name": "x"})
	assert.Equal(t, g.Nodes(), same.Nodes())
}

func TestReplace(t *testing.T) {
	g, _ := graph.Graph{}.Add("", map[string]any{"id": "urn:a", "name": "a", "description": "d"})

	g = g.Replace("urn:a", map[string]any{"name": "b"})

	n, err := g.NodeByID("urn:a")
	require.NoError(t, err)
	assert.Equal(t, graph.Node{"id": "urn:a", "name": "b"}, n)
}

func TestRepairReference(t *testing.T) {
	g, _ := graph.Graph{}.Add("", map[string]any{
		"id":       "urn:assertion",
		"badge":    "https://old.example.org/badge",
		"evidence": []any{"urn:e1", "urn:e2"},
	})

	g, err := g.RepairReference(graph.Path{"urn:assertion", "badge"}, "https://new.example.org/badge")
	require.NoError(t, err)
	g, err = g.RepairReference(graph.Path{"urn:assertion", "evidence", 1}, "urn:e3")
	require.NoError(t, err)

	n, _ := g.NodeByID("urn:assertion")
	assert.Equal(t, "https://new.example.org/badge", n["badge"])
	assert.Equal(t, []any{"urn:e1", "urn:e3"}, n["evidence"])

	_, err = g.RepairReference(graph.Path{"urn:assertion", "missing"}, "x")
	assert.True(t, errors.Is(err, graph.ErrNotFound))
}

func TestNodeAccessors(t *testing.T) {
	n := graph.Node{
		"id":   "_:b4",
		"type": []any{"Issuer", "Extension"},
		"tags": []any{"one", 2, "three"},
		"name": []any{"only"},
	}

	assert.True(t, n.IsBlank())
	assert.True(t, n.HasType("Extension"))
	assert.False(t, n.HasType("BadgeClass"))
	assert.Equal(t, []string{"one", "three"}, n.Strings("tags"))
	name, ok := n.String("name")
	assert.True(t, ok)
	assert.Equal(t, "only", name)

	clone := n.Clone()
	clone["tags"].([]any)[0] = "changed"
	assert.Equal(t, "one", n["tags"].([]any)[0])
}
