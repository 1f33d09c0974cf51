package verifier

import (
	"context"
	"fmt"

	"github.com/capiscio/badgecheck/pkg/extension"
	"github.com/capiscio/badgecheck/pkg/jsonld"
	"github.com/capiscio/badgecheck/pkg/loader"
	"github.com/capiscio/badgecheck/pkg/state"
	"github.com/capiscio/badgecheck/pkg/tasks"
)

func (r *run) validateExtension(ctx context.Context, st state.State, p tasks.ValidateExtensionNode) Outcome {
	node, err := st.Graph.NodeByID(p.NodeID)
	if err != nil {
		return blockedOn(p.NodeID, err)
	}
	types := node.Types()

	checked := 0
	for _, contextURL := range p.Contexts {
		contextDoc, ok := r.compactor.ContextDocument(contextURL)
		if !ok {
			continue
		}
		for _, v := range extension.ParseValidations(contextDoc) {
			if !v.MatchesType(types) {
				continue
			}
			checked++

			resp, err := r.fetcher.Fetch(ctx, v.SchemaURL, loader.AcceptDocument)
			if err != nil {
				return failf("Could not fetch schema %s for extension node %s: %v", v.SchemaURL, p.NodeID, err)
			}
			if !resp.OK() {
				return failf("Could not fetch schema %s for extension node %s: HTTP status %d", v.SchemaURL, p.NodeID, resp.StatusCode)
			}

			// Schemas are written against the extension's own terms.
			data := map[string]any(node.Clone())
			data["@context"] = jsonld.ContextV2
			if node.IsBlank() {
				delete(data, "id")
			}
			res, err := r.compactor.Compact(ctx, data, contextURL)
			if err != nil {
				return structural(fmt.Sprintf("could not compact extension node %s against %s", p.NodeID, contextURL), err)
			}
			delete(res.Document, "@context")

			if err := r.config.SchemaValidator.Validate(ctx, v.SchemaURL, resp.Body, res.Document); err != nil {
				return failf("Extension node %s does not conform to schema %s: %v", p.NodeID, v.SchemaURL, err)
			}
		}
	}

	if checked == 0 {
		return warn(fmt.Sprintf("No validation schema found for extension node %s of types %v", p.NodeID, types))
	}
	return succeedf("Extension node %s is valid against %d schema(s)", p.NodeID, checked)
}
