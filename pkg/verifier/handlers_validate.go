package verifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/capiscio/badgecheck/pkg/graph"
	"github.com/capiscio/badgecheck/pkg/loader"
	"github.com/capiscio/badgecheck/pkg/state"
	"github.com/capiscio/badgecheck/pkg/tasks"
	"github.com/capiscio/badgecheck/pkg/validate"
)

// classKey deduplicates class validation of a node.
func classKey(id string) string {
	return "class:" + id
}

func (r *run) detectAndValidateClass(st state.State, p tasks.DetectAndValidateNodeClass) Outcome {
	node, err := st.Graph.NodeByID(p.NodeID)
	if err != nil {
		return blockedOn(p.NodeID, err)
	}
	class, ok := validate.DetectClass(node)
	if !ok {
		return failf("Could not determine class of node %s from types %v", p.NodeID, node.Types())
	}
	return r.validateClass(st, node, class, p.Depth)
}

func (r *run) validateExpectedClass(st state.State, p tasks.ValidateExpectedNodeClass) Outcome {
	node, err := st.Graph.NodeByID(p.NodeID)
	if err != nil {
		return blockedOn(p.NodeID, err)
	}
	class := validate.Class(p.ExpectedClass)
	if !validate.Known(class) {
		return Failed{Err: NewError(ErrCodeUnexpected, fmt.Sprintf("no rules for class %s", p.ExpectedClass))}
	}
	return r.validateClass(st, node, class, p.Depth)
}

// validateClass queues one check per property rule of class, validation of
// the nodes the rules reference, and the class-level checks.
func (r *run) validateClass(st state.State, node graph.Node, class validate.Class, depth int) Outcome {
	id := node.ID()
	var actions []state.Action
	seen := map[string]bool{}

	for _, rule := range validate.Rules(class) {
		if rule.Image {
			actions = append(actions, addTask(tasks.ImageValidation{
				NodeID:       id,
				Prop:         rule.Prop,
				Required:     rule.Required,
				AllowDataURI: rule.AllowDataURI,
			}))
			continue
		}
		actions = append(actions, addTask(tasks.ValidateProperty{
			NodeID:    id,
			NodeClass: string(class),
			Prop:      rule.Prop,
			ValueType: string(rule.Type),
			Required:  rule.Required,
			Many:      rule.Many,
		}))

		if rule.ExpectedClass == "" || depth >= r.maxDepth {
			continue
		}
		raw, ok := node.Get(rule.Prop)
		if !ok {
			continue
		}
		refs, list := raw.([]any)
		if !list {
			refs = []any{raw}
		}
		for i, v := range refs {
			ref, ok := v.(string)
			if !ok || ref == "" || seen[ref] {
				continue
			}
			seen[ref] = true
			path := graph.Path{id, rule.Prop}
			if list {
				path = append(path, i)
			}
			actions = append(actions, r.followReference(st, ref, rule, path, depth+1)...)
		}
	}

	switch class {
	case validate.Assertion:
		actions = append(actions,
			addTask(tasks.VerifyRecipientIdentifier{NodeID: id}),
			addTask(tasks.AssertionTimestampChecks{NodeID: id}),
			addTask(tasks.AssertionVerificationDependencies{NodeID: id}),
		)
	case validate.BadgeClass:
		actions = append(actions, addTask(tasks.CriteriaPropertyDependencies{NodeID: id}))
	}

	return succeed(fmt.Sprintf("Validating %s node %s", class, id), actions...)
}

// followReference validates a referenced node, fetching it first when it is
// not stored yet and the rule allows retrieval.
func (r *run) followReference(st state.State, ref string, rule validate.PropertyRule, path graph.Path, depth int) []state.Action {
	if st.Tasks.Exists(classKey(ref)) {
		return nil
	}
	if st.Graph.Has(ref) {
		return []state.Action{addTask(tasks.ValidateExpectedNodeClass{
			NodeID:        ref,
			ExpectedClass: string(rule.ExpectedClass),
			Depth:         depth,
		}, tasks.WithKey(classKey(ref)))}
	}
	if !rule.Fetch || !validate.IsURL(ref) || st.Tasks.Exists(tasks.NodeKey(ref)) {
		return nil
	}
	return []state.Action{addTask(tasks.FetchHTTPNode{
		URL:           ref,
		ExpectedClass: string(rule.ExpectedClass),
		SourcePath:    path,
		Depth:         depth,
	}, keyed(ref)...)}
}

func (r *run) validateProperty(st state.State, p tasks.ValidateProperty) Outcome {
	node, err := st.Graph.NodeByID(p.NodeID)
	if err != nil {
		return blockedOn(p.NodeID, err)
	}

	raw, present := node.Get(p.Prop)
	values, isList := raw.([]any)
	if !isList {
		values = []any{raw}
	}
	if !present || len(values) == 0 {
		if p.Required {
			return failf("Required property %s not present in %s node %s", p.Prop, p.NodeClass, p.NodeID)
		}
		return succeedf("Optional property %s not present in %s node %s", p.Prop, p.NodeClass, p.NodeID)
	}
	if isList && len(values) > 1 && !p.Many {
		return failf("Property %s in %s node %s has %d values; only one is allowed", p.Prop, p.NodeClass, p.NodeID, len(values))
	}

	for _, v := range values {
		ok, err := validate.Check(validate.ValueType(p.ValueType), v)
		if err != nil {
			return Failed{Err: WrapError(ErrCodeUnexpected, fmt.Sprintf("cannot check %s", p.Prop), err)}
		}
		if !ok {
			return failf("%s property %s value %v is not a valid %s in node %s", p.NodeClass, p.Prop, v, p.ValueType, p.NodeID)
		}
	}
	return succeedf("%s property %s is valid in node %s", p.NodeClass, p.Prop, p.NodeID)
}

func (r *run) validateImage(ctx context.Context, st state.State, p tasks.ImageValidation) Outcome {
	node, err := st.Graph.NodeByID(p.NodeID)
	if err != nil {
		return blockedOn(p.NodeID, err)
	}
	raw, ok := node.String(p.Prop)
	if !ok || raw == "" {
		if _, present := node.Get(p.Prop); present {
			return failf("Image property %s of node %s must be a single URL, data URI or image object", p.Prop, p.NodeID)
		}
		if p.Required {
			return failf("Required image property %s not present in node %s", p.Prop, p.NodeID)
		}
		return succeedf("Optional image property %s not present in node %s", p.Prop, p.NodeID)
	}

	// An embedded image object is stored as its own node; its id is the URL.
	imageURL := raw
	if image, err := st.Graph.NodeByID(raw); err == nil {
		if image.IsBlank() {
			return failf("Image object in property %s of node %s has no id", p.Prop, p.NodeID)
		}
		imageURL = image.ID()
	}

	if validate.IsDataURI(imageURL) {
		if !p.AllowDataURI {
			return failf("Image property %s of node %s may not be a data URI", p.Prop, p.NodeID)
		}
		uri, err := validate.ParseDataURI(imageURL)
		if err != nil {
			return failf("Image property %s of node %s is not a valid data URI: %v", p.Prop, p.NodeID, err)
		}
		if !validate.AllowedImageType(uri.MediaType) {
			return failf("Image in property %s of node %s has unsupported type %s", p.Prop, p.NodeID, uri.MediaType)
		}
		return succeedf("Embedded image in property %s of node %s is valid", p.Prop, p.NodeID)
	}

	if !validate.IsURL(imageURL) {
		return failf("Image property %s of node %s is not a valid URL: %s", p.Prop, p.NodeID, imageURL)
	}
	if _, cached := st.OriginalResource(imageURL); cached {
		return succeedf("Image %s was already retrieved", imageURL)
	}

	resp, err := r.fetcher.Fetch(ctx, imageURL, loader.AcceptImage)
	if err != nil {
		return failf("Could not fetch image %s: %v", imageURL, err)
	}
	if !resp.OK() {
		return failf("Could not fetch image %s: HTTP status %d", imageURL, resp.StatusCode)
	}
	mediaType := resp.MediaType()
	if !resp.IsImage() || !validate.AllowedImageType(mediaType) {
		return failf("Resource %s is not a PNG or SVG image (got %s)", imageURL, mediaType)
	}
	return succeed(fmt.Sprintf("Image %s for property %s of node %s is valid", imageURL, p.Prop, p.NodeID),
		state.StoreOriginalResource{URL: imageURL, Data: validate.EncodeDataURI(mediaType, resp.Body)})
}

func (r *run) criteriaDependencies(st state.State, p tasks.CriteriaPropertyDependencies) Outcome {
	badge, err := st.Graph.NodeByID(p.NodeID)
	if err != nil {
		return blockedOn(p.NodeID, err)
	}
	ref, ok := badge.String("criteria")
	if !ok {
		return succeedf("BadgeClass %s has no criteria to check", p.NodeID)
	}
	criteria, err := st.Graph.NodeByID(ref)
	if err != nil {
		// A bare URL reference needs nothing further.
		if validate.IsURL(ref) {
			return succeedf("Criteria for BadgeClass %s are published at %s", p.NodeID, ref)
		}
		return failf("Criteria reference %s of BadgeClass %s is neither a URL nor an object", ref, p.NodeID)
	}
	if !criteria.IsBlank() {
		return succeedf("Criteria for BadgeClass %s have id %s", p.NodeID, criteria.ID())
	}
	if narrative, _ := criteria.String("narrative"); strings.TrimSpace(narrative) != "" {
		return succeedf("Criteria for BadgeClass %s have a narrative", p.NodeID)
	}
	return failf("Criteria of BadgeClass %s must have either an id or a narrative", p.NodeID)
}
