package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/capiscio/badgecheck/pkg/graph"
	"github.com/capiscio/badgecheck/pkg/jsonld"
	"github.com/capiscio/badgecheck/pkg/loader"
	"github.com/capiscio/badgecheck/pkg/signing"
	"github.com/capiscio/badgecheck/pkg/state"
	"github.com/capiscio/badgecheck/pkg/tasks"
	"github.com/capiscio/badgecheck/pkg/upgrade"
	"github.com/capiscio/badgecheck/pkg/validate"
)

// keyed returns the node-key option for id, or nothing when id is empty.
func keyed(id string) []tasks.Option {
	if id == "" {
		return nil
	}
	return []tasks.Option{tasks.WithKey(tasks.NodeKey(id))}
}

func (r *run) detectInputType(_ context.Context, st state.State) Outcome {
	in := st.Input
	value := strings.TrimSpace(in.Value)

	if in.Type == state.InputFile {
		if mediaType := sniffImage(in.Data); mediaType != "" {
			extracted, out := r.unbake(in.Data, mediaType)
			if out != nil {
				return out
			}
			return r.classify(st, extracted, "")
		}
		value = strings.TrimSpace(string(in.Data))
	}
	if value == "" {
		return fail("No input provided")
	}
	return r.classify(st, value, "")
}

// classify decides whether value is a URL, a JSON document or a JWS and
// queues the matching work. source is the image URL value was extracted
// from, if any.
func (r *run) classify(st state.State, value, source string) Outcome {
	value = strings.TrimSpace(value)
	switch {
	case validate.IsURL(value):
		var actions []state.Action
		if source == "" {
			actions = append(actions, state.SetInputType{Type: state.InputURL})
		}
		actions = append(actions, addTask(tasks.FetchHTTPNode{URL: value, PossiblyBaked: source == ""}, keyed(value)...))
		return succeed(fmt.Sprintf("Input is a URL: %s", value), actions...)

	case strings.HasPrefix(value, "{"):
		var doc map[string]any
		if err := json.Unmarshal([]byte(value), &doc); err != nil {
			return structural("input looks like JSON but could not be parsed", err)
		}
		actions := []state.Action{state.SetInputType{Type: state.InputJSON}}
		id := declaredID(doc)
		if isHosted(doc) && validate.IsURL(id) {
			actions = append(actions, addTask(tasks.FetchHTTPNode{URL: id}, keyed(id)...))
			return succeed(fmt.Sprintf("Input is a hosted JSON document; fetching its canonical copy from %s", id), actions...)
		}
		if id == "" {
			id = st.Graph.NextBlankID()
		}
		actions = append(actions, addTask(tasks.IntakeJSON{Document: tasks.Document{Data: value, NodeID: id}}, keyed(id)...))
		return succeed("Input is a JSON document", actions...)

	case signing.LooksLikeJWS(value):
		return r.intakeJWS(st, value)
	}
	return fail("Could not determine input type: expected a URL, JSON document or JWS")
}

func (r *run) intakeJWS(st state.State, token string) Outcome {
	decoded, err := signing.Decode(token)
	if err != nil {
		return structural("input could not be decoded as a JWS", err)
	}
	doc, err := decoded.Document()
	if err != nil {
		return structural("JWS payload is not a JSON object", err)
	}

	id := declaredID(doc)
	if id == "" {
		id = st.Graph.NextBlankID()
	}
	creator := creatorOf(doc)

	actions := []state.Action{
		state.SetInputType{Type: state.InputJWS},
		addTask(tasks.IntakeJSON{Document: tasks.Document{Data: string(decoded.Payload), NodeID: id}}, keyed(id)...),
	}
	prereqs := []string{tasks.NodeKey(id)}
	if creator != "" {
		if !st.Tasks.Exists(tasks.NodeKey(creator)) {
			actions = append(actions, addTask(tasks.FetchHTTPNode{
				URL:           creator,
				ExpectedClass: string(validate.CryptographicKey),
				Depth:         1,
			}, keyed(creator)...))
		}
		prereqs = append(prereqs, tasks.NodeKey(creator))
	}
	actions = append(actions, addTask(
		tasks.VerifyJWS{NodeID: id, KeyID: creator, Token: token},
		tasks.WithPrerequisites(prereqs...),
	))
	return succeed(fmt.Sprintf("Input is a signed assertion (%s)", decoded.Algorithm), actions...)
}

// unbake extracts the badge embedded in an image. A non-nil Outcome reports
// why nothing could be extracted.
func (r *run) unbake(data []byte, mediaType string) (string, Outcome) {
	if r.config.Unbaker == nil {
		return "", failf("Baked %s input requires an image extractor", mediaType)
	}
	extracted, err := r.config.Unbaker.Unbake(data, mediaType)
	if err != nil {
		return "", failf("Could not extract badge from %s image: %v", mediaType, err)
	}
	if strings.TrimSpace(extracted) == "" {
		return "", failf("No badge metadata found in %s image", mediaType)
	}
	return extracted, nil
}

func (r *run) processBakedResource(st state.State, p tasks.ProcessBakedResource) Outcome {
	stored, ok := st.OriginalResource(p.URL)
	if !ok {
		return Failed{Err: NewError(ErrCodePrerequisiteUnmet, fmt.Sprintf("no image stored for %s", p.URL))}
	}
	uri, err := validate.ParseDataURI(stored)
	if err != nil {
		return structural(fmt.Sprintf("stored image for %s is not a data URI", p.URL), err)
	}
	extracted, out := r.unbake(uri.Data, uri.MediaType)
	if out != nil {
		return out
	}
	out = r.classify(st, extracted, p.URL)
	if done, ok := out.(Done); ok && done.Success {
		done.Message = fmt.Sprintf("Extracted badge from image %s. %s", p.URL, done.Message)
		return done
	}
	return out
}

func (r *run) fetchHTTPNode(ctx context.Context, st state.State, p tasks.FetchHTTPNode) Outcome {
	resp, err := r.fetcher.Fetch(ctx, p.URL, loader.AcceptDocument)
	if err != nil {
		return failf("Could not fetch %s: %v", p.URL, err)
	}

	if resp.Gone() {
		actions := []state.Action{
			addTask(tasks.VerifyGoneRevocation{NodeID: p.URL}, tasks.WithPrerequisites(tasks.NodeKey(p.URL))),
		}
		if body := strings.TrimSpace(string(resp.Body)); strings.HasPrefix(body, "{") {
			actions = append([]state.Action{
				state.StoreOriginalResource{URL: p.URL, Data: body},
				addTask(tasks.IntakeJSON{Document: documentFor(p, body)}, keyed(p.URL)...),
			}, actions...)
		}
		return succeed(fmt.Sprintf("Fetched %s with status 410 Gone", p.URL), actions...)
	}
	if !resp.OK() {
		return failf("Could not fetch %s: HTTP status %d", p.URL, resp.StatusCode)
	}

	if resp.IsImage() {
		uri := validate.EncodeDataURI(resp.MediaType(), resp.Body)
		store := state.StoreOriginalResource{URL: p.URL, Data: uri}
		if p.PossiblyBaked {
			return succeed(fmt.Sprintf("Fetched image %s", p.URL),
				store, addTask(tasks.ProcessBakedResource{URL: p.URL}, keyed(p.URL)...))
		}
		if p.ExpectedClass != "" {
			return failf("Expected a %s document at %s but got %s", p.ExpectedClass, p.URL, resp.MediaType())
		}
		return succeed(fmt.Sprintf("Fetched image %s", p.URL), store)
	}

	body := strings.TrimSpace(string(resp.Body))
	if p.ExpectedClass == string(validate.CryptographicKey) && strings.HasPrefix(body, "-----BEGIN") {
		key := map[string]any{
			"id":           p.URL,
			"type":         string(validate.CryptographicKey),
			"publicKeyPem": body,
		}
		return succeed(fmt.Sprintf("Fetched PEM public key %s", p.URL),
			state.StoreOriginalResource{URL: p.URL, Data: body},
			state.AddNode{ID: p.URL, Data: key})
	}

	return succeed(fmt.Sprintf("Fetched %s", p.URL),
		state.StoreOriginalResource{URL: p.URL, Data: body},
		addTask(tasks.IntakeJSON{Document: documentFor(p, body)}, keyed(p.URL)...))
}

func documentFor(p tasks.FetchHTTPNode, body string) tasks.Document {
	return tasks.Document{
		Data:          body,
		NodeID:        p.URL,
		ExpectedClass: p.ExpectedClass,
		SourcePath:    p.SourcePath,
		Depth:         p.Depth,
	}
}

func (r *run) intakeJSON(p tasks.IntakeJSON) Outcome {
	doc, err := parseObject(p.Data)
	if err != nil {
		return structural(fmt.Sprintf("could not parse JSON for %s", label(p.NodeID)), err)
	}

	version := upgrade.DetectVersion(doc)
	var next tasks.Params
	switch version {
	case upgrade.Version05:
		next = tasks.Upgrade05Node{Document: p.Document}
	case upgrade.Version10:
		next = tasks.Upgrade10Node{Document: p.Document}
	default:
		next = tasks.JSONLDCompactData{Document: p.Document, Legacy: upgrade.IsLegacy(version)}
	}

	actions := []state.Action{addTask(next, keyed(p.NodeID)...)}
	if p.Depth == 0 {
		actions = append(actions, state.SetOpenBadgesVersion{Version: version})
	}
	return succeed(fmt.Sprintf("Processed JSON for %s as Open Badges %s", label(p.NodeID), version), actions...)
}

func (r *run) upgrade05(p tasks.Upgrade05Node) Outcome {
	doc, err := parseObject(p.Data)
	if err != nil {
		return structural(fmt.Sprintf("could not parse JSON for %s", label(p.NodeID)), err)
	}
	upgraded, err := upgrade.From05(doc, p.NodeID)
	if err != nil {
		return structural("could not upgrade Open Badges 0.5 document", err)
	}
	return r.queueCompaction(p.Document, upgraded, "0.5")
}

func (r *run) upgrade10(p tasks.Upgrade10Node) Outcome {
	doc, err := parseObject(p.Data)
	if err != nil {
		return structural(fmt.Sprintf("could not parse JSON for %s", label(p.NodeID)), err)
	}
	return r.queueCompaction(p.Document, upgrade.From10(doc), "1.0")
}

func (r *run) queueCompaction(d tasks.Document, upgraded map[string]any, from string) Outcome {
	data, err := json.Marshal(upgraded)
	if err != nil {
		return structural("could not encode upgraded document", err)
	}
	d.Data = string(data)
	return succeed(fmt.Sprintf("Upgraded Open Badges %s document %s", from, label(d.NodeID)),
		addTask(tasks.JSONLDCompactData{Document: d, Legacy: true}, keyed(d.NodeID)...))
}

func (r *run) compact(ctx context.Context, st state.State, p tasks.JSONLDCompactData) Outcome {
	doc, err := parseObject(p.Data)
	if err != nil {
		return structural(fmt.Sprintf("could not parse JSON for %s", label(p.NodeID)), err)
	}
	res, err := r.compactor.Compact(ctx, doc, jsonld.ContextV2)
	if err != nil {
		return structural(fmt.Sprintf("could not compact JSON-LD document %s", label(p.NodeID)), err)
	}
	node := res.Document
	delete(node, "@context")

	declared, _ := node["id"].(string)
	requested := p.NodeID
	if declared != "" && requested != "" && declared != requested && !graph.IsBlankID(requested) {
		if !validate.IsURL(declared) || st.Tasks.Exists(tasks.NodeKey(declared)) {
			return failf("Node fetched from %s declares a different id %s", requested, declared)
		}
		return warn(fmt.Sprintf("Node fetched from %s declares id %s; fetching from the declared id", requested, declared),
			state.RetractNodeTasks{NodeID: requested},
			addTask(tasks.FetchHTTPNode{
				URL:           declared,
				ExpectedClass: p.ExpectedClass,
				SourcePath:    p.SourcePath,
				Depth:         p.Depth,
			}, keyed(declared)...))
	}

	id := declared
	if id == "" {
		id = requested
	}
	if id == "" || graph.IsBlankID(id) {
		id = st.Graph.NextBlankID()
	}
	node["id"] = id

	// Preview the insertion to learn the ids nested nodes will receive.
	_, added := st.Graph.Add(id, node)

	actions := []state.Action{state.AddNode{ID: id, Data: node}}
	if len(p.SourcePath) >= 2 {
		if holder, ok := p.SourcePath[0].(string); ok {
			if v, err := st.Graph.ValueByPath(holder, p.SourcePath[1:]...); err == nil {
				if ref, _ := v.(string); ref != id {
					actions = append(actions, state.RepairReference{Path: p.SourcePath, NewID: id})
				}
			}
		}
	}
	if p.Depth == 0 {
		actions = append(actions, state.SetValidationSubject{ID: id})
	}

	var wait []tasks.Option
	if p.Legacy {
		actions = append(actions, addTask(tasks.Upgrade11Node{NodeID: id}, keyed(id)...))
		wait = append(wait, tasks.WithPrerequisites(tasks.NodeKey(id)))
	}
	for _, n := range added {
		if n.HasType(string(validate.Extension)) {
			actions = append(actions, addTask(tasks.ValidateExtensionNode{NodeID: n.ID(), Contexts: res.Contexts}, wait...))
		}
	}
	if !st.Tasks.Exists(classKey(id)) {
		classOpts := append([]tasks.Option{tasks.WithKey(classKey(id))}, wait...)
		if p.ExpectedClass != "" {
			actions = append(actions, addTask(tasks.ValidateExpectedNodeClass{NodeID: id, ExpectedClass: p.ExpectedClass, Depth: p.Depth}, classOpts...))
		} else {
			actions = append(actions, addTask(tasks.DetectAndValidateNodeClass{NodeID: id, Depth: p.Depth}, classOpts...))
		}
	}

	return succeed(fmt.Sprintf("Compacted node %s (%d nodes)", id, len(added)), actions...)
}

func (r *run) upgrade11(st state.State, p tasks.Upgrade11Node) Outcome {
	node, err := st.Graph.NodeByID(p.NodeID)
	if err != nil {
		return blockedOn(p.NodeID, err)
	}

	var actions []state.Action
	if patch := upgrade.DatePatch(node); len(patch) > 0 {
		actions = append(actions, state.PatchNode{ID: p.NodeID, Data: patch})
	}
	if node.HasType(string(validate.BadgeClass)) {
		for _, ref := range node.Strings("alignment") {
			alignment, err := st.Graph.NodeByID(ref)
			if err != nil {
				continue
			}
			if upgraded, changed := upgrade.UpgradeAlignment(alignment); changed {
				actions = append(actions, state.UpdateNode{ID: ref, Data: upgraded})
			}
		}
	}
	return succeed(fmt.Sprintf("Upgraded node %s to Open Badges 2.0 (%d patches)", p.NodeID, len(actions)), actions...)
}

func parseObject(data string) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document is not a JSON object")
	}
	return doc, nil
}

// declaredID returns the id of a raw document. Signed 1.0 assertions have
// none and are identified by their uid.
func declaredID(doc map[string]any) string {
	if id, ok := doc["id"].(string); ok && id != "" {
		return id
	}
	if uid, ok := doc["uid"].(string); ok && uid != "" {
		if _, hasContext := doc["@context"]; !hasContext {
			return "uid:" + uid
		}
	}
	return ""
}

// verificationOf returns the raw verification object of a 2.0 or 1.x
// document.
func verificationOf(doc map[string]any) map[string]any {
	for _, key := range []string{"verification", "verify"} {
		if v, ok := doc[key].(map[string]any); ok {
			return v
		}
	}
	return nil
}

// creatorOf returns the signing key URL a raw assertion names.
func creatorOf(doc map[string]any) string {
	v := verificationOf(doc)
	if v == nil {
		return ""
	}
	if creator, ok := v["creator"].(string); ok && creator != "" {
		return creator
	}
	if _, ok := doc["verify"]; ok {
		if u, ok := v["url"].(string); ok {
			return u
		}
	}
	return ""
}

func isHosted(doc map[string]any) bool {
	v := verificationOf(doc)
	if v == nil {
		return false
	}
	for _, t := range graph.AsStrings(v["type"]) {
		switch strings.ToLower(t) {
		case "hosted", "hostedbadge":
			return true
		}
	}
	return false
}

// sniffImage returns the image media type of data, or empty string.
func sniffImage(data []byte) string {
	if http.DetectContentType(data) == validate.MediaTypePNG {
		return validate.MediaTypePNG
	}
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	if bytes.Contains(head, []byte("<svg")) {
		return validate.MediaTypeSVG
	}
	return ""
}

func label(id string) string {
	if id == "" {
		return "input"
	}
	return id
}
