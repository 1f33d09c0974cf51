// Package state holds the single state tree of a verification run and the
// actions that are the only way to change it.
package state

import (
	"github.com/capiscio/badgecheck/pkg/graph"
	"github.com/capiscio/badgecheck/pkg/tasks"
)

// InputType classifies the raw input.
type InputType string

// Input types.
const (
	InputUnknown InputType = ""
	InputFile    InputType = "file"
	InputJSON    InputType = "json"
	InputJWS     InputType = "jws"
	InputURL     InputType = "url"
)

// Input is the raw credential payload.
type Input struct {
	// Value is the textual input: a URL, a JSON document or a compact JWS.
	Value string `json:"value"`
	// Data holds raw file bytes when the input was a file.
	Data []byte            `json:"-"`
	Type InputType         `json:"input_type"`
	// OriginalResources maps source URLs to the documents fetched from them.
	// Images are stored as data URIs.
	OriginalResources map[string]string `json:"original_json,omitempty"`
}

// Report accumulates run-level findings that are not task results.
type Report struct {
	ValidationSubject string              `json:"validationSubject"`
	OpenBadgesVersion string              `json:"openBadgesVersion"`
	RecipientProfile  map[string][]string `json:"recipientProfile,omitempty"`
}

// State is the whole tree. Values are never mutated in place: every reduce
// returns a new State and the old one stays valid.
type State struct {
	Input  Input
	Graph  graph.Graph
	Tasks  tasks.Queue
	Report Report
}

// New returns the initial state for input.
func New(input Input, recipientProfile map[string][]string) State {
	return State{
		Input: Input{
			Value: input.Value,
			Data:  input.Data,
			Type:  input.Type,
		},
		Report: Report{RecipientProfile: cloneProfile(recipientProfile)},
	}
}

// OriginalResource returns the document fetched from url, if any.
func (s State) OriginalResource(url string) (string, bool) {
	v, ok := s.Input.OriginalResources[url]
	return v, ok
}

func cloneProfile(p map[string][]string) map[string][]string {
	if p == nil {
		return nil
	}
	out := make(map[string][]string, len(p))
	for k, v := range p {
		out[k] = append([]string(nil), v...)
	}
	return out
}
