// Package extension finds the validation rules extension contexts publish
// and checks extension nodes against their JSON schemas.
package extension

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/multierr"
)

// Validation pairs an extension type with the schema that validates it.
type Validation struct {
	ValidatesType string
	SchemaURL     string
}

var (
	validationKeys = []string{"obi:validation", "validation", "https://w3id.org/openbadges#validation"}
	typeKeys       = []string{"obi:validatesType", "validatesType", "https://w3id.org/openbadges#validatesType"}
	schemaKeys     = []string{"obi:validationSchema", "validationSchema", "https://w3id.org/openbadges#validationSchema"}
)

// ParseValidations reads the validation entries of an extension context
// document.
func ParseValidations(contextDoc map[string]any) []Validation {
	raw, ok := first(contextDoc, validationKeys)
	if !ok {
		return nil
	}
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	default:
		items = []any{v}
	}

	var out []Validation
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		typ, _ := firstString(m, typeKeys)
		schema, _ := firstString(m, schemaKeys)
		if typ == "" || schema == "" {
			continue
		}
		out = append(out, Validation{ValidatesType: typ, SchemaURL: schema})
	}
	return out
}

// MatchesType reports whether a validation applies to a node declaring
// types. Types are compared by local name so compact and expanded forms
// match.
func (v Validation) MatchesType(types []string) bool {
	want := localName(v.ValidatesType)
	for _, t := range types {
		if localName(t) == want {
			return true
		}
	}
	return false
}

func localName(iri string) string {
	if i := strings.LastIndexAny(iri, "#:/"); i >= 0 {
		return iri[i+1:]
	}
	return iri
}

func first(m map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func firstString(m map[string]any, keys []string) (string, bool) {
	v, ok := first(m, keys)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// SchemaValidator checks a node against a schema document.
type SchemaValidator interface {
	// Validate returns nil when node conforms to the schema, otherwise an
	// error describing every violation.
	Validate(ctx context.Context, schemaURL string, schema []byte, node map[string]any) error
}

// JSONSchemaValidator validates with JSON Schema drafts 4 through 2020-12.
type JSONSchemaValidator struct{}

// NewJSONSchemaValidator creates a JSONSchemaValidator.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{}
}

// Validate implements SchemaValidator.
func (JSONSchemaValidator) Validate(_ context.Context, schemaURL string, schema []byte, node map[string]any) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schema)); err != nil {
		return fmt.Errorf("failed to load schema %s: %w", schemaURL, err)
	}
	sch, err := compiler.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", schemaURL, err)
	}

	err = sch.Validate(plain(node))
	if err == nil {
		return nil
	}
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err
	}

	var combined error
	for _, e := range verr.BasicOutput().Errors {
		if e.Error == "" || strings.HasPrefix(e.Error, "doesn't validate with") {
			continue
		}
		loc := e.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		combined = multierr.Append(combined, fmt.Errorf("%s: %s", loc, e.Error))
	}
	if combined == nil {
		return verr
	}
	return combined
}

// plain converts named map types into the map[string]any the schema
// library walks.
func plain(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = plain(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = plain(item)
		}
		return out
	}
	return v
}
