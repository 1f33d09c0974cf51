// Package validate holds the Open Badges value types, class property rules
// and recipient identity checks.
package validate

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/capiscio/badgecheck/pkg/graph"
)

// ValueType names a primitive value type.
type ValueType string

// Value types.
const (
	Boolean      ValueType = "BOOLEAN"
	Text         ValueType = "TEXT"
	URL          ValueType = "URL"
	DateTime     ValueType = "DATETIME"
	ID           ValueType = "ID"
	IRI          ValueType = "IRI"
	MarkdownText ValueType = "MARKDOWN_TEXT"
	IdentityHash ValueType = "IDENTITY_HASH"
	Email        ValueType = "EMAIL"
	RDFType      ValueType = "RDF_TYPE"
)

var (
	identityHashPattern = regexp.MustCompile(`^(?i)(sha1|sha256|md5)\$[0-9a-f]+$`)
	schemePattern       = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
)

var predicates = map[ValueType]func(any) bool{
	Boolean:      isBoolean,
	Text:         isText,
	URL:          isURL,
	DateTime:     isDateTime,
	ID:           isID,
	IRI:          isIRI,
	MarkdownText: isText,
	IdentityHash: isIdentityHash,
	Email:        isEmail,
	RDFType:      isRDFType,
}

// Check reports whether v is a valid value of type t.
func Check(t ValueType, v any) (bool, error) {
	p, ok := predicates[t]
	if !ok {
		return false, fmt.Errorf("unknown value type %q", t)
	}
	return p(v), nil
}

// IsURL reports whether s is an absolute http or https URL with a host.
func IsURL(s string) bool {
	return isURL(s)
}

// IsEmail reports whether s is a bare email address.
func IsEmail(s string) bool {
	return isEmail(s)
}

func isBoolean(v any) bool {
	_, ok := v.(bool)
	return ok
}

func isText(v any) bool {
	_, ok := v.(string)
	return ok
}

func isURL(v any) bool {
	s, ok := v.(string)
	if !ok || s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}
	return u.Hostname() != ""
}

func isDateTime(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := time.Parse(time.RFC3339Nano, s)
	return err == nil
}

func isIRI(v any) bool {
	s, ok := v.(string)
	if !ok || s == "" || strings.ContainsAny(s, " \t\n<>\"") {
		return false
	}
	if graph.IsBlankID(s) {
		return true
	}
	if !schemePattern.MatchString(s) {
		return false
	}
	_, err := url.Parse(s)
	return err == nil
}

func isID(v any) bool {
	return isIRI(v)
}

func isIdentityHash(v any) bool {
	s, ok := v.(string)
	if !ok || s == "" {
		return false
	}
	if strings.Contains(s, "$") {
		return identityHashPattern.MatchString(s)
	}
	return true
}

func isEmail(v any) bool {
	s, ok := v.(string)
	if !ok || s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func isRDFType(v any) bool {
	s, ok := v.(string)
	return ok && s != "" && !strings.ContainsAny(s, " \t\n")
}
