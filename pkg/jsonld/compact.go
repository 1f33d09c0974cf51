// Package jsonld compacts badge documents against the Open Badges context.
package jsonld

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/piprate/json-gold/ld"

	"github.com/capiscio/badgecheck/pkg/loader"
)

// Canonical context URLs.
const (
	ContextV1 = "https://w3id.org/openbadges/v1"
	ContextV2 = "https://w3id.org/openbadges/v2"
)

//go:embed contexts/*.json
var contextFS embed.FS

// builtin maps every URL the Open Badges contexts are published under to
// the embedded file serving it.
var builtin = map[string]string{
	ContextV1:                                   "contexts/v1.json",
	"https://w3id.org/openbadges/v1/":           "contexts/v1.json",
	"https://openbadgespec.org/v1/context.json": "contexts/v1.json",
	ContextV2:                                   "contexts/v2.json",
	"https://w3id.org/openbadges/v2/":           "contexts/v2.json",
	"https://openbadgespec.org/v2/context.json": "contexts/v2.json",
}

// IsBuiltin reports whether url names an embedded Open Badges context.
func IsBuiltin(url string) bool {
	_, ok := builtin[url]
	return ok
}

// Result is a compacted document plus the external contexts consulted
// while compacting it.
type Result struct {
	Document map[string]any
	// Contexts lists the non-builtin context URLs loaded during this call.
	Contexts []string
}

// Compactor compacts documents with a document loader that serves the
// embedded contexts and fetches everything else through a loader.Fetcher.
// Fetched contexts are kept for the lifetime of the Compactor.
type Compactor struct {
	fetcher loader.Fetcher

	mu      sync.Mutex
	docs    map[string]any
	touched map[string]bool
	ctx     context.Context
}

// NewCompactor creates a Compactor. fetcher may be nil when only the
// embedded contexts are needed.
func NewCompactor(fetcher loader.Fetcher) *Compactor {
	return &Compactor{
		fetcher: fetcher,
		docs:    make(map[string]any),
	}
}

// Compact compacts doc against contextURL.
func (c *Compactor) Compact(ctx context.Context, doc map[string]any, contextURL string) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctx = ctx
	c.touched = make(map[string]bool)
	defer func() {
		c.ctx = nil
		c.touched = nil
	}()

	proc := ld.NewJsonLdProcessor()
	options := ld.NewJsonLdOptions("")
	options.DocumentLoader = c

	compacted, err := proc.Compact(doc, map[string]any{"@context": contextURL}, options)
	if err != nil {
		return nil, fmt.Errorf("failed to compact document: %w", err)
	}

	contexts := make([]string, 0, len(c.touched))
	for u := range c.touched {
		contexts = append(contexts, u)
	}
	sort.Strings(contexts)
	return &Result{Document: compacted, Contexts: contexts}, nil
}

// ContextDocument returns a context document already loaded by this
// Compactor, or an embedded one.
func (c *Compactor) ContextDocument(url string) (map[string]any, bool) {
	if path, ok := builtin[url]; ok {
		doc, err := readBuiltin(path)
		if err != nil {
			return nil, false
		}
		m, ok := doc.(map[string]any)
		return m, ok
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[url]
	if !ok {
		return nil, false
	}
	m, ok := doc.(map[string]any)
	return m, ok
}

// LoadDocument implements ld.DocumentLoader.
func (c *Compactor) LoadDocument(u string) (*ld.RemoteDocument, error) {
	key := strings.TrimSuffix(u, "#")
	if path, ok := builtin[key]; ok {
		doc, err := readBuiltin(path)
		if err != nil {
			return nil, ld.NewJsonLdError(ld.LoadingDocumentFailed, err)
		}
		return &ld.RemoteDocument{DocumentURL: u, Document: doc}, nil
	}

	if c.touched != nil {
		c.touched[key] = true
	}
	if doc, ok := c.docs[key]; ok {
		return &ld.RemoteDocument{DocumentURL: u, Document: doc}, nil
	}
	if c.fetcher == nil {
		return nil, ld.NewJsonLdError(ld.LoadingDocumentFailed, fmt.Sprintf("no loader for context %s", u))
	}

	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := c.fetcher.Fetch(ctx, key, loader.AcceptDocument)
	if err != nil {
		return nil, ld.NewJsonLdError(ld.LoadingDocumentFailed, err)
	}
	if !resp.OK() {
		return nil, ld.NewJsonLdError(ld.LoadingDocumentFailed, fmt.Sprintf("context %s: status %d", u, resp.StatusCode))
	}
	doc, err := ld.DocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, ld.NewJsonLdError(ld.LoadingDocumentFailed, err)
	}
	c.docs[key] = doc
	return &ld.RemoteDocument{DocumentURL: u, Document: doc}, nil
}

func readBuiltin(path string) (any, error) {
	data, err := contextFS.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ld.DocumentFromReader(bytes.NewReader(data))
}
