// Package loader retrieves remote badge documents, keys and images.
package loader

import (
	"context"
	"mime"
	"net/http"
	"strings"
)

// Accept headers sent with fetches.
const (
	AcceptDocument = "application/ld+json, application/json, image/png, image/svg+xml"
	AcceptImage    = "image/png, image/svg+xml"
)

// Response is a fetched resource.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	FromCache   bool
}

// OK reports whether the fetch returned a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Gone reports whether the resource answered 410 Gone.
func (r *Response) Gone() bool {
	return r.StatusCode == http.StatusGone
}

// MediaType returns the content type without parameters, lower-cased.
func (r *Response) MediaType() string {
	mt, _, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(r.ContentType, ";", 2)[0]))
	}
	return mt
}

// IsImage reports whether the response carries an image.
func (r *Response) IsImage() bool {
	return strings.HasPrefix(r.MediaType(), "image/")
}

// Fetcher retrieves a URL. A non-2xx status is not an error; callers
// inspect StatusCode.
type Fetcher interface {
	Fetch(ctx context.Context, url string, accept string) (*Response, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string, accept string) (*Response, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, url string, accept string) (*Response, error) {
	return f(ctx, url, accept)
}
