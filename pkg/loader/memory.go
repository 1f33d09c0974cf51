package loader

import (
	"context"
	"net/http"
	"sync"
)

// MemoryFetcher serves canned responses. Unknown URLs answer 404.
type MemoryFetcher struct {
	mu        sync.Mutex
	responses map[string]*Response
	calls     map[string]int
}

// NewMemoryFetcher creates an empty MemoryFetcher.
func NewMemoryFetcher() *MemoryFetcher {
	return &MemoryFetcher{
		responses: make(map[string]*Response),
		calls:     make(map[string]int),
	}
}

// Add registers a 200 response.
func (f *MemoryFetcher) Add(url, contentType string, body []byte) *MemoryFetcher {
	return f.AddStatus(url, http.StatusOK, contentType, body)
}

// AddJSON registers a 200 JSON-LD response.
func (f *MemoryFetcher) AddJSON(url string, body string) *MemoryFetcher {
	return f.Add(url, "application/ld+json", []byte(body))
}

// AddStatus registers a response with an arbitrary status.
func (f *MemoryFetcher) AddStatus(url string, status int, contentType string, body []byte) *MemoryFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[url] = &Response{
		URL:         url,
		StatusCode:  status,
		ContentType: contentType,
		Body:        body,
	}
	return f
}

// Calls returns how often url was fetched.
func (f *MemoryFetcher) Calls(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

// Fetch implements Fetcher.
func (f *MemoryFetcher) Fetch(ctx context.Context, url string, _ string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	resp, ok := f.responses[url]
	if !ok {
		return &Response{URL: url, StatusCode: http.StatusNotFound}, nil
	}
	out := *resp
	return &out, nil
}
