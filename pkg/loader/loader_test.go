package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, url string, accept string) (*Response, error) {
	args := m.Called(ctx, url, accept)
	if resp := args.Get(0); resp != nil {
		return resp.(*Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestHTTPFetcher_Fetch_Success(t *testing.T) {
	var gotAccept, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/ld+json; charset=utf-8")
		_, _ = w.Write([]byte(`{"id":"x"}`))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(time.Second, "")
	resp, err := fetcher.Fetch(context.Background(), server.URL, AcceptDocument)

	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, "application/ld+json", resp.MediaType())
	assert.False(t, resp.IsImage())
	assert.Equal(t, `{"id":"x"}`, string(resp.Body))
	assert.Equal(t, AcceptDocument, gotAccept)
	assert.Equal(t, DefaultUserAgent, gotAgent)
}

func TestHTTPFetcher_Fetch_Gone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	resp, err := NewHTTPFetcher(time.Second, "test").Fetch(context.Background(), server.URL, "")

	require.NoError(t, err, "HTTP error statuses are not transport errors")
	assert.False(t, resp.OK())
	assert.True(t, resp.Gone())
}

func TestHTTPFetcher_Fetch_NetworkError(t *testing.T) {
	_, err := NewHTTPFetcher(time.Second, "").Fetch(context.Background(), "http://127.0.0.1:0", "")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch")
}

func TestCachingFetcher_ServesRepeatsFromCache(t *testing.T) {
	next := new(mockFetcher)
	next.On("Fetch", mock.Anything, "https://example.org/a", AcceptDocument).
		Return(&Response{URL: "https://example.org/a", StatusCode: 200, Body: []byte("a")}, nil).Once()

	fetcher := NewCachingFetcher(next, nil, time.Minute)

	first, err := fetcher.Fetch(context.Background(), "https://example.org/a", AcceptDocument)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := fetcher.Fetch(context.Background(), "https://example.org/a", AcceptDocument)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, []byte("a"), second.Body)

	next.AssertExpectations(t)
}

func TestCachingFetcher_DoesNotCacheFailures(t *testing.T) {
	next := new(mockFetcher)
	next.On("Fetch", mock.Anything, "https://example.org/missing", AcceptDocument).
		Return(&Response{StatusCode: 404}, nil).Twice()
	next.On("Fetch", mock.Anything, "https://example.org/down", AcceptDocument).
		Return(nil, errors.New("connection refused")).Once()

	fetcher := NewCachingFetcher(next, nil, time.Minute)
	for i := 0; i < 2; i++ {
		resp, err := fetcher.Fetch(context.Background(), "https://example.org/missing", AcceptDocument)
		require.NoError(t, err)
		assert.False(t, resp.FromCache)
	}
	_, err := fetcher.Fetch(context.Background(), "https://example.org/down", AcceptDocument)
	assert.EqualError(t, err, "connection refused")

	next.AssertExpectations(t)
}

func TestMemoryCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewMemoryCache()
	cache.now = func() time.Time { return now }

	cache.Set("k", &Response{StatusCode: 200}, time.Minute)
	_, ok := cache.Get("k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get("k")
	assert.False(t, ok)

	cache.Set("k", &Response{StatusCode: 200}, time.Minute)
	cache.Flush()
	_, ok = cache.Get("k")
	assert.False(t, ok)
}

func TestMemoryFetcher(t *testing.T) {
	fetcher := NewMemoryFetcher().
		AddJSON("https://example.org/a", `{}`).
		Add("https://example.org/i.png", "image/png", []byte{0x89})

	resp, err := fetcher.Fetch(context.Background(), "https://example.org/i.png", AcceptImage)
	require.NoError(t, err)
	assert.True(t, resp.IsImage())

	resp, err = fetcher.Fetch(context.Background(), "https://example.org/none", AcceptDocument)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 1, fetcher.Calls("https://example.org/none"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = fetcher.Fetch(ctx, "https://example.org/a", AcceptDocument)
	assert.ErrorIs(t, err, context.Canceled)
}
