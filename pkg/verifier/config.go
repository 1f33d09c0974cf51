package verifier

import (
	"time"

	"github.com/go-logr/logr"

	"github.com/capiscio/badgecheck/pkg/extension"
	"github.com/capiscio/badgecheck/pkg/loader"
)

// DefaultMaxValidationDepth bounds how far reference chains are followed.
const DefaultMaxValidationDepth = 8

// maxDeferrals bounds how often a blocked task is sent back to wait.
const maxDeferrals = 8

// Unbaker extracts the badge metadata embedded in a PNG or SVG image. The
// result is a URL, a JSON document or a compact JWS.
type Unbaker interface {
	Unbake(data []byte, mediaType string) (string, error)
}

// UnbakerFunc adapts a function to Unbaker.
type UnbakerFunc func(data []byte, mediaType string) (string, error)

// Unbake calls f.
func (f UnbakerFunc) Unbake(data []byte, mediaType string) (string, error) {
	return f(data, mediaType)
}

// Config holds the verifier dependencies and defaults.
type Config struct {
	// Fetcher retrieves remote documents. Defaults to an HTTPFetcher.
	Fetcher loader.Fetcher

	// CacheEnabled wraps the fetcher in a caching layer.
	CacheEnabled bool

	// Cache backs the caching layer. When nil every Verify call gets its
	// own in-memory cache.
	Cache loader.Cache

	// CacheTTL is how long cached responses are reused.
	CacheTTL time.Duration

	// HTTPTimeout applies to the default HTTP fetcher.
	HTTPTimeout time.Duration

	// UserAgent is sent by the default HTTP fetcher.
	UserAgent string

	// MaxValidationDepth bounds recursive validation of related nodes.
	MaxValidationDepth int

	// Logger receives run diagnostics.
	Logger logr.Logger

	// SchemaValidator checks extension nodes.
	SchemaValidator extension.SchemaValidator

	// Unbaker extracts badges from images. Image input fails without one.
	Unbaker Unbaker

	// Now overrides the current time (for testing).
	Now func() time.Time
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		CacheEnabled:       true,
		CacheTTL:           loader.DefaultCacheTTL,
		HTTPTimeout:        10 * time.Second,
		UserAgent:          loader.DefaultUserAgent,
		MaxValidationDepth: DefaultMaxValidationDepth,
		Logger:             logr.Discard(),
		SchemaValidator:    extension.NewJSONSchemaValidator(),
		Now:                time.Now,
	}
}

// VerifyOptions configures a single verification.
type VerifyOptions struct {
	// RecipientProfile maps identifier types (email, url, telephone, id)
	// to the candidate identifiers the recipient claims.
	RecipientProfile map[string][]string

	// MaxValidationDepth overrides Config.MaxValidationDepth when positive.
	MaxValidationDepth int
}
