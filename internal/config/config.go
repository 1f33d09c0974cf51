// Package config loads the badgecheck CLI configuration file.
package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/capiscio/badgecheck/pkg/verifier"
)

// File is the decoded configuration file.
//
//	max_validation_depth = 4
//	http_timeout         = "5s"
//	user_agent           = "my-verifier/1.0"
//	log_level            = "debug"
//	log_format           = "json"
//
//	cache {
//	  enabled = true
//	  ttl     = "10m"
//	}
//
//	recipient "email" {
//	  identities = ["someone@example.org"]
//	}
type File struct {
	MaxValidationDepth int         `hcl:"max_validation_depth,optional"`
	HTTPTimeout        string      `hcl:"http_timeout,optional"`
	UserAgent          string      `hcl:"user_agent,optional"`
	LogLevel           string      `hcl:"log_level,optional"`
	LogFormat          string      `hcl:"log_format,optional"`
	Cache              *Cache      `hcl:"cache,block"`
	Recipients         []Recipient `hcl:"recipient,block"`
}

// Cache configures response caching.
type Cache struct {
	Enabled *bool  `hcl:"enabled,optional"`
	TTL     string `hcl:"ttl,optional"`
}

// Recipient lists the identifiers a recipient claims for one type.
type Recipient struct {
	Type       string   `hcl:"type,label"`
	Identities []string `hcl:"identities"`
}

var (
	validLevels  = map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}
	validFormats = map[string]bool{"": true, "text": true, "json": true}
)

// Load reads and validates the configuration file at path.
func Load(path string) (*File, error) {
	var f File
	if err := hclsimple.DecodeFile(path, nil, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &f, nil
}

// Parse decodes configuration source. The filename extension selects native
// HCL (.hcl) or JSON (.json) syntax.
func Parse(filename string, src []byte) (*File, error) {
	var f File
	if err := hclsimple.Decode(filename, src, nil, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filename, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	return &f, nil
}

// Validate checks values the decoder cannot.
func (f *File) Validate() error {
	if f.MaxValidationDepth < 0 {
		return fmt.Errorf("max_validation_depth must not be negative, got %d", f.MaxValidationDepth)
	}
	if _, err := parseDuration("http_timeout", f.HTTPTimeout); err != nil {
		return err
	}
	if f.Cache != nil {
		if _, err := parseDuration("cache.ttl", f.Cache.TTL); err != nil {
			return err
		}
	}
	if !validLevels[f.LogLevel] {
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", f.LogLevel)
	}
	if !validFormats[f.LogFormat] {
		return fmt.Errorf("log_format must be text or json; got %q", f.LogFormat)
	}
	seen := map[string]bool{}
	for _, r := range f.Recipients {
		if seen[r.Type] {
			return fmt.Errorf("duplicate recipient block %q", r.Type)
		}
		seen[r.Type] = true
	}
	return nil
}

// Apply copies the values set in the file onto cfg.
func (f *File) Apply(cfg *verifier.Config) error {
	if f.MaxValidationDepth > 0 {
		cfg.MaxValidationDepth = f.MaxValidationDepth
	}
	timeout, err := parseDuration("http_timeout", f.HTTPTimeout)
	if err != nil {
		return err
	}
	if timeout > 0 {
		cfg.HTTPTimeout = timeout
	}
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	if f.Cache != nil {
		if f.Cache.Enabled != nil {
			cfg.CacheEnabled = *f.Cache.Enabled
		}
		ttl, err := parseDuration("cache.ttl", f.Cache.TTL)
		if err != nil {
			return err
		}
		if ttl > 0 {
			cfg.CacheTTL = ttl
		}
	}
	return nil
}

// RecipientProfile returns the recipient blocks as a profile, or nil when
// there are none.
func (f *File) RecipientProfile() map[string][]string {
	if len(f.Recipients) == 0 {
		return nil
	}
	profile := make(map[string][]string, len(f.Recipients))
	for _, r := range f.Recipients {
		profile[r.Type] = append(profile[r.Type], r.Identities...)
	}
	return profile
}

func parseDuration(name, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", name, s)
	}
	return d, nil
}
