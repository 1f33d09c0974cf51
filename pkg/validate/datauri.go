package validate

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotDataURI is returned when a value is not a data URI.
var ErrNotDataURI = errors.New("not a data URI")

// Allowed image media types.
const (
	MediaTypePNG = "image/png"
	MediaTypeSVG = "image/svg+xml"
)

// DataURI is a parsed data: URI.
type DataURI struct {
	MediaType string
	Data      []byte
}

// IsDataURI reports whether s uses the data: scheme.
func IsDataURI(s string) bool {
	return len(s) >= 5 && strings.EqualFold(s[:5], "data:")
}

// ParseDataURI decodes a data: URI in base64 or percent-encoded form.
func ParseDataURI(s string) (*DataURI, error) {
	if !IsDataURI(s) {
		return nil, ErrNotDataURI
	}
	meta, payload, ok := strings.Cut(s[5:], ",")
	if !ok {
		return nil, fmt.Errorf("data URI has no payload separator")
	}
	params := strings.Split(meta, ";")
	mediaType := strings.ToLower(strings.TrimSpace(params[0]))
	if mediaType == "" {
		mediaType = "text/plain"
	}
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	var data []byte
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data URI payload: %w", err)
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("invalid data URI payload: %w", err)
		}
		data = []byte(unescaped)
	}
	return &DataURI{MediaType: mediaType, Data: data}, nil
}

// EncodeDataURI renders data as a base64 data URI.
func EncodeDataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// AllowedImageType reports whether mediaType may be used for badge images.
func AllowedImageType(mediaType string) bool {
	switch strings.ToLower(mediaType) {
	case MediaTypePNG, MediaTypeSVG:
		return true
	}
	return false
}
