// Package signing handles JWS-signed badge assertions.
package signing

import (
	"crypto"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/go-jose/go-jose/v4"
)

// Common errors returned by this package.
var (
	ErrMalformed        = errors.New("malformed JWS")
	ErrSignatureInvalid = errors.New("signature verification failed")
	ErrInvalidKey       = errors.New("invalid public key")
)

// Algorithms accepted for badge signatures.
var Algorithms = []jose.SignatureAlgorithm{
	jose.RS256, jose.RS384, jose.RS512,
	jose.PS256, jose.PS384, jose.PS512,
	jose.ES256, jose.ES384, jose.ES512,
	jose.EdDSA,
}

// Decoded is the unverified content of a compact JWS.
type Decoded struct {
	Algorithm string
	KeyID     string
	Payload   []byte
}

// Document unmarshals the payload as a JSON object.
func (d *Decoded) Document() (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(d.Payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object: %v", ErrMalformed, err)
	}
	return doc, nil
}

// LooksLikeJWS reports whether s has the shape of a compact JWS: three
// dot-separated base64url segments with a JSON header.
func LooksLikeJWS(s string) bool {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return false
	}
	header, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	var h map[string]any
	return json.Unmarshal(header, &h) == nil
}

// Decode parses token without verifying it.
func Decode(token string) (*Decoded, error) {
	jwsObj, err := jose.ParseSigned(strings.TrimSpace(token), Algorithms)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(jwsObj.Signatures) != 1 {
		return nil, fmt.Errorf("%w: expected one signature, got %d", ErrMalformed, len(jwsObj.Signatures))
	}
	header := jwsObj.Signatures[0].Protected
	return &Decoded{
		Algorithm: header.Algorithm,
		KeyID:     header.KeyID,
		Payload:   jwsObj.UnsafePayloadWithoutVerification(),
	}, nil
}

// Verify checks token against a PEM-encoded public key and returns the
// verified payload.
func Verify(token string, publicKeyPEM string) ([]byte, error) {
	// Step 1: Parse JWS
	jwsObj, err := jose.ParseSigned(strings.TrimSpace(token), Algorithms)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	// Step 2: Load key
	pubKey, err := ParsePublicKeyPEM(publicKeyPEM)
	if err != nil {
		return nil, err
	}

	// Step 3: Verify signature
	payload, err := jwsObj.Verify(pubKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	return payload, nil
}

// ParsePublicKeyPEM decodes a PKIX or PKCS#1 public key.
func ParsePublicKeyPEM(data string) (crypto.PublicKey, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(data)))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidKey)
	}
	if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}
	return nil, fmt.Errorf("%w: unsupported key encoding in %s block", ErrInvalidKey, block.Type)
}

// EncodePublicKeyPEM renders a public key as a PKIX PEM block.
func EncodePublicKeyPEM(pub crypto.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// Sign signs payload and returns the compact serialization.
func Sign(payload []byte, alg jose.SignatureAlgorithm, key crypto.Signer) (string, error) {
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: alg, Key: key}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create signer: %w", err)
	}

	jws, err := signer.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("failed to sign payload: %w", err)
	}

	return jws.CompactSerialize()
}
