package validate

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

// Recipient is the identity block of an assertion.
type Recipient struct {
	// Type is the identifier kind: email, url, telephone or id.
	Type     string
	Identity string
	Hashed   bool
	Salt     string
}

// HashIdentity hashes identity+salt with alg and returns "alg$hex".
func HashIdentity(alg, identity, salt string) (string, error) {
	h, err := newHash(alg)
	if err != nil {
		return "", err
	}
	h.Write([]byte(identity + salt))
	return strings.ToLower(alg) + "$" + hex.EncodeToString(h.Sum(nil)), nil
}

// MatchRecipient returns the first candidate the recipient identity
// belongs to. Hashed identities have the form alg$hex and are compared
// case-insensitively after appending the salt to each candidate.
func MatchRecipient(r Recipient, candidates []string) (string, bool, error) {
	if !r.Hashed {
		for _, c := range candidates {
			if c == r.Identity {
				return c, true, nil
			}
		}
		return "", false, nil
	}

	alg, digest, ok := strings.Cut(r.Identity, "$")
	if !ok {
		return "", false, fmt.Errorf("hashed identity %q has no algorithm prefix", r.Identity)
	}
	for _, c := range candidates {
		hashed, err := HashIdentity(alg, c, r.Salt)
		if err != nil {
			return "", false, err
		}
		_, candidateDigest, _ := strings.Cut(hashed, "$")
		if strings.EqualFold(candidateDigest, digest) {
			return c, true, nil
		}
	}
	return "", false, nil
}

func newHash(alg string) (hash.Hash, error) {
	switch strings.ToLower(alg) {
	case "sha1":
		return sha1.New(), nil
	case "sha256":
		return sha256.New(), nil
	case "md5":
		return md5.New(), nil
	}
	return nil, fmt.Errorf("unsupported identity hash algorithm %q", alg)
}
