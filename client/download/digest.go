package download

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strings"
)

// digest hashes the archive as it streams.
type digest struct {
	hash.Hash
	expected string
}

// newDigest returns nil when there is nothing to verify against.
func newDigest(expected string) *digest {
	if expected == "" {
		return nil
	}

	return &digest{Hash: sha256.New(), expected: strings.ToLower(expected)}
}

// verify is a no-op on a nil digest.
func (d *digest) verify(file string) error {
	if d == nil {
		return nil
	}

	actual := hex.EncodeToString(d.Sum(nil))
	if actual != d.expected {
		return &IntegrityError{
			File:     file,
			Expected: "sha256:" + d.expected,
			Actual:   "sha256:" + actual,
			Err:      ErrChecksumMismatch,
		}
	}

	return nil
}
