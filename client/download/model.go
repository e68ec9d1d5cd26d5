package download

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Archive identifies one packaged gem release.
type Archive struct {
	Name    string
	Version string

	// Platform is empty or "ruby" for the pure-Ruby build.
	Platform string

	// SHA256 is the hex digest the registry lists for the archive. When
	// empty the download is not verified.
	SHA256 string
}

// FileName returns the name the registry serves the archive under, such as
// rails-7.1.0.gem or nokogiri-1.16.0-x86_64-linux.gem.
func (a Archive) FileName() string {
	base := a.Name + "-" + a.Version
	if a.Platform != "" && a.Platform != "ruby" {
		base += "-" + a.Platform
	}

	return base + ".gem"
}

// Validate reports whether a can name a file and, if it carries a digest,
// whether the digest is a SHA-256 hex string.
func (a Archive) Validate() error {
	for _, part := range []struct{ field, v string }{
		{"name", a.Name},
		{"version", a.Version},
		{"platform", a.Platform},
	} {
		if part.v == "" && part.field != "platform" {
			return fmt.Errorf("archive %s must not be empty", part.field)
		}
		if strings.ContainsAny(part.v, `/\`) {
			return fmt.Errorf("archive %s %q contains a path separator", part.field, part.v)
		}
	}

	if a.SHA256 != "" {
		if b, err := hex.DecodeString(a.SHA256); err != nil || len(b) != sha256.Size {
			return fmt.Errorf("archive sha256 %q is not a hex SHA-256 digest", a.SHA256)
		}
	}

	return nil
}

var (
	ErrLengthMismatch   = errors.New("archive length mismatch")
	ErrChecksumMismatch = errors.New("archive checksum mismatch")
)

// IntegrityError reports an archive that arrived in full but doesn't match
// what the registry advertised for it.
type IntegrityError struct {
	File     string
	Expected string
	Actual   string
	Err      error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %v: expected %s, got %s", e.File, e.Err, e.Expected, e.Actual)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// TransferError wraps a failure reading the response body, including
// cancellation of the request context mid-stream.
type TransferError struct {
	Err error
}

func (e *TransferError) Error() string {
	return "reading archive: " + e.Err.Error()
}

func (e *TransferError) Unwrap() error {
	return e.Err
}
