package download

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestArchive_FileName(t *testing.T) {
	testCases := map[string]struct {
		archive Archive
		exp     string
	}{
		"pureRuby":     {Archive{Name: "rails", Version: "7.1.0"}, "rails-7.1.0.gem"},
		"rubyPlatform": {Archive{Name: "rails", Version: "7.1.0", Platform: "ruby"}, "rails-7.1.0.gem"},
		"native":       {Archive{Name: "nokogiri", Version: "1.16.0", Platform: "x86_64-linux"}, "nokogiri-1.16.0-x86_64-linux.gem"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if got := tc.archive.FileName(); got != tc.exp {
				t.Errorf("exp %q, got %q", tc.exp, got)
			}
		})
	}
}

func TestArchive_Validate(t *testing.T) {
	testCases := map[string]struct {
		archive Archive
		valid   bool
	}{
		"valid":          {Archive{Name: "rails", Version: "7.1.0", SHA256: strings.Repeat("ab", 32)}, true},
		"upperCaseSHA":   {Archive{Name: "rails", Version: "7.1.0", SHA256: strings.Repeat("AB", 32)}, true},
		"missingName":    {Archive{Version: "7.1.0"}, false},
		"missingVersion": {Archive{Name: "rails"}, false},
		"separator":      {Archive{Name: "../rails", Version: "7.1.0"}, false},
		"shortSHA":       {Archive{Name: "rails", Version: "7.1.0", SHA256: "abc123"}, false},
		"notHex":         {Archive{Name: "rails", Version: "7.1.0", SHA256: strings.Repeat("zz", 32)}, false},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			err := tc.archive.Validate()
			if tc.valid && err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if !tc.valid && err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestHandle(t *testing.T) {
	body := []byte("gem archive bytes")
	sum := sha256.Sum256(body)
	digest := hex.EncodeToString(sum[:])

	testCases := map[string]struct {
		contentLength int64
		sha           string
		opts          []Option
		err           error
	}{
		"unverified": {
			contentLength: int64(len(body)),
		},
		"unknownLength": {
			contentLength: -1,
			sha:           digest,
		},
		"checksumPass": {
			contentLength: int64(len(body)),
			sha:           digest,
		},
		"checksumUpperCase": {
			contentLength: int64(len(body)),
			sha:           strings.ToUpper(digest),
		},
		"checksumFail": {
			contentLength: int64(len(body)),
			sha:           strings.Repeat("0", 64),
			err:           ErrChecksumMismatch,
		},
		"lengthMismatch": {
			contentLength: int64(len(body)) + 10,
			err:           ErrLengthMismatch,
		},
		"progress": {
			contentLength: int64(len(body)),
			opts:          []Option{WithProgress(0)},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			a := Archive{Name: "rails", Version: "7.1.0", SHA256: tc.sha}

			path, err := Handle(t.Context(), bytes.NewReader(body), tc.contentLength, a, dir, discardLogger(), tc.opts...)
			dest := filepath.Join(dir, "rails-7.1.0.gem")
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("exp err: %v, got: %v", tc.err, err)
				}
				var integrity *IntegrityError
				if !errors.As(err, &integrity) || integrity.File != "rails-7.1.0.gem" {
					t.Errorf("expected IntegrityError naming the archive, got: %v", err)
				}
				if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
					t.Errorf("expected %s to not exist after failure", dest)
				}
				assertNoTempFiles(t, dir)
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}

			if path != dest {
				t.Errorf("exp path %s, got %s", dest, path)
			}
			got, err := os.ReadFile(dest)
			if err != nil {
				t.Fatalf("reading archive: %v", err)
			}
			if !bytes.Equal(got, body) {
				t.Errorf("archive contents mismatch; got %q, want %q", got, body)
			}
			assertNoTempFiles(t, dir)
		})
	}
}

func TestHandle_FilePath(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "renamed.gem")
	a := Archive{Name: "thor", Version: "1.3.0"}

	path, err := Handle(t.Context(), strings.NewReader("thor"), 4, a, dest, discardLogger())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if path != dest {
		t.Errorf("exp path %s, got %s", dest, path)
	}
}

func TestHandle_InvalidArchive(t *testing.T) {
	dir := t.TempDir()

	_, err := Handle(t.Context(), strings.NewReader("x"), 1, Archive{Name: "rails"}, dir, discardLogger())
	if err == nil {
		t.Fatal("expected an error")
	}
	assertNoTempFiles(t, dir)
}

func TestHandle_TransferErrors(t *testing.T) {
	cancelled, cancel := context.WithCancel(t.Context())
	cancel()

	testCases := map[string]struct {
		ctx  context.Context
		body io.Reader
		err  error
	}{
		"cancelled": {
			ctx:  cancelled,
			body: strings.NewReader("never read"),
			err:  context.Canceled,
		},
		"bodyFails": {
			ctx:  t.Context(),
			body: iotest.ErrReader(io.ErrUnexpectedEOF),
			err:  io.ErrUnexpectedEOF,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			a := Archive{Name: "thor", Version: "1.3.0"}

			_, err := Handle(tc.ctx, tc.body, -1, a, dir, discardLogger())

			var transfer *TransferError
			if !errors.As(err, &transfer) {
				t.Fatalf("expected TransferError, got: %v", err)
			}
			if !errors.Is(err, tc.err) {
				t.Errorf("expected %v in chain, got: %v", tc.err, err)
			}
			assertNoTempFiles(t, dir)
		})
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, ".*.part"))
	if err != nil {
		t.Fatalf("globbing temp files: %v", err)
	}
	if len(matches) > 0 {
		t.Errorf("expected no temp files, found: %v", matches)
	}
}
