package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Option configures [Handle].
type Option func(*options)

type options struct {
	progress time.Duration
}

// WithProgress logs transfer progress every interval. A non-positive
// interval means once per second.
func WithProgress(interval time.Duration) Option {
	return func(opts *options) {
		if interval <= 0 {
			interval = time.Second
		}
		opts.progress = interval
	}
}

// Destination resolves where a is written for dest. An empty dest means the
// working directory, and an existing directory receives the archive under
// its registry file name. Any other dest is the file path itself.
func Destination(dest string, a Archive) string {
	if dest == "" {
		return a.FileName()
	}

	if fi, err := os.Stat(dest); err == nil && fi.IsDir() {
		return filepath.Join(dest, a.FileName())
	}

	return dest
}

// Handle streams body, the registry's copy of a, to the path [Destination]
// resolves for dest and returns that path.
//
// The bytes land in a hidden temp file named after the archive beside the
// final path. It is renamed into place only once its length matches
// contentLength and, when a carries a digest, its SHA-256 matches. On any
// failure the temp file is removed and the final path is left untouched.
// A negative contentLength skips the length check.
func Handle(ctx context.Context, body io.Reader, contentLength int64, a Archive, dest string, logger *slog.Logger, optFns ...Option) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}

	var opts options
	for _, opt := range optFns {
		opt(&opts)
	}

	file := a.FileName()
	path := Destination(dest, a)
	logger = logger.With("archive", file, "path", path)

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+file+".*.part")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}

	var saved bool
	defer func() {
		if err := tmp.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			logger.Error("closing temp file", "error", err)
		}
		if !saved {
			if err := os.Remove(tmp.Name()); err != nil {
				logger.Error("removing temp file", "error", err)
			}
		}
	}()

	sum := newDigest(a.SHA256)

	var w io.Writer = tmp
	if sum != nil {
		w = io.MultiWriter(tmp, sum)
	}
	if opts.progress > 0 {
		w = &progress{
			next:     w,
			logger:   logger,
			interval: opts.progress,
			size:     contentLength,
			began:    time.Now(),
		}
	}

	n, err := io.Copy(w, &bodyReader{ctx: ctx, r: body})
	if err != nil {
		return "", fmt.Errorf("saving %s: %w", file, err)
	}

	if contentLength >= 0 && n != contentLength {
		return "", &IntegrityError{
			File:     file,
			Expected: fmt.Sprintf("%d bytes", contentLength),
			Actual:   fmt.Sprintf("%d bytes", n),
			Err:      ErrLengthMismatch,
		}
	}

	if err := sum.verify(file); err != nil {
		return "", err
	}

	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("renaming temp file: %w", err)
	}

	saved = true
	logger.Debug("archive saved", "bytes", n, "verified", sum != nil)

	return path, nil
}
