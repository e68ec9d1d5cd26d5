package client

import (
	"errors"
	"time"

	"github.com/adamwoolhether/gems/client/download"
)

type (
	// Archive names the gem release a [Client.Download] call fetches.
	Archive = download.Archive

	// DownloadOption configures [Client.Download].
	DownloadOption = download.Option
)

// WithProgress logs download progress every interval, or once per second
// when interval is not positive.
func WithProgress(interval time.Duration) DownloadOption {
	return download.WithProgress(interval)
}

// downloadError places a failure from [download.Handle] in the error
// taxonomy. A received archive that fails its checks is a decode failure of
// a raw body, a body that stops mid-stream is a network failure, and
// anything else concerns the destination the caller chose.
func downloadError(method, url string, err error) error {
	var (
		integrity *download.IntegrityError
		transfer  *download.TransferError
	)

	switch {
	case errors.As(err, &integrity):
		return &DecodeError{Format: FormatRaw, Err: err}
	case errors.As(err, &transfer):
		return newNetworkError(method, url, transfer.Err)
	default:
		return &ConfigError{Field: "dest_path", Err: err}
	}
}
