package download

import (
	"context"
	"io"
)

// bodyReader stops a copy between reads once ctx is done and marks read
// failures as [TransferError], so they aren't mistaken for disk errors.
type bodyReader struct {
	ctx context.Context
	r   io.Reader
}

func (br *bodyReader) Read(p []byte) (int, error) {
	if err := br.ctx.Err(); err != nil {
		return 0, &TransferError{Err: err}
	}

	n, err := br.r.Read(p)
	if err != nil && err != io.EOF {
		return n, &TransferError{Err: err}
	}

	return n, err
}
