package download

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

// progress logs how much of an archive has arrived, at most once per
// interval and once more when a known size is reached.
type progress struct {
	next     io.Writer
	logger   *slog.Logger
	interval time.Duration

	size     int64
	received int64
	began    time.Time
	logged   time.Time
}

func (p *progress) Write(b []byte) (int, error) {
	n, err := p.next.Write(b)
	p.received += int64(n)

	switch {
	case p.size > 0 && p.received == p.size:
		p.log("archive received")
	case time.Since(p.logged) >= p.interval:
		p.logged = time.Now()
		p.log("fetching archive")
	}

	return n, err
}

func (p *progress) log(msg string) {
	attrs := []any{
		"received", p.received,
		"elapsed", time.Since(p.began).Round(time.Millisecond),
	}
	// Chunked responses carry no length.
	if p.size > 0 {
		attrs = append(attrs,
			"size", p.size,
			"percent", fmt.Sprintf("%.1f", float64(p.received)/float64(p.size)*100),
		)
	}

	p.logger.Info(msg, attrs...)
}
