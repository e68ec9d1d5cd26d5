// Package gems is a client for the RubyGems registry API.
//
// Every operation is a thin caller of [client.Client]: it names a path,
// parameters and the format it expects back, and the client package does
// the rest. Endpoints that serve both JSON and YAML use the format set in
// [config.Config.Format].
//
//	c, err := gems.New()
//	if err != nil {
//		return err
//	}
//	rails, err := c.Info(ctx, "rails")
package gems

import (
	"context"
	"errors"
	"strings"

	"github.com/adamwoolhether/gems/client"
	"github.com/adamwoolhether/gems/config"
)

// Client calls the registry with a fixed configuration snapshot.
type Client struct {
	c      *client.Client
	format client.Format
}

// New instantiates a Client from the process-wide configuration.
// Later calls to [config.Set] or [config.Update] do not affect it.
func New(opts ...client.Option) (*Client, error) {
	return NewWithConfig(config.Current(), opts...)
}

// NewWithConfig instantiates a Client from cfg.
func NewWithConfig(cfg config.Config, opts ...client.Option) (*Client, error) {
	c, err := client.Build(cfg, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		c:      c,
		format: client.PreferredFormat(cfg),
	}, nil
}

// Config returns the configuration snapshot in use.
func (c *Client) Config() config.Config {
	return c.c.Config()
}

// withExt appends the preferred format's extension to path.
func (c *Client) withExt(path string) string {
	return path + "." + c.format.String()
}

// get fetches path in the preferred format.
func (c *Client) get(ctx context.Context, path string, params client.Params, dest any) error {
	call := client.Call{
		Path:   c.withExt(path),
		Params: params,
		Format: c.format,
	}

	return c.c.Do(ctx, call, dest)
}

// send issues a write and returns the registry's confirmation text.
func (c *Client) send(ctx context.Context, method, path string, params client.Params) (string, error) {
	call := client.Call{
		Method: method,
		Path:   path,
		Params: params,
		Format: client.FormatRaw,
	}

	var msg string
	if err := c.c.Do(ctx, call, &msg); err != nil {
		return "", err
	}

	return msg, nil
}

var errInvalidName = errors.New("must be non-empty and contain no path separators")

// checkSegment rejects values that would escape their path segment.
func checkSegment(field, v string) error {
	if v == "" || strings.ContainsAny(v, "/?#") || v == "." || v == ".." {
		return &client.ConfigError{Field: field, Err: errInvalidName}
	}

	return nil
}
