package gems

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/adamwoolhether/gems/client"
)

// Info returns the latest version summary of name.
func (c *Client) Info(ctx context.Context, name string) (Gem, error) {
	if err := checkSegment("name", name); err != nil {
		return Gem{}, err
	}

	var g Gem
	if err := c.get(ctx, "gems/"+name, nil, &g); err != nil {
		return Gem{}, fmt.Errorf("info %s: %w", name, err)
	}

	return g, nil
}

// Search returns one page of gems matching query. Pages start at 1; zero
// lets the registry choose.
func (c *Client) Search(ctx context.Context, query string, page int) ([]Gem, error) {
	params := client.Params{{Key: "query", Value: query}}
	if page > 0 {
		params = params.Add("page", page)
	}

	var gs []Gem
	if err := c.get(ctx, "search", params, &gs); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	return gs, nil
}

// Gems lists the gems owned by handle, or by the authenticated account
// when handle is empty.
func (c *Client) Gems(ctx context.Context, handle string) ([]Gem, error) {
	path := "gems"
	if handle != "" {
		if err := checkSegment("handle", handle); err != nil {
			return nil, err
		}
		path = "owners/" + handle + "/gems"
	}

	var gs []Gem
	if err := c.get(ctx, path, nil, &gs); err != nil {
		return nil, fmt.Errorf("gems: %w", err)
	}

	return gs, nil
}

// Push uploads a built .gem archive and returns the registry's message.
func (c *Client) Push(ctx context.Context, gem []byte) (string, error) {
	call := client.Call{
		Method:      http.MethodPost,
		Path:        "gems",
		Body:        gem,
		ContentType: client.ContentTypeOctetStream,
		Format:      client.FormatRaw,
	}

	var msg string
	if err := c.c.Do(ctx, call, &msg); err != nil {
		return "", fmt.Errorf("push: %w", err)
	}

	return msg, nil
}

// YankOptions narrows a yank or unyank to one platform build.
type YankOptions struct {
	Platform string
}

func (o YankOptions) params(name, version string) client.Params {
	params := client.Params{
		{Key: "gem_name", Value: name},
		{Key: "version", Value: version},
	}
	if o.Platform != "" {
		params = params.Add("platform", o.Platform)
	}

	return params
}

// Yank removes version of name from the index.
func (c *Client) Yank(ctx context.Context, name, version string, opts YankOptions) (string, error) {
	msg, err := c.send(ctx, http.MethodDelete, "gems/yank", opts.params(name, version))
	if err != nil {
		return "", fmt.Errorf("yank %s-%s: %w", name, version, err)
	}

	return msg, nil
}

// Unyank restores a previously yanked version.
func (c *Client) Unyank(ctx context.Context, name, version string, opts YankOptions) (string, error) {
	msg, err := c.send(ctx, http.MethodPut, "gems/unyank", opts.params(name, version))
	if err != nil {
		return "", fmt.Errorf("unyank %s-%s: %w", name, version, err)
	}

	return msg, nil
}

// ReverseDependencies returns the names of gems that depend on name.
func (c *Client) ReverseDependencies(ctx context.Context, name string) ([]string, error) {
	if err := checkSegment("name", name); err != nil {
		return nil, err
	}

	var names []string
	if err := c.get(ctx, "gems/"+name+"/reverse_dependencies", nil, &names); err != nil {
		return nil, fmt.Errorf("reverse dependencies %s: %w", name, err)
	}

	return names, nil
}

// APIKey exchanges the configured username and password for the account's
// API key.
func (c *Client) APIKey(ctx context.Context) (string, error) {
	call := client.Call{
		Path:   "api_key",
		Format: client.FormatRaw,
	}

	var key string
	if err := c.c.Do(ctx, call, &key); err != nil {
		return "", fmt.Errorf("api key: %w", err)
	}

	return key, nil
}

// Fetch downloads the pure-Ruby archive for version of name and returns the
// path written. dest may be a directory, which receives the archive under
// its registry file name, or a file path; empty means the working
// directory. The archive is not verified; see [Client.FetchVerified].
func (c *Client) Fetch(ctx context.Context, name, version, dest string, opts ...client.DownloadOption) (string, error) {
	return c.fetch(ctx, client.Archive{Name: name, Version: version}, dest, opts)
}

// FetchVerified is [Client.Fetch] checked against the SHA-256 digest the
// registry lists for the ruby-platform build of version.
func (c *Client) FetchVerified(ctx context.Context, name, version, dest string, opts ...client.DownloadOption) (string, error) {
	vs, err := c.Versions(ctx, name)
	if err != nil {
		return "", err
	}

	i := slices.IndexFunc(vs, func(v Version) bool {
		return v.Number == version && (v.Platform == "" || v.Platform == "ruby")
	})
	if i < 0 || vs[i].SHA == "" {
		return "", fmt.Errorf("fetch %s-%s: no checksum listed: %w", name, version, client.ErrNotFound)
	}

	return c.fetch(ctx, client.Archive{Name: name, Version: version, SHA256: vs[i].SHA}, dest, opts)
}

func (c *Client) fetch(ctx context.Context, a client.Archive, dest string, opts []client.DownloadOption) (string, error) {
	if err := checkSegment("name", a.Name); err != nil {
		return "", err
	}
	if err := checkSegment("version", a.Version); err != nil {
		return "", err
	}

	call := client.Call{
		Path:         "downloads/" + a.FileName(),
		SkipBasePath: true,
		Format:       client.FormatRaw,
	}

	path, err := c.c.Download(ctx, call, a, dest, opts...)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", a.FileName(), err)
	}

	return path, nil
}
