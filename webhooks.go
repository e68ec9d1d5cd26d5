package gems

import (
	"context"
	"fmt"
	"net/http"

	"github.com/adamwoolhether/gems/client"
)

// AllGems is the gem name that registers a hook for every gem the account
// owns.
const AllGems = "*"

// WebHooks lists the account's hooks keyed by gem name. Global hooks are
// listed under "all gems".
func (c *Client) WebHooks(ctx context.Context) (map[string][]WebHook, error) {
	var hooks map[string][]WebHook
	if err := c.get(ctx, "web_hooks", nil, &hooks); err != nil {
		return nil, fmt.Errorf("web hooks: %w", err)
	}

	return hooks, nil
}

// AddWebHook registers url for pushes of name, or of every gem with [AllGems].
func (c *Client) AddWebHook(ctx context.Context, name, url string) (string, error) {
	return c.webHook(ctx, http.MethodPost, "web_hooks", name, url)
}

// RemoveWebHook unregisters url for name.
func (c *Client) RemoveWebHook(ctx context.Context, name, url string) (string, error) {
	return c.webHook(ctx, http.MethodDelete, "web_hooks/remove", name, url)
}

// FireWebHook sends a test notification for name to url.
func (c *Client) FireWebHook(ctx context.Context, name, url string) (string, error) {
	return c.webHook(ctx, http.MethodPost, "web_hooks/fire", name, url)
}

func (c *Client) webHook(ctx context.Context, method, path, name, url string) (string, error) {
	params := client.Params{
		{Key: "gem_name", Value: name},
		{Key: "url", Value: url},
	}

	msg, err := c.send(ctx, method, path, params)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", path, name, err)
	}

	return msg, nil
}
