package gems

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/adamwoolhether/gems/client"
)

// Latest returns the most recently added gems.
func (c *Client) Latest(ctx context.Context) ([]Gem, error) {
	var gs []Gem
	if err := c.get(ctx, "activity/latest", nil, &gs); err != nil {
		return nil, fmt.Errorf("latest: %w", err)
	}

	return gs, nil
}

// JustUpdated returns the most recently updated gems.
func (c *Client) JustUpdated(ctx context.Context) ([]Gem, error) {
	var gs []Gem
	if err := c.get(ctx, "activity/just_updated", nil, &gs); err != nil {
		return nil, fmt.Errorf("just updated: %w", err)
	}

	return gs, nil
}

// Dependencies returns every version of the named gems with its runtime
// requirements. The registry only serves this index in Marshal format.
func (c *Client) Dependencies(ctx context.Context, names ...string) (Dependencies, error) {
	call := client.Call{
		Method: http.MethodGet,
		Path:   "dependencies",
		Params: client.Params{{Key: "gems", Value: slices.Clone(names)}},
		Format: client.FormatMarshal,
	}

	var deps Dependencies
	if err := c.c.Do(ctx, call, &deps); err != nil {
		return nil, fmt.Errorf("dependencies %s: %w", strings.Join(names, ","), err)
	}

	return deps, nil
}
