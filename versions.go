package gems

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adamwoolhether/gems/client"
)

// Versions lists every released version of name, newest first.
func (c *Client) Versions(ctx context.Context, name string) ([]Version, error) {
	if err := checkSegment("name", name); err != nil {
		return nil, err
	}

	var vs []Version
	if err := c.get(ctx, "versions/"+name, nil, &vs); err != nil {
		return nil, fmt.Errorf("versions %s: %w", name, err)
	}

	return vs, nil
}

// LatestVersion returns the newest version number of name. The registry
// serves this endpoint as JSON only.
func (c *Client) LatestVersion(ctx context.Context, name string) (string, error) {
	if err := checkSegment("name", name); err != nil {
		return "", err
	}

	var resp struct {
		Version string `json:"version"`
	}
	call := client.Call{Path: "versions/" + name + "/latest.json", Format: client.FormatJSON}
	if err := c.c.Do(ctx, call, &resp); err != nil {
		return "", fmt.Errorf("latest version %s: %w", name, err)
	}

	return resp.Version, nil
}

// TotalDownloads returns download counters. With an empty name it reports
// the registry-wide total under "total"; otherwise the counts for version
// of name under "version_downloads" and "total_downloads".
func (c *Client) TotalDownloads(ctx context.Context, name, version string) (map[string]int64, error) {
	path := "downloads"
	if name != "" {
		if err := checkSegment("name", name); err != nil {
			return nil, err
		}
		if err := checkSegment("version", version); err != nil {
			return nil, err
		}
		path = "downloads/" + name + "-" + version
	}

	var counts map[string]int64
	if err := c.get(ctx, path, nil, &counts); err != nil {
		return nil, fmt.Errorf("total downloads: %w", err)
	}

	return counts, nil
}

// MostDownloaded returns the most downloaded versions of all time.
func (c *Client) MostDownloaded(ctx context.Context) ([]DownloadRank, error) {
	return c.ranking(ctx, "downloads/all")
}

// MostDownloadedToday returns the most downloaded versions of the day.
func (c *Client) MostDownloadedToday(ctx context.Context) ([]DownloadRank, error) {
	return c.ranking(ctx, "downloads/top")
}

// ranking decodes {"gems": [[{full_name...}, count], ...]}.
func (c *Client) ranking(ctx context.Context, path string) ([]DownloadRank, error) {
	var resp struct {
		Gems [][]any `json:"gems" yaml:"gems"`
	}
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	ranks := make([]DownloadRank, 0, len(resp.Gems))
	for _, entry := range resp.Gems {
		rank, err := parseRank(entry)
		if err != nil {
			return nil, &client.DecodeError{Format: c.format, Err: err}
		}
		ranks = append(ranks, rank)
	}

	return ranks, nil
}

var errRankShape = errors.New("unexpected ranking entry")

func parseRank(entry []any) (DownloadRank, error) {
	if len(entry) != 2 {
		return DownloadRank{}, fmt.Errorf("%w: %d elements", errRankShape, len(entry))
	}

	var fullName string
	switch v := entry[0].(type) {
	case map[string]any:
		fullName, _ = v["full_name"].(string)
	case map[any]any:
		fullName, _ = v["full_name"].(string)
	}
	if fullName == "" {
		return DownloadRank{}, fmt.Errorf("%w: missing full_name", errRankShape)
	}

	count, ok := toInt64(entry[1])
	if !ok {
		return DownloadRank{}, fmt.Errorf("%w: count is %T", errRankShape, entry[1])
	}

	return DownloadRank{FullName: fullName, Count: count}, nil
}

// Downloads returns daily download counts for version of name, keyed by
// ISO date. An empty version resolves to the latest through [Client.Info].
// A zero from returns the registry's default window; otherwise the range
// from..to is requested, with a zero to meaning today.
func (c *Client) Downloads(ctx context.Context, name, version string, from, to time.Time) (map[string]int64, error) {
	if err := checkSegment("name", name); err != nil {
		return nil, err
	}

	if version == "" {
		g, err := c.Info(ctx, name)
		if err != nil {
			return nil, err
		}
		version = g.Version
	}
	if err := checkSegment("version", version); err != nil {
		return nil, err
	}

	path := "versions/" + name + "-" + version + "/downloads"

	var params client.Params
	if !from.IsZero() {
		if to.IsZero() {
			to = time.Now()
		}
		path += "/search"
		params = client.Params{
			{Key: "from", Value: from},
			{Key: "to", Value: to},
		}
	}

	var counts map[string]int64
	if err := c.get(ctx, path, params, &counts); err != nil {
		return nil, fmt.Errorf("downloads %s-%s: %w", name, version, err)
	}

	return counts, nil
}
