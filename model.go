package gems

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/adamwoolhether/gems/client/marshal"
)

// Gem is the registry's summary of a gem at its latest version.
type Gem struct {
	Name             string            `json:"name" yaml:"name"`
	Version          string            `json:"version" yaml:"version"`
	Platform         string            `json:"platform" yaml:"platform"`
	Authors          string            `json:"authors" yaml:"authors"`
	Info             string            `json:"info" yaml:"info"`
	Licenses         []string          `json:"licenses" yaml:"licenses"`
	Metadata         map[string]string `json:"metadata" yaml:"metadata"`
	Downloads        int64             `json:"downloads" yaml:"downloads"`
	VersionDownloads int64             `json:"version_downloads" yaml:"version_downloads"`
	Yanked           bool              `json:"yanked" yaml:"yanked"`
	SHA              string            `json:"sha" yaml:"sha"`
	ProjectURI       string            `json:"project_uri" yaml:"project_uri"`
	GemURI           string            `json:"gem_uri" yaml:"gem_uri"`
	HomepageURI      string            `json:"homepage_uri" yaml:"homepage_uri"`
	SourceCodeURI    string            `json:"source_code_uri" yaml:"source_code_uri"`
	DocumentationURI string            `json:"documentation_uri" yaml:"documentation_uri"`
	Dependencies     GemDependencies   `json:"dependencies" yaml:"dependencies"`
}

// GemDependencies splits a gem's requirements by scope.
type GemDependencies struct {
	Development []Requirement `json:"development" yaml:"development"`
	Runtime     []Requirement `json:"runtime" yaml:"runtime"`
}

// Requirement is a dependency name with its version constraint, e.g. ">= 1.2".
type Requirement struct {
	Name         string `json:"name" yaml:"name"`
	Requirements string `json:"requirements" yaml:"requirements"`
}

// Version is one released version of a gem.
type Version struct {
	Number         string            `json:"number" yaml:"number"`
	Platform       string            `json:"platform" yaml:"platform"`
	Prerelease     bool              `json:"prerelease" yaml:"prerelease"`
	Summary        string            `json:"summary" yaml:"summary"`
	Authors        string            `json:"authors" yaml:"authors"`
	Licenses       []string          `json:"licenses" yaml:"licenses"`
	Metadata       map[string]string `json:"metadata" yaml:"metadata"`
	DownloadsCount int64             `json:"downloads_count" yaml:"downloads_count"`
	SHA            string            `json:"sha" yaml:"sha"`
	RubyVersion    string            `json:"ruby_version" yaml:"ruby_version"`
	CreatedAt      string            `json:"created_at" yaml:"created_at"`
}

// Owner is an account allowed to push a gem.
type Owner struct {
	ID     int64  `json:"id" yaml:"id"`
	Handle string `json:"handle" yaml:"handle"`
	Email  string `json:"email" yaml:"email"`
}

// WebHook is a URL notified when a gem is pushed.
type WebHook struct {
	URL          string `json:"url" yaml:"url"`
	FailureCount int    `json:"failure_count" yaml:"failure_count"`
}

// DownloadRank pairs a gem version with its download count.
type DownloadRank struct {
	FullName string
	Count    int64
}

// Dependency is one entry of the dependency index: a version of a gem and
// the runtime requirements it declares.
type Dependency struct {
	Name         string
	Number       string
	Platform     string
	Dependencies []Requirement
}

var errShape = errors.New("unexpected dependency shape")

// UnmarshalMarshal implements [marshal.Unmarshaler].
func (d *Dependency) UnmarshalMarshal(v any) error {
	m, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: entry is %T", errShape, v)
	}

	var dep Dependency
	for key, dst := range map[string]*string{"name": &dep.Name, "number": &dep.Number, "platform": &dep.Platform} {
		s, ok := marshal.AsString(m[key])
		if !ok {
			return fmt.Errorf("%w: %s is %T", errShape, key, m[key])
		}
		*dst = s
	}

	reqs, ok := m["dependencies"].([]any)
	if !ok {
		return fmt.Errorf("%w: dependencies is %T", errShape, m["dependencies"])
	}
	for _, r := range reqs {
		pair, ok := r.([]any)
		if !ok || len(pair) != 2 {
			return fmt.Errorf("%w: requirement %v", errShape, r)
		}
		name, ok1 := marshal.AsString(pair[0])
		constraint, ok2 := marshal.AsString(pair[1])
		if !ok1 || !ok2 {
			return fmt.Errorf("%w: requirement %v", errShape, r)
		}
		dep.Dependencies = append(dep.Dependencies, Requirement{Name: name, Requirements: constraint})
	}

	*d = dep

	return nil
}

// Dependencies is the decoded dependency index response.
type Dependencies []Dependency

// UnmarshalMarshal implements [marshal.Unmarshaler].
func (ds *Dependencies) UnmarshalMarshal(v any) error {
	arr, ok := v.([]any)
	if !ok {
		return fmt.Errorf("%w: response is %T", errShape, v)
	}

	out := make(Dependencies, len(arr))
	for i, item := range arr {
		if err := out[i].UnmarshalMarshal(item); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	*ds = out

	return nil
}

// toInt64 normalizes the numeric types produced by the JSON and YAML decoders.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case *big.Int:
		return n.Int64(), n.IsInt64()
	default:
		return 0, false
	}
}
