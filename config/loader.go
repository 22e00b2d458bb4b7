package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// scenarioFile is the shape of an experiments document: named scenarios, each
// a partial configuration merged over the base.
type scenarioFile struct {
	Defaults  map[string]any `yaml:"defaults"`
	Scenarios map[string]struct {
		Overrides map[string]any `yaml:"overrides"`
	} `yaml:"scenarios"`
}

// Loader resolves scenario configurations from a base document plus an
// optional experiments document.
type Loader struct {
	base      map[string]any
	defaults  map[string]any
	scenarios map[string]map[string]any
}

// NewLoader reads the base configuration file and, when experimentsPath is
// non-empty, the experiments file.
func NewLoader(basePath, experimentsPath string) (*Loader, error) {
	l := &Loader{
		base:      map[string]any{},
		scenarios: map[string]map[string]any{},
	}

	if basePath != "" {
		raw, err := os.ReadFile(basePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &l.base); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if experimentsPath != "" {
		raw, err := os.ReadFile(experimentsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read experiments file: %w", err)
		}
		var sf scenarioFile
		if err := yaml.Unmarshal(raw, &sf); err != nil {
			return nil, fmt.Errorf("failed to parse experiments file: %w", err)
		}
		l.defaults = sf.Defaults
		for id, sc := range sf.Scenarios {
			l.scenarios[id] = sc.Overrides
		}
	}

	return l, nil
}

// Resolve produces the configuration for a scenario: package defaults, then
// the base document, then the experiments defaults, then the scenario's
// overrides, deep-merged in that order. An empty scenario id resolves the
// base alone.
func (l *Loader) Resolve(scenarioID string) (*Config, error) {
	merged := map[string]any{}
	deepMerge(merged, l.base)
	deepMerge(merged, l.defaults)

	if scenarioID != "" {
		overrides, ok := l.scenarios[scenarioID]
		if !ok {
			return nil, fmt.Errorf("scenario %q not found (have %d scenarios)", scenarioID, len(l.scenarios))
		}
		deepMerge(merged, overrides)
	}

	cfg := Default()
	if len(merged) > 0 {
		// Round-trip through YAML to apply the merged tree over defaults.
		raw, err := yaml.Marshal(merged)
		if err != nil {
			return nil, fmt.Errorf("failed to re-encode merged config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to apply merged config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ScenarioIDs lists the scenarios known to the loader.
func (l *Loader) ScenarioIDs() []string {
	ids := make([]string, 0, len(l.scenarios))
	for id := range l.scenarios {
		ids = append(ids, id)
	}
	return ids
}

// deepMerge writes src over dst, descending into nested maps rather than
// replacing them wholesale.
func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				deepMerge(existing, sub)
				continue
			}
			fresh := map[string]any{}
			deepMerge(fresh, sub)
			dst[k] = fresh
			continue
		}
		dst[k] = v
	}
}
