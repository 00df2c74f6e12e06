package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Upstream struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type upstreamsFile struct {
	Upstreams []Upstream `yaml:"upstreams"`
}

// Read the list of upstreams to watch from a YAML file on disk.
func UpstreamsFromFile(path string) ([]Upstream, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstreams file: %w", err)
	}

	return parseUpstreams(data)
}

func parseUpstreams(data []byte) ([]Upstream, error) {
	var parsed upstreamsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse upstreams file: %w", ErrInvalidValue, err)
	}

	if len(parsed.Upstreams) == 0 {
		return nil, fmt.Errorf("%w: upstreams file contains no upstreams", ErrInvalidValue)
	}

	seen := make(map[string]struct{}, len(parsed.Upstreams))
	for _, upstream := range parsed.Upstreams {
		if upstream.Name == "" {
			return nil, fmt.Errorf("%w: upstream with empty name", ErrInvalidValue)
		}
		if upstream.URL == "" {
			return nil, fmt.Errorf("%w: upstream %q has no url", ErrInvalidValue, upstream.Name)
		}
		if _, ok := seen[upstream.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate upstream name %q", ErrInvalidValue, upstream.Name)
		}
		seen[upstream.Name] = struct{}{}
	}

	return parsed.Upstreams, nil
}
