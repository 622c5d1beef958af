// Package config defines merge settings loaded from YAML and overridden by CLI flags.
package config

import (
	"context"
	"fmt"
	"runtime"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

const (
	DefaultOffset       = 10000
	DefaultNodesPerPage = 1000
	DefaultRootPolicy   = "attach"
)

// Config holds merge settings
type Config struct {
	// Offset is added to every id of the second input
	Offset int `yaml:"offset,omitempty"`
	// DynamicOffset uses max id of the first input plus one instead of Offset
	DynamicOffset bool `yaml:"dynamicOffset,omitempty"`
	// NodesPerPage is the page size of a PagedCompact output
	NodesPerPage int `yaml:"nodesPerPage,omitempty"`
	// RootPolicy is attach or forest
	RootPolicy string `yaml:"rootPolicy,omitempty"`
	// Lenient loads node folders without index document as leaves
	Lenient bool `yaml:"lenient,omitempty"`
	// Force downgrades a version mismatch to a warning
	Force bool `yaml:"force,omitempty"`
	// Workers bounds asset copy concurrency
	Workers int `yaml:"workers,omitempty"`
	// ScratchDir holds extracted inputs and the staged output; a temp dir is used when empty
	ScratchDir string `yaml:"scratchDir,omitempty"`
	// KeepScratch keeps the scratch directory after a successful merge
	KeepScratch bool `yaml:"keepScratch,omitempty"`
}

// DefaultConfig returns config with defaults applied
func DefaultConfig() *Config {
	result := &Config{}
	result.Init()
	return result
}

// Init applies defaults to unset fields
func (c *Config) Init() {
	if c.Offset <= 0 {
		c.Offset = DefaultOffset
	}
	if c.NodesPerPage <= 0 {
		c.NodesPerPage = DefaultNodesPerPage
	}
	if c.RootPolicy == "" {
		c.RootPolicy = DefaultRootPolicy
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate checks settings
func (c *Config) Validate() error {
	if c.Offset <= 0 {
		return fmt.Errorf("offset must be positive, got %d", c.Offset)
	}
	if c.NodesPerPage <= 0 {
		return fmt.Errorf("nodesPerPage must be positive, got %d", c.NodesPerPage)
	}
	switch c.RootPolicy {
	case "attach", "forest":
	default:
		return fmt.Errorf("unsupported rootPolicy: %q", c.RootPolicy)
	}
	return nil
}

// Load reads YAML config at URL and applies defaults
func Load(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", URL, err)
	}
	result := &Config{}
	if err = yaml.Unmarshal(data, result); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", URL, err)
	}
	result.Init()
	return result, result.Validate()
}
