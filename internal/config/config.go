// Package config loads the site configuration file and applies fixed
// defaults. Zero values in the file fall back to the default; the file
// itself is optional.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root site configuration.
type Config struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`

	ContentDir string `yaml:"content_dir,omitempty"`
	OutputDir  string `yaml:"output_dir,omitempty"`
	ThemeDir   string `yaml:"theme_dir,omitempty"`
	StaticDir  string `yaml:"static_dir,omitempty"`

	// Structured mode derives each entry's section from its top path segment.
	Structured bool `yaml:"structured,omitempty"`

	WordsPerMinute int `yaml:"words_per_minute,omitempty"`
	PageSize       int `yaml:"page_size,omitempty"`

	Toc TocConfig `yaml:"toc,omitempty"`

	// Fingerprint enables content-hash asset names plus the HTML rewrite pass.
	Fingerprint bool `yaml:"fingerprint,omitempty"`

	// StrictPreRender escalates a single failing pre-render to a fatal error.
	StrictPreRender bool `yaml:"strict_prerender,omitempty"`

	Redirects RedirectConfig `yaml:"redirects,omitempty"`

	Serve ServeConfig `yaml:"serve,omitempty"`
}

// TocConfig bounds the heading levels admitted into the table of contents.
type TocConfig struct {
	MinLevel int `yaml:"min_level,omitempty"`
	MaxLevel int `yaml:"max_level,omitempty"`
}

// RedirectConfig controls the redirect map file and its validation.
type RedirectConfig struct {
	File           string   `yaml:"file,omitempty"`
	AllowExternal  bool     `yaml:"allow_external,omitempty"`
	AllowedDomains []string `yaml:"allowed_domains,omitempty"`
}

// ServeConfig tunes the live development mode.
type ServeConfig struct {
	Addr        string        `yaml:"addr,omitempty"`
	Debounce    time.Duration `yaml:"debounce,omitempty"`
	PreRender   bool          `yaml:"pre_render,omitempty"`
	PreCompress bool          `yaml:"pre_compress,omitempty"`
}

// Defaults returns the fixed baseline every loaded file merges over.
func Defaults() *Config {
	return &Config{
		Title:          "Site",
		ContentDir:     "content",
		OutputDir:      "dist",
		ThemeDir:       "theme",
		StaticDir:      "static",
		WordsPerMinute: 200,
		PageSize:       10,
		Toc:            TocConfig{MinLevel: 2, MaxLevel: 4},
		Fingerprint:    true,
		Redirects:      RedirectConfig{File: "redirects.yaml"},
		Serve: ServeConfig{
			Addr:        ":8080",
			Debounce:    300 * time.Millisecond,
			PreRender:   true,
			PreCompress: true,
		},
	}
}

// Load reads path and merges its fields over Defaults. A missing file is not
// an error: the defaults stand alone.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyFloors()
	return cfg, nil
}

func (c *Config) applyFloors() {
	d := Defaults()
	if c.WordsPerMinute <= 0 {
		c.WordsPerMinute = d.WordsPerMinute
	}
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.Toc.MinLevel <= 0 {
		c.Toc.MinLevel = d.Toc.MinLevel
	}
	if c.Toc.MaxLevel <= 0 {
		c.Toc.MaxLevel = d.Toc.MaxLevel
	}
	if c.Toc.MaxLevel < c.Toc.MinLevel {
		// A min above the default max must not produce an empty window.
		c.Toc.MaxLevel = c.Toc.MinLevel
	}
	if c.Serve.Debounce <= 0 {
		c.Serve.Debounce = d.Serve.Debounce
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = d.Serve.Addr
	}
}
