// Package config loads feed2context settings from defaults, an optional
// YAML file, and environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "FEED2CONTEXT_CONFIG"
	apiKeyEnv         = "GOOGLE_API_KEY"
	modelEnv          = "GOOGLE_MODEL"
	researchModelEnv  = "GOOGLE_RESEARCH_MODEL"
	listenXEnv        = "FEED2CONTEXT_LISTEN_X"
	listenLinkedInEnv = "FEED2CONTEXT_LISTEN_LINKEDIN"
	reportsPathEnv    = "FEED2CONTEXT_REPORTS"
	headlessEnv       = "FEED2CONTEXT_HEADLESS"
)

// Config holds all settings required across the application.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Models  ModelsConfig  `yaml:"models"`
	Browser BrowserConfig `yaml:"browser"`
}

// ServerConfig describes the two HTTP listeners. They share identical
// routes; by convention one is used by the X extension button and the other
// by the LinkedIn one.
type ServerConfig struct {
	ListenX           string `yaml:"listenX"`
	ListenLinkedIn    string `yaml:"listenLinkedin"`
	TriggerTimeoutSec int    `yaml:"triggerTimeoutSec"`
}

// TriggerTimeout bounds one whole pipeline run (extraction through store).
func (s ServerConfig) TriggerTimeout() time.Duration {
	if s.TriggerTimeoutSec <= 0 {
		return 180 * time.Second
	}
	return time.Duration(s.TriggerTimeoutSec) * time.Second
}

// StoreConfig locates the append-only reports file.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ModelsConfig names the Gemini model used by each pipeline stage.
type ModelsConfig struct {
	APIKey   string `yaml:"apiKey"`
	Extract  string `yaml:"extract"`
	Query    string `yaml:"query"`
	Research string `yaml:"research"`
	Browser  string `yaml:"browser"` // drives the page-bound extraction agent
}

// BrowserConfig controls the rod/Chromium runtime for the driven-browser
// extraction strategy.
type BrowserConfig struct {
	Headless       bool   `yaml:"headless"`
	Bin            string `yaml:"bin"` // optional explicit Chrome/Chromium binary
	ViewportWidth  int    `yaml:"viewportWidth"`
	ViewportHeight int    `yaml:"viewportHeight"`
	NavTimeoutMs   int    `yaml:"navTimeoutMs"`
	StableWaitMs   int    `yaml:"stableWaitMs"`
}

// NavTimeout returns the navigation timeout.
func (b BrowserConfig) NavTimeout() time.Duration {
	if b.NavTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(b.NavTimeoutMs) * time.Millisecond
}

// StableWait returns how long the session waits for dynamic content to
// settle after navigation.
func (b BrowserConfig) StableWait() time.Duration {
	if b.StableWaitMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(b.StableWaitMs) * time.Millisecond
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenX:           "127.0.0.1:8000",
			ListenLinkedIn:    "127.0.0.1:8001",
			TriggerTimeoutSec: 180,
		},
		Store: StoreConfig{
			Path: "data/reports.jsonl",
		},
		Models: ModelsConfig{
			Extract:  "gemini-3-flash-preview",
			Query:    "gemini-3-flash-preview",
			Research: "gemini-3-pro-preview",
			Browser:  "gemini-3-flash-preview",
		},
		Browser: BrowserConfig{
			Headless:       true,
			ViewportWidth:  1280,
			ViewportHeight: 900,
			NavTimeoutMs:   30000,
			StableWaitMs:   2000,
		},
	}
}

// Load reads YAML configuration from path (or $FEED2CONTEXT_CONFIG when path
// is empty) over the defaults, then applies environment overrides. A missing
// implicit file is fine; an explicit path that cannot be read is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = os.Getenv(configPathEnv)
		explicit = path != ""
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if explicit {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(apiKeyEnv); v != "" {
		c.Models.APIKey = v
	}
	if v := os.Getenv(modelEnv); v != "" {
		c.Models.Extract = v
		c.Models.Query = v
		c.Models.Browser = v
	}
	if v := os.Getenv(researchModelEnv); v != "" {
		c.Models.Research = v
	}
	if v := os.Getenv(listenXEnv); v != "" {
		c.Server.ListenX = v
	}
	if v := os.Getenv(listenLinkedInEnv); v != "" {
		c.Server.ListenLinkedIn = v
	}
	if v := os.Getenv(reportsPathEnv); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv(headlessEnv); v != "" {
		c.Browser.Headless = v != "0" && v != "false"
	}
}
