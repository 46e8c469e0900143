// Package config loads termwiki configuration.
//
// Values are applied in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config ($XDG_CONFIG_HOME/termwiki/config.yaml)
//  3. Project config (.termwiki.yaml or .termwiki.yml)
//  4. Environment variables (TERMWIKI_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/termwiki/internal/corpus"
	wikierrors "github.com/Aman-CERP/termwiki/internal/errors"
)

// Project config file names, in lookup order.
const (
	ProjectConfigFile    = ".termwiki.yaml"
	ProjectConfigFileAlt = ".termwiki.yml"
)

// Transports accepted by server.transport.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Config represents the complete termwiki configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Docs    DocsConfig    `yaml:"docs" json:"docs"`
	Index   IndexConfig   `yaml:"index" json:"index"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	Resolve ResolveConfig `yaml:"resolve" json:"resolve"`
}

// DocsConfig selects the documents to index.
type DocsConfig struct {
	// Dir is the docs root. Relative paths are taken from the project root.
	Dir            string   `yaml:"dir" json:"dir"`
	Include        []string `yaml:"include" json:"include"`
	Exclude        []string `yaml:"exclude" json:"exclude"`
	MaxFileSize    int64    `yaml:"max_file_size" json:"max_file_size"`
	FollowSymlinks bool     `yaml:"follow_symlinks" json:"follow_symlinks"`
}

// IndexConfig tunes index rebuilds.
type IndexConfig struct {
	ParseWorkers int `yaml:"parse_workers" json:"parse_workers"`
}

// WatchConfig configures live reindexing.
type WatchConfig struct {
	// Enabled is a pointer so that an explicit false in a project file
	// survives the merge over a user config.
	Enabled      *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Debounce     string `yaml:"debounce" json:"debounce"`
	PollInterval string `yaml:"poll_interval" json:"poll_interval"`
	ForcePolling bool   `yaml:"force_polling" json:"force_polling"`
}

// ServerConfig configures the HTTP and MCP servers.
type ServerConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// ResolveConfig configures the term resolver.
type ResolveConfig struct {
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// IsEnabled reports whether the docs tree should be watched (default true).
func (w WatchConfig) IsEnabled() bool {
	return w.Enabled == nil || *w.Enabled
}

// DebounceDuration returns the parsed debounce window.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, _ := time.ParseDuration(w.Debounce)
	return d
}

// PollIntervalDuration returns the parsed polling interval.
func (w WatchConfig) PollIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(w.PollInterval)
	return d
}

// NewConfig returns a configuration with all defaults applied.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Docs: DocsConfig{
			Dir:         ".",
			Include:     append([]string(nil), corpus.DefaultInclude...),
			Exclude:     append([]string(nil), corpus.DefaultExclude...),
			MaxFileSize: corpus.DefaultMaxFileSize,
		},
		Index: IndexConfig{
			ParseWorkers: runtime.NumCPU(),
		},
		Watch: WatchConfig{
			Debounce:     "200ms",
			PollInterval: "5s",
		},
		Server: ServerConfig{
			Addr:      "127.0.0.1:4173",
			Transport: TransportHTTP,
			LogLevel:  "info",
		},
		Resolve: ResolveConfig{
			CacheSize: 512,
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/termwiki/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/termwiki/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "termwiki", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "termwiki", "config.yaml")
	}
	return filepath.Join(home, ".config", "termwiki", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load loads configuration for the project rooted at dir.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadFromDir(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads an explicitly named config file over the defaults. Unlike
// Load, a missing file is an error.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()
	if !fileExists(path) {
		return nil, wikierrors.New(wikierrors.ErrCodeConfigNotFound, "config file not found", nil).
			WithDetail("path", path).
			WithSuggestion("run 'termwiki config init' to create one")
	}
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProjectConfigPath returns the project config file in dir, preferring
// .termwiki.yaml. The second result is false when neither exists.
func ProjectConfigPath(dir string) (string, bool) {
	for _, name := range []string{ProjectConfigFile, ProjectConfigFileAlt} {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p, true
		}
	}
	return filepath.Join(dir, ProjectConfigFile), false
}

func (c *Config) loadFromDir(dir string) error {
	path, ok := ProjectConfigPath(dir)
	if !ok {
		return nil
	}
	return c.loadYAML(path)
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return wikierrors.ConfigError("failed to read config file", err).WithDetail("path", path)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return wikierrors.ConfigError("failed to parse config file", err).
			WithDetail("path", path).
			WithSuggestion("check the YAML syntax")
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Docs.Dir != "" {
		c.Docs.Dir = other.Docs.Dir
	}
	if len(other.Docs.Include) > 0 {
		c.Docs.Include = other.Docs.Include
	}
	if len(other.Docs.Exclude) > 0 {
		// Extends the defaults rather than replacing them
		c.Docs.Exclude = appendUnique(c.Docs.Exclude, other.Docs.Exclude...)
	}
	if other.Docs.MaxFileSize != 0 {
		c.Docs.MaxFileSize = other.Docs.MaxFileSize
	}
	if other.Docs.FollowSymlinks {
		c.Docs.FollowSymlinks = true
	}

	if other.Index.ParseWorkers != 0 {
		c.Index.ParseWorkers = other.Index.ParseWorkers
	}

	if other.Watch.Enabled != nil {
		enabled := *other.Watch.Enabled
		c.Watch.Enabled = &enabled
	}
	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Watch.PollInterval != "" {
		c.Watch.PollInterval = other.Watch.PollInterval
	}
	if other.Watch.ForcePolling {
		c.Watch.ForcePolling = true
	}

	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}

	if other.Resolve.CacheSize != 0 {
		c.Resolve.CacheSize = other.Resolve.CacheSize
	}
}

func appendUnique(base []string, extra ...string) []string {
	seen := make(map[string]bool, len(base))
	for _, s := range base {
		seen[s] = true
	}
	for _, s := range extra {
		if !seen[s] {
			seen[s] = true
			base = append(base, s)
		}
	}
	return base
}

// applyEnvOverrides applies TERMWIKI_* environment variable overrides.
// Unparseable numbers are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TERMWIKI_DOCS_DIR"); v != "" {
		c.Docs.Dir = v
	}
	if v := os.Getenv("TERMWIKI_EXCLUDE"); v != "" {
		c.Docs.Exclude = appendUnique(c.Docs.Exclude, splitList(v)...)
	}
	if v := os.Getenv("TERMWIKI_PARSE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.ParseWorkers = n
		}
	}
	if v := os.Getenv("TERMWIKI_WATCH"); v != "" {
		enabled := parseBool(v)
		c.Watch.Enabled = &enabled
	}
	if v := os.Getenv("TERMWIKI_DEBOUNCE"); v != "" {
		c.Watch.Debounce = v
	}
	if v := os.Getenv("TERMWIKI_POLL_INTERVAL"); v != "" {
		c.Watch.PollInterval = v
	}
	if v := os.Getenv("TERMWIKI_FORCE_POLLING"); v != "" {
		c.Watch.ForcePolling = parseBool(v)
	}
	if v := os.Getenv("TERMWIKI_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TERMWIKI_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
	if v := os.Getenv("TERMWIKI_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("TERMWIKI_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Resolve.CacheSize = n
		}
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate validates the configuration. Failures carry ERR_102_CONFIG_INVALID.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Docs.Dir) == "" {
		return invalid("docs.dir must not be empty")
	}
	for _, p := range append(append([]string(nil), c.Docs.Include...), c.Docs.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return invalid(fmt.Sprintf("invalid glob pattern %q", p))
		}
	}
	if c.Docs.MaxFileSize < 0 {
		return invalid(fmt.Sprintf("docs.max_file_size must be non-negative, got %d", c.Docs.MaxFileSize))
	}
	if c.Index.ParseWorkers < 0 {
		return invalid(fmt.Sprintf("index.parse_workers must be non-negative, got %d", c.Index.ParseWorkers))
	}
	if err := validDuration("watch.debounce", c.Watch.Debounce); err != nil {
		return err
	}
	if err := validDuration("watch.poll_interval", c.Watch.PollInterval); err != nil {
		return err
	}

	switch strings.ToLower(c.Server.Transport) {
	case TransportHTTP, TransportStdio:
	default:
		return invalid(fmt.Sprintf("server.transport must be 'http' or 'stdio', got %s", c.Server.Transport))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return invalid(fmt.Sprintf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel))
	}

	if c.Resolve.CacheSize < 0 {
		return invalid(fmt.Sprintf("resolve.cache_size must be non-negative, got %d", c.Resolve.CacheSize))
	}
	return nil
}

func validDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return invalid(fmt.Sprintf("%s is not a duration: %q", field, value))
	}
	if d < 0 {
		return invalid(fmt.Sprintf("%s must be non-negative, got %s", field, value))
	}
	return nil
}

func invalid(msg string) error {
	return wikierrors.New(wikierrors.ErrCodeConfigInvalid, msg, nil)
}

// DocsRoot returns the absolute docs directory for a project rooted at base.
func (c *Config) DocsRoot(base string) (string, error) {
	dir := c.Docs.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(base, dir)
	}
	return filepath.Abs(dir)
}

// CorpusOptions returns the corpus settings for a project rooted at base.
func (c *Config) CorpusOptions(base string) (corpus.Options, error) {
	root, err := c.DocsRoot(base)
	if err != nil {
		return corpus.Options{}, err
	}
	return corpus.Options{
		Root:           root,
		Include:        c.Docs.Include,
		Exclude:        c.Docs.Exclude,
		MaxFileSize:    c.Docs.MaxFileSize,
		FollowSymlinks: c.Docs.FollowSymlinks,
	}, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// FindProjectRoot walks up from startDir looking for a project config file
// or a .git directory. If neither is found startDir itself is returned.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	current := absDir
	for {
		if _, ok := ProjectConfigPath(current); ok {
			return current, nil
		}
		if dirExists(filepath.Join(current, ".git")) {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return absDir, nil
		}
		current = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
