// Package config loads and saves the qedloop configuration file.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lexcodex/qedloop/proof"
)

const configFileName = "qedloop.yaml"

// DefaultPath returns the workspace-local configuration file.
func DefaultPath(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, configFileName)
}

// Config matches qedloop.yaml.
type Config struct {
	Backend     string        `yaml:"backend"`
	Model       string        `yaml:"model"`
	Endpoint    string        `yaml:"endpoint"`
	APIKey      string        `yaml:"api_key"`
	Filename    string        `yaml:"filename"`
	ErrorLog    string        `yaml:"error_log"`
	MaxAttempts int           `yaml:"max_attempts"`
	Preamble    string        `yaml:"preamble"`
	Checker     CheckerConfig `yaml:"checker"`
	Journal     string        `yaml:"journal"`
	Events      string        `yaml:"events"`
	Debug       bool          `yaml:"debug"`
}

// CheckerConfig selects and tunes the proof checker. Timeout and Wait are
// duration strings ("30s"); empty means unbounded and the built-in wait
// respectively.
type CheckerConfig struct {
	Mode    string    `yaml:"mode"`
	Binary  string    `yaml:"binary"`
	Args    []string  `yaml:"args"`
	Timeout string    `yaml:"timeout"`
	LSP     LSPConfig `yaml:"lsp"`
}

// LSPConfig tunes the coq-lsp checker mode.
type LSPConfig struct {
	Command []string `yaml:"command"`
	Wait    string   `yaml:"wait"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend:     "ollama",
		Model:       "codellama:7b",
		Filename:    "temp.v",
		ErrorLog:    "coq_error.log",
		MaxAttempts: proof.DefaultMaxAttempts,
		Checker: CheckerConfig{
			Mode:   "coqc",
			Binary: "coqc",
			LSP:    LSPConfig{Command: []string{"coq-lsp"}},
		},
	}
}

// Load reads the config or returns defaults when the file is missing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return &cfg, nil
}

// Save writes the config to disk, creating parent directories.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config missing")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// normalize fills absent fields with the built-in defaults so a sparse file
// still yields a usable configuration.
func (c *Config) normalize() {
	defaults := Default()
	if c.Backend == "" {
		c.Backend = defaults.Backend
	}
	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.Filename == "" {
		c.Filename = defaults.Filename
	}
	if c.ErrorLog == "" {
		c.ErrorLog = defaults.ErrorLog
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaults.MaxAttempts
	}
	if c.Checker.Mode == "" {
		c.Checker.Mode = defaults.Checker.Mode
	}
	if c.Checker.Binary == "" {
		c.Checker.Binary = defaults.Checker.Binary
	}
	if len(c.Checker.LSP.Command) == 0 {
		c.Checker.LSP.Command = defaults.Checker.LSP.Command
	}
}

// ExpandPath resolves ~ and workspace-relative paths into absolute paths
// while leaving already absolute entries untouched.
func ExpandPath(path, workspace string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	if strings.HasPrefix(path, ".") {
		return filepath.Join(workspace, path)
	}
	return path
}
