// Package config consumes the process environment exactly once, at process
// entry, into an immutable Config value that is threaded by reference into
// every component from there on. New options are added by extending Config,
// never by reading the environment deeper in the call stack (see
// SPEC_FULL.md §9).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
)

// Config is the fully-resolved, read-only process configuration.
type Config struct {
	// DeployType is the default audience bucket for catalog resolution.
	// TEST_DEPLOY_TYPE.
	DeployType string `env:"TEST_DEPLOY_TYPE" envDefault:"universal"`

	// Distro is the currently-targeted distro for single-distro commands.
	// INFINITO_DISTRO.
	Distro string `env:"INFINITO_DISTRO"`

	// Distros is the space-separated distro list for matrix runs. DISTROS.
	Distros string `env:"DISTROS"`

	// Lifecycles is the space-separated lifecycle allow-list.
	// TESTED_LIFECYCLES.
	Lifecycles string `env:"TESTED_LIFECYCLES" envDefault:"alpha beta rc stable"`

	// MaxTotalSeconds is the global wall-clock budget; 0 disables it.
	// MAX_TOTAL_SECONDS.
	MaxTotalSeconds int `env:"MAX_TOTAL_SECONDS" envDefault:"0"`

	// InventoryDir is the path under which inventories are generated.
	// INVENTORY_DIR; when unset, ./inventory relative to the working
	// directory.
	InventoryDir string `env:"INVENTORY_DIR" envDefault:"./inventory"`

	// Python is the opaque path to the tool used to enumerate applications.
	// PYTHON.
	Python string `env:"PYTHON" envDefault:"python3"`

	// GithubActions / Act / GithubOutput / GithubEnv are only consumed by
	// the discovery path, to emit workflow outputs when present.
	GithubActions string `env:"GITHUB_ACTIONS"`
	Act           string `env:"ACT"`
	GithubOutput  string `env:"GITHUB_OUTPUT"`
	GithubEnv     string `env:"GITHUB_ENV"`

	// LogLevel, if set, takes precedence over CLI verbosity flags.
	LogLevel string `env:"LOG_LEVEL"`
}

// Load parses the process environment into a Config.
func Load() (*Config, error) {
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return c, nil
}

// DistroList splits Distros on whitespace, parsing and validating each
// entry. If Distros is empty and Distro is set, the list is the singleton
// {Distro}.
func (c *Config) DistroList() ([]model.Distro, error) {
	raw := strings.Fields(c.Distros)
	if len(raw) == 0 && c.Distro != "" {
		raw = []string{c.Distro}
	}
	out := make([]model.Distro, 0, len(raw))
	for _, s := range raw {
		d, err := model.ParseDistro(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// LifecycleList splits Lifecycles on whitespace, parsing and validating each
// entry.
func (c *Config) LifecycleList() ([]model.Lifecycle, error) {
	raw := strings.Fields(c.Lifecycles)
	out := make([]model.Lifecycle, 0, len(raw))
	for _, s := range raw {
		l, err := model.ParseLifecycle(s)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// Dirs groups the filesystem layout rooted at InventoryDir, mirroring the
// teacher's config.EnvConfig.Dirs() accessor pattern.
type Dirs struct {
	base string
}

func (c *Config) Dirs() Dirs { return Dirs{base: c.InventoryDir} }

// Inventory returns the inventory bundle directory for a (type, distro) pair:
// <base>/local-full-<type>/
func (d Dirs) Inventory(deployType string) string {
	return filepath.Join(d.base, fmt.Sprintf("local-full-%s", deployType))
}

// Logs returns the directory that holds per-job log files: "logs", relative
// to the current working directory, per the persisted state layout.
func (d Dirs) Logs() string {
	return "logs"
}

// EnsureDir creates dir (and parents) if it does not already exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
