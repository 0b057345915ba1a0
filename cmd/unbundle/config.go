package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gnana997/unbundle/pkg/reconstructor"
)

// configFileName is looked up under the tree root, then the working
// directory.
const configFileName = ".unbundle.yaml"

// Config is the optional project configuration file.
type Config struct {
	// Aliases maps virtual package prefixes to tree-relative directories,
	// recovered from bundler config (webpack resolve.alias, tsconfig paths).
	Aliases []reconstructor.AliasMapping `yaml:"aliases"`

	// Include and Exclude override the default tree discovery globs.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`

	// Cascade defaults; flags override.
	BundlesDir string `yaml:"bundlesDir"`
	StaticDir  string `yaml:"staticDir"`
	BaseURL    string `yaml:"baseUrl"`

	// Log level: debug, info, warn, error.
	LogLevel string `yaml:"logLevel"`
	// Log format: text or json.
	LogFormat string `yaml:"logFormat"`
}

// loadConfig reads the config file if present. A missing file is not an
// error; a malformed one is.
func loadConfig(root string) (Config, error) {
	var cfg Config

	for _, dir := range []string{root, "."} {
		path := filepath.Join(dir, configFileName)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return cfg, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return cfg, nil
	}
	return cfg, nil
}
