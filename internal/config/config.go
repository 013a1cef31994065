// Package config loads pipeline configuration from YAML files.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the settings a run starts from. Command line flags
// override whatever the file says.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Filter   FilterConfig   `yaml:"filter"`
	Output   OutputConfig   `yaml:"output"`
}

// DatabaseConfig locates the classifier database.
type DatabaseConfig struct {
	// Dir is the directory holding the kraken2 index files.
	Dir string `yaml:"dir"`
	// URL and MD5 describe the archive fetched when Dir is absent.
	URL string `yaml:"url"`
	MD5 string `yaml:"md5"`
}

// FilterConfig sets the filtering policy.
type FilterConfig struct {
	// Taxa are the target taxon ids. Defaults to human (9606).
	Taxa []int `yaml:"taxa"`
	// Confidence is the minimum classifier confidence in [0,1].
	Confidence float64 `yaml:"confidence"`
	// Invert keeps targets instead of removing them.
	Invert bool `yaml:"invert"`
	// Lenient treats reads absent from the classifier output as
	// unclassified instead of failing.
	Lenient bool `yaml:"lenient"`
	// MateSeparators are the characters that may join a read id to its
	// mate number suffix.
	MateSeparators string `yaml:"mate_separators"`
	// Threads is the classifier thread count.
	Threads int `yaml:"threads"`
}

// OutputConfig shapes the output files.
type OutputConfig struct {
	// Dir is where filtered files are written. Empty means alongside the
	// inputs.
	Dir string `yaml:"dir"`
	// Format forces the output compression: u, g, b, x or z. Empty
	// mirrors the input.
	Format string `yaml:"format"`
	// Workers is the codec worker count for block-parallel formats.
	Workers int `yaml:"workers"`
	// Overwrite permits replacing existing output files.
	Overwrite bool `yaml:"overwrite"`
	// StatsPath, when set, receives the run statistics as JSON.
	StatsPath string `yaml:"stats_path"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Filter: FilterConfig{
			Taxa:           []int{9606},
			MateSeparators: "/.",
			Threads:        1,
		},
		Output: OutputConfig{
			Workers: 1,
		},
	}
}

// Load reads path and overlays it on the defaults. Unknown keys are
// rejected so typos fail loudly.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if cfg.Filter.Confidence < 0 || cfg.Filter.Confidence > 1 {
		return Config{}, fmt.Errorf("config: confidence %v outside [0, 1]", cfg.Filter.Confidence)
	}
	if len(cfg.Filter.Taxa) == 0 {
		cfg.Filter.Taxa = []int{9606}
	}
	return cfg, nil
}
