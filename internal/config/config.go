// Package config holds the compile-time options that shape a single
// Compile call.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options configures a single Compile call. The zero value is a
// reasonable default: no cap on how many dropped monomorphized copies
// the resolve phase tolerates before giving up.
type Options struct {
	// MaxErrors caps how many monomorphized copies the resolve phase
	// drops (logging a warning for each) before it aborts the compile
	// outright instead of silently warning forever. Zero means unlimited.
	MaxErrors int `yaml:"max_errors,omitempty"`
}

// LoadOptions reads Options from a YAML file, e.g. a project's
// semantica.yaml. Fields not present in the file keep Options' zero
// values.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading options %s: %w", path, err)
	}
	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &opts, nil
}
