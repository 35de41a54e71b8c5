// Package config loads qkvdb's server configuration file, bootstrapping a
// default one if it does not yet exist.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

const defaultDataDirectory = "./data"

// Configuration is qkvdb's on-disk server configuration.
type Configuration struct {
	DataDirectory string `json:"data_directory"`
}

// Load reads path as JSON configuration. If path does not exist, a
// default configuration is written there first and then returned.
func Load(path string) (Configuration, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		def := Configuration{DataDirectory: defaultDataDirectory}
		if err := write(path, def); err != nil {
			return Configuration{}, err
		}
		return def, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("reading configuration %s: %w", path, err)
	}
	var cfg Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Configuration{}, fmt.Errorf("parsing configuration %s: %w", path, err)
	}
	return cfg, nil
}

func write(path string, cfg Configuration) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding default configuration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing configuration %s: %w", path, err)
	}
	return nil
}
