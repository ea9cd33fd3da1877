package hefty

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigEnv names the environment variable LoadConfig reads the config file path from.
const ConfigEnv = "HEFTY_CONFIG"

// LoadConfig loads the file named by HEFTY_CONFIG.
func LoadConfig() (Config, error) {
	path := os.Getenv(ConfigEnv)
	if path == "" {
		return Config{}, &ConfigurationError{Field: ConfigEnv, Reason: "environment variable not set; set it to the path of a config file or use --config"}
	}
	return LoadConfigFile(path)
}

// LoadConfigFile reads a YAML config on top of DefaultConfig and validates it. Unknown fields are
// rejected.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config file. %w", err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &ConfigurationError{Field: "file", Reason: err.Error()}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
