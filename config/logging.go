package config

import "fmt"

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// SetDefaults fills in default values.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
}

// Validate checks the configuration values.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Level)
	}
	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Format)
	}
	return nil
}
