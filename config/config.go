// Package config loads the service configuration from a YAML or JSON
// file with optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/oficiosya/dispatch/core/dispatch"
	"github.com/oficiosya/dispatch/core/metrics"
	"github.com/oficiosya/dispatch/core/pricing"
	"github.com/oficiosya/dispatch/infra/notify"
	"github.com/oficiosya/dispatch/infra/settlement"
)

type Config struct {
	Dispatch   dispatch.Config   `json:"dispatch"`
	Notify     notify.Config     `json:"notify"`
	Settlement settlement.Config `json:"settlement"`
	Metrics    metrics.Config    `json:"metrics"`
	Pricing    pricing.Rules     `json:"pricing"`
	Logging    LoggingConfig     `json:"logging"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("OD_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "od_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Dispatch.SetDefaults()
	cfg.Notify.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Pricing.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Dispatch.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
