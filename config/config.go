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

	coremetrics "github.com/kilianp07/o2v/core/metrics"
	"github.com/kilianp07/o2v/core/routing"
	"github.com/kilianp07/o2v/core/scoring"
	"github.com/kilianp07/o2v/infra/notify"
)

type Config struct {
	Scoring scoring.Config     `json:"scoring"`
	Routing routing.Config     `json:"routing"`
	Metrics coremetrics.Config `json:"metrics"`
	MQTT    notify.Config      `json:"mqtt"`
	Store   StoreConfig        `json:"store"`
	Audit   AuditConfig        `json:"audit"`
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
	if err := k.Load(env.Provider("O2V_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "o2v_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Scoring.SetDefaults()
	cfg.Routing.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Store.SetDefaults()
	cfg.Audit.SetDefaults()
	if err := cfg.Scoring.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Routing.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Audit.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
