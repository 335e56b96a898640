package app

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cinelake/cinelake-backend/internal/identity"
	"github.com/cinelake/cinelake-backend/internal/platform/envutil"
	"github.com/cinelake/cinelake-backend/internal/platform/logger"
)

// Config is the process configuration. An optional yaml file provides the
// base; environment variables override field by field so deployments can
// tune single values without a file edit.
type Config struct {
	HTTPAddr     string   `yaml:"http_addr"`
	AllowOrigins []string `yaml:"allow_origins"`
	SeedDir      string   `yaml:"seed_dir"`
	IdentityMode string   `yaml:"identity_mode"`
	LogMode      string   `yaml:"log_mode"`
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		HTTPAddr:     ":8080",
		SeedDir:      "./seeds",
		IdentityMode: string(identity.ModeTitle),
		LogMode:      "development",
	}

	if path := envutil.String("CONFIG_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
		log.Info("Loaded config file", "path", path)
	}

	cfg.HTTPAddr = envutil.String("HTTP_ADDR", cfg.HTTPAddr)
	cfg.SeedDir = envutil.String("SEED_DIR", cfg.SeedDir)
	cfg.IdentityMode = envutil.String("IDENTITY_MODE", cfg.IdentityMode)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	if origins := envutil.String("ALLOW_ORIGINS", ""); origins != "" {
		cfg.AllowOrigins = strings.Split(origins, ",")
	}

	mode := identity.Mode(cfg.IdentityMode)
	if mode != identity.ModeTitle && mode != identity.ModeStrict {
		return cfg, fmt.Errorf("invalid identity_mode %q", cfg.IdentityMode)
	}
	return cfg, nil
}
