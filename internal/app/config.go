package app

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lumenflow/lumenflow-backend/internal/pkg/env"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/logger"
)

// Config is the process configuration. A yaml file named by CONFIG_FILE
// provides the base; environment variables override it field by field.
type Config struct {
	Mode           string   `yaml:"mode"`
	Port           string   `yaml:"port"`
	JWTSecretKey   string   `yaml:"jwt_secret_key"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	ServiceName    string   `yaml:"service_name"`
	Environment    string   `yaml:"environment"`
	Version        string   `yaml:"version"`
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Mode:        "development",
		Port:        "8080",
		ServiceName: "lumenflow",
		Environment: "development",
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
		log.Info("loaded config file", "path", path)
	}

	cfg.Mode = env.Get("LOG_MODE", cfg.Mode, log)
	cfg.Port = env.Get("PORT", cfg.Port, log)
	cfg.JWTSecretKey = env.Get("JWT_SECRET_KEY", cfg.JWTSecretKey, log)
	cfg.ServiceName = env.Get("SERVICE_NAME", cfg.ServiceName, log)
	cfg.Environment = env.Get("ENVIRONMENT", cfg.Environment, log)
	cfg.Version = env.Get("SERVICE_VERSION", cfg.Version, log)
	if raw := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); raw != "" {
		var origins []string
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.AllowedOrigins = origins
	}

	if cfg.JWTSecretKey == "" {
		return cfg, fmt.Errorf("JWT_SECRET_KEY is required")
	}
	return cfg, nil
}
