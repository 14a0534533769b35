package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// Storage backend names.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                       string   `yaml:"port"`
	LogLevel                   string   `yaml:"logLevel"`
	AssistantURL               string   `yaml:"assistantURL"`
	ImageWaitSeconds           int      `yaml:"imageWaitSeconds"`
	Storage                    string   `yaml:"storage"`
	DataDir                    string   `yaml:"dataDir"`
	RedisAddr                  string   `yaml:"redisAddr"`
	RedisPassword              string   `yaml:"redisPassword"`
	DatabaseURL                string   `yaml:"databaseURL"`
	GenerateRateLimitPerMinute int      `yaml:"generateRateLimitPerMinute"`
	MaxUploadBytes             int64    `yaml:"maxUploadBytes"`
	TrustedProxyCIDRs          []string `yaml:"trustedProxyCidrs"`
}

// Load reads config from path (defaults to config.yaml) and applies
// environment overrides.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv("READNOOK_PORT"); v != "" {
		cfg.Port = strings.TrimSpace(v)
	}
	if v := os.Getenv("READNOOK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("READNOOK_ASSISTANT_URL"); v != "" {
		cfg.AssistantURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("READNOOK_IMAGE_WAIT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.ImageWaitSeconds = n
		}
	}
	if v := os.Getenv("READNOOK_STORAGE"); v != "" {
		cfg.Storage = strings.TrimSpace(v)
	}
	if v := os.Getenv("READNOOK_DATA_DIR"); v != "" {
		cfg.DataDir = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("READNOOK_GENERATE_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.GenerateRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("READNOOK_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("READNOOK_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.AssistantURL == "" {
		return errors.New("config: assistantURL is required (set in config.yaml or READNOOK_ASSISTANT_URL)")
	}
	if cfg.ImageWaitSeconds < 0 {
		return errors.New("config: imageWaitSeconds must be >= 0")
	}
	if cfg.GenerateRateLimitPerMinute < 0 {
		return errors.New("config: generateRateLimitPerMinute must be >= 0")
	}
	if cfg.MaxUploadBytes < 0 {
		return errors.New("config: maxUploadBytes must be >= 0")
	}
	switch cfg.Storage {
	case "", StorageMemory:
	case StorageFile:
		if strings.TrimSpace(cfg.DataDir) == "" {
			return errors.New("config: dataDir is required for file storage")
		}
	case StorageRedis:
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: redisAddr is required for redis storage")
		}
	case StoragePostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return errors.New("config: databaseURL is required for postgres storage")
		}
	default:
		return fmt.Errorf("config: unknown storage backend %q", cfg.Storage)
	}
	if cfg.GenerateRateLimitPerMinute > 0 && strings.TrimSpace(cfg.RedisAddr) == "" {
		return errors.New("config: redisAddr is required for the generate rate limit")
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
