package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"KUMA_REDIS_ADDR"`
	Password string `yaml:"password" env:"KUMA_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"KUMA_REDIS_DB"`
}

type DanbooruConfig struct {
	BaseURL  string `yaml:"base_url" env:"KUMA_DANBOORU_BASE_URL"`
	Username string `yaml:"username" env:"KUMA_DANBOORU_USER"`
	APIKey   string `yaml:"api_key" env:"KUMA_DANBOORU_API_KEY"`
}

type OpenAIConfig struct {
	ApiKey  string `yaml:"api_key" env:"KUMA_OPENAI_API_KEY"`
	BaseURL string `yaml:"base_url" env:"KUMA_OPENAI_BASE_URL"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" env:"KUMA_DATABASE_PATH"`
}

type BusConfig struct {
	// StreamMaxLength bounds each stream; older entries are trimmed
	// approximately past it.
	StreamMaxLength int64 `yaml:"stream_max_length" env:"KUMA_STREAM_MAX_LENGTH"`

	// BlockSeconds is the blocking poll timeout for consumer reads.
	BlockSeconds int `yaml:"block_seconds" env:"KUMA_BUS_BLOCK_SECONDS"`
}

// The configuration for kumabot.
type Config struct {
	Redis    RedisConfig    `yaml:"redis"`
	Danbooru DanbooruConfig `yaml:"danbooru"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Database DatabaseConfig `yaml:"database"`
	Bus      BusConfig      `yaml:"bus"`
}

func BootstrapConfig() Config {
	return Config{
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Danbooru: DanbooruConfig{
			BaseURL: "https://danbooru.donmai.us",
		},
		Database: DatabaseConfig{
			Path: "kumabot.db",
		},
		Bus: BusConfig{
			StreamMaxLength: 1024,
			BlockSeconds:    5,
		},
	}
}

// LoadConfig reads the workspace config file over the bootstrap defaults,
// then applies environment overrides. A missing file is not an error.
func LoadConfig() (c Config, err error) {
	c = BootstrapConfig()
	configPath, err := GetWorkspaceConfigPath()
	if err != nil {
		err = fmt.Errorf("failed to get config path: %w", err)
		return
	}

	content, err := os.ReadFile(configPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		err = fmt.Errorf("failed to read config file: %w", err)
		return
	}
	if err == nil {
		if err = yaml.Unmarshal(content, &c); err != nil {
			err = fmt.Errorf("failed to unmarshal config file: %w", err)
			return
		}
	}

	err = applyEnv(&c)
	return
}
