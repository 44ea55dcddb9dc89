package waifubot

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"
)

// LoadConfig reads the TOML file at path, applies environment overrides and
// fills in defaults for anything left unset.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err = env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env overrides: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

type Config struct {
	Log      LogConfig      `toml:"log"`
	Bot      BotConfig      `toml:"bot"`
	DB       DBConfig       `toml:"db"`
	Spawn    SpawnConfig    `toml:"spawn"`
	Sessions SessionsConfig `toml:"sessions"`
	Spaces   SpacesConfig   `toml:"spaces"`
}

type BotConfig struct {
	DevGuilds []snowflake.ID `toml:"dev_guilds"`
	Token     string         `toml:"token" env:"WAIFU_BOT_TOKEN"`
	Prefix    string         `toml:"prefix"`
}

type LogConfig struct {
	Level slog.Level `toml:"level"`
	Color bool       `toml:"color"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password" env:"WAIFU_DB_PASSWORD"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

type SpawnConfig struct {
	SpawnThreshold  int   `toml:"spawn_threshold"`
	SettleThreshold int   `toml:"settle_threshold"`
	MinRarity       int   `toml:"min_rarity"`
	MaxRarity       int   `toml:"max_rarity"`
	ExcludeLocked   *bool `toml:"exclude_locked"`
}

type SessionsConfig struct {
	Backend            string      `toml:"backend"` // memory or redis
	IdleTimeoutSeconds int         `toml:"idle_timeout_seconds"`
	BazaarSize         int         `toml:"bazaar_size"`
	HaremPageSize      int         `toml:"harem_page_size"`
	SearchPageSize     int         `toml:"search_page_size"`
	Redis              RedisConfig `toml:"redis"`
}

type RedisConfig struct {
	Addr      string `toml:"addr"`
	Password  string `toml:"password" env:"WAIFU_REDIS_PASSWORD"`
	DB        int    `toml:"db"`
	KeyPrefix string `toml:"key_prefix"`
}

type SpacesConfig struct {
	Key            string `toml:"key" env:"WAIFU_SPACES_KEY"`
	Secret         string `toml:"secret" env:"WAIFU_SPACES_SECRET"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	CardRoot       string `toml:"cardroot"`
	PresignSeconds int    `toml:"presign_seconds"`
}

func (c *Config) applyDefaults() {
	if c.Bot.Prefix == "" {
		c.Bot.Prefix = "/"
	}
	if c.DB.PoolSize <= 0 {
		c.DB.PoolSize = 10
	}
	if c.Spawn.SpawnThreshold <= 0 {
		c.Spawn.SpawnThreshold = 100
	}
	if c.Spawn.SettleThreshold <= 0 {
		c.Spawn.SettleThreshold = 150
	}
	if c.Spawn.MinRarity <= 0 {
		c.Spawn.MinRarity = 1
	}
	if c.Spawn.MaxRarity <= 0 {
		c.Spawn.MaxRarity = 13
	}
	if c.Spawn.ExcludeLocked == nil {
		exclude := true
		c.Spawn.ExcludeLocked = &exclude
	}
	if c.Sessions.Backend == "" {
		c.Sessions.Backend = "memory"
	}
	if c.Sessions.IdleTimeoutSeconds <= 0 {
		c.Sessions.IdleTimeoutSeconds = 600
	}
	if c.Sessions.BazaarSize <= 0 {
		c.Sessions.BazaarSize = 3
	}
	if c.Sessions.HaremPageSize <= 0 {
		c.Sessions.HaremPageSize = 40
	}
	if c.Sessions.SearchPageSize <= 0 {
		c.Sessions.SearchPageSize = 20
	}
	if c.Sessions.Redis.KeyPrefix == "" {
		c.Sessions.Redis.KeyPrefix = "waifugrab:session:"
	}
	if c.Spaces.PresignSeconds <= 0 {
		c.Spaces.PresignSeconds = 3600
	}
}
