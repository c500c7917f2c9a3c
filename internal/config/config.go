package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "ARTCURATOR_CONFIG"
	databasePathEnv = "ARTCURATOR_DB_PATH"
	botTokenEnv     = "VK_API_TOKEN"
	userTokenEnv    = "VK_USER_API_TOKEN"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`
	VK       VKConfig       `yaml:"vk"`
	Search   SearchConfig   `yaml:"search"`
	Publish  PublishConfig  `yaml:"publish"`
	Tags     TagsConfig     `yaml:"tags"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes the sqlite database location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// VKConfig wires the feed API credentials. GroupID must be positive; wall
// calls negate it themselves.
type VKConfig struct {
	BotToken  string `yaml:"botToken"`
	UserToken string `yaml:"userToken"`
	GroupID   int64  `yaml:"groupId"`
}

// SearchConfig describes the tag-search provider and default query.
type SearchConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Query   string `yaml:"query"`
	Limit   int    `yaml:"limit"`
}

// PublishConfig drives the publish scheduler and the embedded counter.
type PublishConfig struct {
	IntervalSeconds int    `yaml:"intervalSeconds"`
	LookbackCount   int    `yaml:"lookbackCount"`
	CounterPattern  string `yaml:"counterPattern"`
	TextTemplate    string `yaml:"textTemplate"`
}

// Interval returns the minimum spacing between published posts.
func (p PublishConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}

// TagsConfig configures the tag normalizer.
type TagsConfig struct {
	Ignore        []string          `yaml:"ignore"`
	StripSuffix   string            `yaml:"stripSuffix"`
	Renames       map[string]string `yaml:"renames"`
	PriorityToken string            `yaml:"priorityToken"`
	PriorityAlias string            `yaml:"priorityAlias"`
	Marker        string            `yaml:"marker"`
	Separator     string            `yaml:"separator"`
}

// Load reads YAML configuration (if present) on top of defaults and applies
// environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			cfg = defaultConfig()
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(botTokenEnv); v != "" {
		c.VK.BotToken = v
	}
	if v := os.Getenv(userTokenEnv); v != "" {
		c.VK.UserToken = v
	}
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{Path: "./artcurator.db"},
		VK: VKConfig{
			GroupID: 193964161,
		},
		Search: SearchConfig{
			BaseURL: "https://danbooru.donmai.us",
			Query:   "hu_tao_(genshin_impact) -animated -rating:e",
			Limit:   10,
		},
		Publish: PublishConfig{
			IntervalSeconds: 5400,
			LookbackCount:   10,
			CounterPattern:  `(\d+) день без рерана`,
			TextTemplate:    "%d день без рерана Ху Тао\n\nАвтор: %s\n%s",
		},
		Tags: TagsConfig{
			StripSuffix: "_(genshin_impact)",
			Renames: map[string]string{
				"KamisatoAyaka":     "Ayaka",
				"KamisatoAyato":     "Ayato",
				"KaedeharaKazuha":   "Kazuha",
				"KujouSara":         "Sara",
				"SangonomiyaKokomi": "Kokomi",
				"ShikanoinHeizou":   "Heizou",
			},
			PriorityToken: "HuTao",
			PriorityAlias: "ХуТао",
			Marker:        "#",
			Separator:     " ",
		},
	}
}
