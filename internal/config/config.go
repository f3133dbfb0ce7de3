package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ThemeConfig holds TUI color configuration.
type ThemeConfig struct {
	Preset        string `mapstructure:"preset"`
	Primary       string `mapstructure:"primary"`
	Secondary     string `mapstructure:"secondary"`
	Accent        string `mapstructure:"accent"`
	Muted         string `mapstructure:"muted"`
	Danger        string `mapstructure:"danger"`
	Background    string `mapstructure:"background"`
	MarkdownStyle string `mapstructure:"markdown_style"`
}

// S3Config holds the object store backend settings.
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// OpenAIConfig holds the generator settings.
type OpenAIConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	EmbedModel string        `mapstructure:"embed_model"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// IndexConfig selects and configures the retrieval index.
type IndexConfig struct {
	// Backend is one of chroma, sqlite, meili or none.
	Backend    string `mapstructure:"backend"`
	ChromaURL  string `mapstructure:"chroma_url"`
	Collection string `mapstructure:"collection"`
	MeiliURL   string `mapstructure:"meili_url"`
	MeiliKey   string `mapstructure:"meili_key"`
	MeiliIndex string `mapstructure:"meili_index"`
	Dimensions int    `mapstructure:"dimensions"`
}

// ServerConfig holds the HTTP service settings.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ShellConfig holds shell prompt integration settings.
type ShellConfig struct {
	// Cache enables the plaintext status cache read by the prompt hook.
	Cache       bool   `mapstructure:"cache"`
	TodayIcon   string `mapstructure:"today_icon"`
	NoTodayIcon string `mapstructure:"no_today_icon"`
	StreakIcon  string `mapstructure:"streak_icon"`
	ShowMood    bool   `mapstructure:"show_mood"`
}

// LogConfig configures application logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
	// Production selects JSON output.
	Production bool `mapstructure:"production"`
}

// Config holds the application configuration.
type Config struct {
	// Storage is one of file, sqlite, redis or s3.
	Storage    string       `mapstructure:"storage"`
	DataDir    string       `mapstructure:"data_dir"`
	RedisURL   string       `mapstructure:"redis_url"`
	S3         S3Config     `mapstructure:"s3"`
	Editor     string       `mapstructure:"editor"`
	ServiceURL string       `mapstructure:"service_url"`
	OpenAI     OpenAIConfig `mapstructure:"openai"`
	Index      IndexConfig  `mapstructure:"index"`
	Server     ServerConfig `mapstructure:"server"`
	Log        LogConfig    `mapstructure:"log"`
	Theme      ThemeConfig  `mapstructure:"theme"`
	Shell      ShellConfig  `mapstructure:"shell"`
}

// DefaultDataDir returns the default data directory (~/.reflectctl/).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".reflectctl")
	}
	return filepath.Join(home, ".reflectctl")
}

// Environment names kept from the hosted service, bound next to the
// REFLECT_ prefixed names.
var legacyEnv = map[string]string{
	"openai.api_key":     "OPENAI_API_KEY",
	"openai.model":       "OPENAI_MODEL",
	"openai.embed_model": "EMBED_MODEL",
	"index.chroma_url":   "CHROMA_URL",
	"server.port":        "PORT",
}

// Load reads configuration from file, environment variables, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("storage", "file")
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("redis_url", "redis://localhost:6379/0")
	v.SetDefault("s3.endpoint", "localhost:9000")
	v.SetDefault("s3.bucket", "reflectctl")
	v.SetDefault("s3.prefix", "")
	v.SetDefault("s3.use_ssl", false)
	v.SetDefault("editor", "")
	v.SetDefault("service_url", "http://localhost:8787")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.embed_model", "text-embedding-3-small")
	v.SetDefault("openai.timeout", "30s")
	v.SetDefault("index.backend", "chroma")
	v.SetDefault("index.chroma_url", "http://localhost:8000")
	v.SetDefault("index.collection", "reflect-journal")
	v.SetDefault("index.meili_url", "http://localhost:7700")
	v.SetDefault("index.meili_index", "reflect_journal")
	v.SetDefault("index.dimensions", 1536)
	v.SetDefault("server.port", 8787)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.production", false)
	v.SetDefault("theme.preset", "default-dark")
	v.SetDefault("shell.cache", true)
	v.SetDefault("shell.today_icon", "✓")
	v.SetDefault("shell.no_today_icon", "✗")
	v.SetDefault("shell.streak_icon", "🔥")
	v.SetDefault("shell.show_mood", false)

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// XDG support
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "reflectctl"))
		}
		v.AddConfigPath(DefaultDataDir())
		v.SetConfigName("config")
		v.SetConfigType("toml")
	}

	// Environment variables: REFLECT_STORAGE, REFLECT_OPENAI_MODEL, etc.
	v.SetEnvPrefix("REFLECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "REFLECT_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, err
		}
	}

	// Read config file (ignore not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if configPath != "" {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
