package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	log "github.com/sirupsen/logrus"
)

// Config represents the entire configuration structure
type Config struct {
	Telegram  TelegramConfig  `toml:"telegram"`
	Transform TransformConfig `toml:"transform"`
	Storage   StorageConfig   `toml:"storage"`
	WebApp    WebAppConfig    `toml:"webapp"`
	Logging   LoggingConfig   `toml:"logging"`
}

// TelegramConfig contains Telegram Bot settings
type TelegramConfig struct {
	Token          string `toml:"token"`
	PollingTimeout int    `toml:"polling_timeout"`

	// Startup retry policy for update-stream conflicts (another instance
	// already polling).
	StartupMaxRetries int `toml:"startup_max_retries"`
	StartupRetryDelay int `toml:"startup_retry_delay"` // seconds, scales linearly per attempt
}

// TransformConfig selects and configures the audio transform backend
type TransformConfig struct {
	Backend string `toml:"backend"` // "ffmpeg" or "remote"
	Timeout int    `toml:"timeout"` // seconds, whole transform round trip
	TempDir string `toml:"temp_dir"`

	// ffmpeg backend
	FFmpegPath string `toml:"ffmpeg_path"`

	// remote media API backend
	MediaBaseURL   string `toml:"media_base_url"`
	MediaCloudName string `toml:"media_cloud_name"`
	MediaAPIKey    string `toml:"media_api_key"`
	MediaAPISecret string `toml:"media_api_secret"`
}

// StorageConfig contains session storage settings
type StorageConfig struct {
	Type      string `toml:"type"` // "file", "memory" or "redis"
	FilePath  string `toml:"file_path"`
	RedisAddr string `toml:"redis_addr"`
}

// WebAppConfig contains the word-counter mini-app API settings
type WebAppConfig struct {
	Enabled    bool   `toml:"enabled"`
	ListenAddr string `toml:"listen_addr"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
}

// Load reads the configuration file and applies environment overrides.
// Secrets may come from the environment (optionally via a .env file) instead
// of the config file.
func Load(configPath string) (*Config, error) {
	// A missing .env file is fine, the environment may be set directly.
	_ = godotenv.Load()

	if configPath == "" {
		configPath = getDefaultConfigPath()
	}

	var cfg Config
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		log.Infof("Loading configuration from: %s", configPath)
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
		// Env-only deployment: no config file, everything comes from the
		// environment and defaults. Validate still rejects missing secrets.
		log.Infof("No configuration file at %s, using environment and defaults", configPath)
	default:
		return nil, err
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// getDefaultConfigPath returns the default configuration file path
func getDefaultConfigPath() string {
	// First try current directory
	if _, err := os.Stat("config.toml"); err == nil {
		return "config.toml"
	}

	// Then try config directory
	configDir := "config"
	if _, err := os.Stat(filepath.Join(configDir, "config.toml")); err == nil {
		return filepath.Join(configDir, "config.toml")
	}

	// Default to current directory
	return "config.toml"
}

// applyEnvOverrides lets environment variables take precedence for secrets
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("MEDIA_CLOUD_NAME"); v != "" {
		cfg.Transform.MediaCloudName = v
	}
	if v := os.Getenv("MEDIA_API_KEY"); v != "" {
		cfg.Transform.MediaAPIKey = v
	}
	if v := os.Getenv("MEDIA_API_SECRET"); v != "" {
		cfg.Transform.MediaAPISecret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Storage.RedisAddr = v
	}
}

// setDefaults applies default values to configuration fields
func setDefaults(cfg *Config) {
	if cfg.Telegram.PollingTimeout == 0 {
		cfg.Telegram.PollingTimeout = 60
	}
	if cfg.Telegram.StartupMaxRetries == 0 {
		cfg.Telegram.StartupMaxRetries = 3
	}
	if cfg.Telegram.StartupRetryDelay == 0 {
		cfg.Telegram.StartupRetryDelay = 2
	}
	if cfg.Transform.Backend == "" {
		cfg.Transform.Backend = "ffmpeg"
	}
	if cfg.Transform.Timeout == 0 {
		cfg.Transform.Timeout = 30
	}
	if cfg.Transform.TempDir == "" {
		cfg.Transform.TempDir = "temp"
	}
	if cfg.Transform.MediaBaseURL == "" {
		cfg.Transform.MediaBaseURL = "https://api.cloudinary.com/v1_1"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "file"
	}
	if cfg.Storage.FilePath == "" {
		cfg.Storage.FilePath = "sessions.json"
	}
	if cfg.WebApp.ListenAddr == "" {
		cfg.WebApp.ListenAddr = ":8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "bot.log"
	}
}

// Validate checks if the configuration is valid. Missing credentials are
// startup failures, never silently defaulted.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return &ConfigError{Field: "telegram.token", Message: "telegram token is required"}
	}

	switch c.Transform.Backend {
	case "ffmpeg":
		// ffmpeg_path defaults to a PATH lookup, nothing required here
	case "remote":
		if c.Transform.MediaCloudName == "" {
			return &ConfigError{Field: "transform.media_cloud_name", Message: "media API cloud name is required for the remote backend"}
		}
		if c.Transform.MediaAPIKey == "" {
			return &ConfigError{Field: "transform.media_api_key", Message: "media API key is required for the remote backend"}
		}
		if c.Transform.MediaAPISecret == "" {
			return &ConfigError{Field: "transform.media_api_secret", Message: "media API secret is required for the remote backend"}
		}
	default:
		return &ConfigError{Field: "transform.backend", Message: "backend must be \"ffmpeg\" or \"remote\""}
	}

	if c.Storage.Type == "redis" && c.Storage.RedisAddr == "" {
		return &ConfigError{Field: "storage.redis_addr", Message: "redis address is required for redis storage"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
