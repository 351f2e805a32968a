// Package config loads kai's configuration.
//
// Precedence, highest first:
//  1. Environment variables with the KAI_ prefix (KAI_SERVER_PORT -> server.port)
//  2. The YAML config file
//  3. Defaults
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/mklimuk/kai/pkg/logging"
)

const (
	EnvPrefix         = "KAI_"
	maxConfigFileSize = 1024 * 1024
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Storage    StorageConfig    `koanf:"storage"`
	Log        logging.Config   `koanf:"log"`
	Auth       AuthConfig       `koanf:"auth"`
	Vault      VaultConfig      `koanf:"vault"`
	Feed       FeedConfig       `koanf:"feed"`
	Chat       ChatConfig       `koanf:"chat"`
	Comments   CommentsConfig   `koanf:"comments"`
	Automation AutomationConfig `koanf:"automation"`
	Bots       BotsConfig       `koanf:"bots"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type StorageConfig struct {
	DBPath string `koanf:"db_path"`
	// Debounce is the quiet period before store snapshots are written.
	Debounce time.Duration `koanf:"debounce"`
}

// AuthConfig enables the password gate when either field is set.
// PasswordHash takes precedence over Password.
type AuthConfig struct {
	Password     string `koanf:"password"`
	PasswordHash string `koanf:"password_hash"`
}

func (a AuthConfig) Enabled() bool {
	return a.Password != "" || a.PasswordHash != ""
}

type VaultConfig struct {
	Path        string `koanf:"path"`
	TemplateDir string `koanf:"template_dir"`
	// Commit records every export that changed files as a git commit.
	Commit bool `koanf:"commit"`
}

type FeedConfig struct {
	Catalog string `koanf:"catalog"`
	// Watch reloads the catalog when the file changes. Ignored without Catalog.
	Watch bool `koanf:"watch"`
}

type ChatConfig struct {
	ReplyDelay time.Duration `koanf:"reply_delay"`
}

type CommentsConfig struct {
	Author string `koanf:"author"`
}

type AutomationConfig struct {
	// Tick is how often due jobs are checked.
	Tick time.Duration `koanf:"tick"`
	// DailyRollover creates today's daily note just after midnight.
	DailyRollover bool   `koanf:"daily_rollover"`
	Timezone      string `koanf:"timezone"`
	// ExportInterval enables periodic vault export; zero disables it.
	ExportInterval time.Duration `koanf:"export_interval"`
}

type BotsConfig struct {
	TelegramToken string `koanf:"telegram_token"`
	// TelegramChatIDs limits the Telegram bot to these chats; empty allows all.
	TelegramChatIDs []int64 `koanf:"telegram_chat_ids"`
	DiscordToken    string  `koanf:"discord_token"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			DBPath:   "kai.db",
			Debounce: 500 * time.Millisecond,
		},
		Log: logging.Config{
			Level:  "info",
			Format: "json",
		},
		Feed: FeedConfig{Watch: true},
		Chat: ChatConfig{ReplyDelay: time.Second},
		Comments: CommentsConfig{
			Author: "John",
		},
		Automation: AutomationConfig{
			Tick:          time.Minute,
			DailyRollover: true,
			Timezone:      "Local",
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty or missing)
// and then the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if content != nil {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps KAI_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s is too large (%d bytes)", path, info.Size())
	}
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Storage.DBPath == "" {
		return errors.New("storage.db_path is required")
	}
	if c.Storage.Debounce < 0 {
		return errors.New("storage.debounce must not be negative")
	}
	if c.Chat.ReplyDelay < 0 {
		return errors.New("chat.reply_delay must not be negative")
	}
	if c.Automation.Tick <= 0 {
		return errors.New("automation.tick must be positive")
	}
	if c.Automation.ExportInterval < 0 {
		return errors.New("automation.export_interval must not be negative")
	}
	if c.Automation.ExportInterval > 0 && c.Vault.Path == "" {
		return errors.New("automation.export_interval requires vault.path")
	}
	if c.Vault.Commit && c.Vault.Path == "" {
		return errors.New("vault.commit requires vault.path")
	}
	if _, err := time.LoadLocation(c.Automation.Timezone); err != nil {
		return fmt.Errorf("invalid automation.timezone %q: %w", c.Automation.Timezone, err)
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}
