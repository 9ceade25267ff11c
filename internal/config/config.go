package config

import (
	yamlenv "github.com/ifuryst/go-yaml-env"

	"github.com/Shalenii/Unified-Digital-Marketer/pkg/logger"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logger    logger.Config   `yaml:"logger"`
	Storage   StorageConfig   `yaml:"storage"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Platforms PlatformsConfig `yaml:"platforms"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	Mode     string `yaml:"mode"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type DatabaseConfig struct {
	// Type selects the store backend: "postgres" for the durable store,
	// "memory" for a throwaway in-process store (dev/demo).
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
}

type StorageConfig struct {
	// UploadsDir holds images uploaded through the create-post form.
	UploadsDir string `yaml:"uploads_dir"`
	// SourceContentDir holds pre-dropped images organized in YYYY-MM-DD
	// folders, used by Auto-mode posts.
	SourceContentDir string `yaml:"source_content_dir"`
	// PublicBaseURL is the externally reachable base URL of this server.
	// Instagram refuses anything it cannot fetch itself, so this must not
	// point at localhost for real Instagram delivery.
	PublicBaseURL string `yaml:"public_base_url"`
}

type SchedulerConfig struct {
	Interval string `yaml:"interval"`
	Enabled  bool   `yaml:"enabled"`
}

type PlatformsConfig struct {
	Twitter   TwitterConfig   `yaml:"twitter"`
	Facebook  FacebookConfig  `yaml:"facebook"`
	Instagram InstagramConfig `yaml:"instagram"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	WhatsApp  WhatsAppConfig  `yaml:"whatsapp"`
}

type TwitterConfig struct {
	AppKey       string `yaml:"app_key"`
	AppSecret    string `yaml:"app_secret"`
	AccessToken  string `yaml:"access_token"`
	AccessSecret string `yaml:"access_secret"`
}

type FacebookConfig struct {
	PageID      string `yaml:"page_id"`
	AccessToken string `yaml:"access_token"`
}

type InstagramConfig struct {
	AccountID string `yaml:"account_id"`
	// AccessToken is usually the same page token as Facebook's.
	AccessToken string `yaml:"access_token"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type WhatsAppConfig struct {
	AccessToken   string `yaml:"access_token"`
	PhoneNumberID string `yaml:"phone_number_id"`
	ToPhone       string `yaml:"to_phone"`
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}

	// Set default values
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3001
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = "UTC"
	}
	if cfg.Storage.UploadsDir == "" {
		cfg.Storage.UploadsDir = "data/uploads"
	}
	if cfg.Storage.SourceContentDir == "" {
		cfg.Storage.SourceContentDir = "data/source_content"
	}
	if cfg.Scheduler.Interval == "" {
		cfg.Scheduler.Interval = "1m"
	}
	if !cfg.Scheduler.Enabled {
		cfg.Scheduler.Enabled = true
	}

	return cfg, nil
}
