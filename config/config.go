package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/angas/pstryk-go/logging"
	"github.com/angas/pstryk-go/pstryk"
	"github.com/spf13/viper"
)

type AppConfigApi struct {
	Address string
	Port    int16
}

type AppConfigDatabase struct {
	Path string
	// Maximum number of log entries kept in the database, default: 10000
	MaxLogEntries *int `mapstructure:"max_log_entries"`
	// How many days refresh history is kept before it gets purged
	HistoryRetentionDays *int `mapstructure:"history_retention_days"`
	// How many days daily backup files are kept before they get deleted
	BackupRetentionDays *int `mapstructure:"backup_retention_days"`
}

func (d AppConfigDatabase) GetMaxLogEntries() int {
	if d.MaxLogEntries == nil {
		return 10000
	}
	return *d.MaxLogEntries
}

func (d AppConfigDatabase) GetHistoryRetentionDays() int {
	if d.HistoryRetentionDays == nil {
		return 90
	}
	return *d.HistoryRetentionDays
}

func (d AppConfigDatabase) GetBackupRetentionDays() int {
	if d.BackupRetentionDays == nil {
		return 90
	}
	return *d.BackupRetentionDays
}

type AppConfigPstryk struct {
	// API key issued by pstryk.pl
	ApiKey string `mapstructure:"api_key"`
	// Override for the integrations API base URL, mainly for testing
	BaseUrl *string `mapstructure:"base_url"`
	// HTTP timeout in seconds, default: 30
	TimeoutSeconds *int `mapstructure:"timeout_seconds"`
	// IANA timezone the meter lives in, default: "Europe/Warsaw"
	Timezone *string `mapstructure:"timezone"`
	// How many of today's cheapest buy hours to rank, 1-24, default: 5
	BuyTop *int `mapstructure:"buy_top"`
	// How many of today's best sell hours to rank, 1-24, default: 5
	SellTop *int `mapstructure:"sell_top"`
}

func (p AppConfigPstryk) GetBaseUrl() string {
	if p.BaseUrl == nil {
		return pstryk.DefaultBaseURL
	}
	return *p.BaseUrl
}

func (p AppConfigPstryk) GetTimeout() time.Duration {
	if p.TimeoutSeconds == nil {
		return pstryk.DefaultTimeout
	}
	return time.Duration(*p.TimeoutSeconds) * time.Second
}

func (p AppConfigPstryk) GetTimezone() string {
	if p.Timezone == nil {
		return "Europe/Warsaw"
	}
	return *p.Timezone
}

func (p AppConfigPstryk) GetBuyTop() int {
	return clampTop(p.BuyTop)
}

func (p AppConfigPstryk) GetSellTop() int {
	return clampTop(p.SellTop)
}

func clampTop(top *int) int {
	if top == nil {
		return 5
	}
	if *top < 1 {
		return 1
	}
	if *top > 24 {
		return 24
	}
	return *top
}

type AppConfigRetry struct {
	// Maximum attempts per fetch, default: 3
	MaxRetries *int `mapstructure:"max_retries"`
	// First backoff delay in seconds, doubled per attempt, default: 2.0
	BaseDelaySeconds *float64 `mapstructure:"base_delay_seconds"`
}

func (r AppConfigRetry) GetMaxRetries() int {
	if r.MaxRetries == nil {
		return 3
	}
	return *r.MaxRetries
}

func (r AppConfigRetry) GetBaseDelay() time.Duration {
	if r.BaseDelaySeconds == nil {
		return 2 * time.Second
	}
	return time.Duration(*r.BaseDelaySeconds * float64(time.Second))
}

type AppConfigMqtt struct {
	Enabled  bool
	Host     string
	Port     int16
	Username string
	Password string
	// Root of the published topics, default: "pstryk"
	TopicPrefix *string `mapstructure:"topic_prefix"`
}

func (m AppConfigMqtt) GetTopicPrefix() string {
	if m.TopicPrefix == nil {
		return "pstryk"
	}
	return *m.TopicPrefix
}

type AppConfigLogging struct {
	// Min log level for database: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Min log level for console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.LevelFromString(l.DbLevel)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat == nil {
		return "JSON"
	}
	if strings.EqualFold(*l.DbAttrsFormat, "text") {
		return "TEXT"
	}
	return "JSON"
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelFromString(l.ConsoleLevel)
}

type AppConfig struct {
	Api      AppConfigApi
	Database AppConfigDatabase
	Pstryk   AppConfigPstryk
	Retry    AppConfigRetry
	Mqtt     AppConfigMqtt
	Logging  AppConfigLogging
}

func Load(path string) (*AppConfig, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.AddConfigPath("config")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var c AppConfig

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	if err := viper.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}

	if c.Pstryk.ApiKey == "" {
		return nil, fmt.Errorf("pstryk.api_key is required")
	}

	return &c, nil
}
