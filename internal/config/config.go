package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"copytrader/internal/models"
)

type Config struct {
	Broker      BrokerConfig
	Leader      AccountConfig
	Followers   []FollowerConfig
	Risk        RiskConfig
	Replication ReplicationConfig
	Feed        FeedConfig
	MarketHours MarketHoursConfig
	Runtime     RuntimeConfig
}

type BrokerConfig struct {
	BaseURL string
	WSURL   string
}

type AccountConfig struct {
	UserID      string
	APIKey      string
	APISecret   string
	AccessToken string
}

type FollowerConfig struct {
	UserID             string             `mapstructure:"user_id"`
	APIKey             string             `mapstructure:"api_key"`
	APISecret          string             `mapstructure:"api_secret"`
	AccessToken        string             `mapstructure:"access_token"`
	Enabled            bool               `mapstructure:"enabled"`
	Multiplier         float64            `mapstructure:"multiplier"`
	MaxPosition        int                `mapstructure:"max_position"`
	Segments           []string           `mapstructure:"segments"`
	SegmentMultipliers map[string]float64 `mapstructure:"segment_multipliers"`
	SegmentLimits      map[string]int     `mapstructure:"segment_limits"`
}

type RiskConfig struct {
	DailyTradeCap       int
	DailyLossFloor      float64
	HighRiskCommodities []string
}

type ReplicationConfig struct {
	PacingInterval  time.Duration
	MaxAttempts     int
	ShutdownTimeout time.Duration
}

type FeedConfig struct {
	MaxReconnects int
	ReconnectMin  time.Duration
	ReconnectMax  time.Duration
}

type MarketHoursConfig struct {
	Enabled  bool
	Open     string
	Close    string
	Timezone string
}

type RuntimeConfig struct {
	PaperTrading bool
	MetricsAddr  string
	Log          LogConfig
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

func Load() (*Config, error) {
	cfg := &Config{}
	viper.AddConfigPath("configs")
	viper.SetConfigName("config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("Не удалось прочитать конфигурацию: %w", err)
	}

	setDefaults()

	cfg.Broker = BrokerConfig{
		BaseURL: viper.GetString("broker.base_url"),
		WSURL:   viper.GetString("broker.ws_url"),
	}

	cfg.Leader = AccountConfig{
		UserID:      viper.GetString("leader.user_id"),
		APIKey:      envSub("leader.api_key"),
		APISecret:   envSub("leader.api_secret"),
		AccessToken: envSub("leader.access_token"),
	}

	if err := viper.UnmarshalKey("followers", &cfg.Followers); err != nil {
		return nil, fmt.Errorf("Не удалось разобрать список последователей: %w", err)
	}
	for i := range cfg.Followers {
		cfg.Followers[i].APIKey = expandEnv(cfg.Followers[i].APIKey)
		cfg.Followers[i].APISecret = expandEnv(cfg.Followers[i].APISecret)
		cfg.Followers[i].AccessToken = expandEnv(cfg.Followers[i].AccessToken)
	}

	cfg.Risk = RiskConfig{
		DailyTradeCap:       viper.GetInt("risk.daily_trade_cap"),
		DailyLossFloor:      viper.GetFloat64("risk.daily_loss_floor"),
		HighRiskCommodities: viper.GetStringSlice("risk.high_risk_commodities"),
	}

	cfg.Replication = ReplicationConfig{
		PacingInterval:  viper.GetDuration("replication.pacing_interval"),
		MaxAttempts:     viper.GetInt("replication.max_attempts"),
		ShutdownTimeout: viper.GetDuration("replication.shutdown_timeout"),
	}

	cfg.Feed = FeedConfig{
		MaxReconnects: viper.GetInt("feed.max_reconnects"),
		ReconnectMin:  viper.GetDuration("feed.reconnect_min"),
		ReconnectMax:  viper.GetDuration("feed.reconnect_max"),
	}

	cfg.MarketHours = MarketHoursConfig{
		Enabled:  viper.GetBool("market_hours.enabled"),
		Open:     viper.GetString("market_hours.open"),
		Close:    viper.GetString("market_hours.close"),
		Timezone: viper.GetString("market_hours.timezone"),
	}

	cfg.Runtime = RuntimeConfig{
		PaperTrading: viper.GetBool("runtime.paper_trading"),
		MetricsAddr:  viper.GetString("runtime.metrics_addr"),
		Log: LogConfig{
			Level:      viper.GetString("runtime.log.level"),
			Format:     viper.GetString("runtime.log.format"),
			File:       viper.GetString("runtime.log.file"),
			MaxSize:    viper.GetInt("runtime.log.max_size"),
			MaxBackups: viper.GetInt("runtime.log.max_backups"),
			MaxAge:     viper.GetInt("runtime.log.max_age"),
			Compress:   viper.GetBool("runtime.log.compress"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("risk.daily_trade_cap", 100)
	viper.SetDefault("risk.daily_loss_floor", 10000.0)
	viper.SetDefault("risk.high_risk_commodities", []string{"CRUDEOIL", "NATURALGAS", "GOLD", "SILVER"})
	viper.SetDefault("replication.pacing_interval", time.Second)
	viper.SetDefault("replication.max_attempts", 3)
	viper.SetDefault("replication.shutdown_timeout", 10*time.Second)
	viper.SetDefault("feed.max_reconnects", 10)
	viper.SetDefault("feed.reconnect_min", time.Second)
	viper.SetDefault("feed.reconnect_max", 30*time.Second)
	viper.SetDefault("market_hours.open", "09:15")
	viper.SetDefault("market_hours.close", "15:30")
	viper.SetDefault("market_hours.timezone", "Asia/Kolkata")
	viper.SetDefault("runtime.paper_trading", true)
}

func (c *Config) Validate() error {
	if c.Leader.APIKey == "" || c.Leader.APISecret == "" || c.Leader.AccessToken == "" || c.Leader.UserID == "" {
		return fmt.Errorf("Учётные данные лидера не заполнены.")
	}
	if len(c.Followers) == 0 {
		return fmt.Errorf("Не настроен ни один последователь.")
	}
	for _, f := range c.Followers {
		if f.UserID == "" {
			return fmt.Errorf("У последователя не указан user_id.")
		}
		if !c.Runtime.PaperTrading && (f.APIKey == "" || f.AccessToken == "") {
			return fmt.Errorf("Учётные данные последователя %s не заполнены.", f.UserID)
		}
		if f.Multiplier < 0 {
			return fmt.Errorf("Отрицательный множитель у последователя %s.", f.UserID)
		}
	}
	return nil
}

// EnabledSegments возвращает набор сегментов, разрешённых последователю.
// Пустой список в конфигурации означает все известные сегменты.
func (f FollowerConfig) EnabledSegments() map[models.Segment]bool {
	enabled := make(map[models.Segment]bool)
	if len(f.Segments) == 0 {
		for _, s := range models.KnownSegments {
			enabled[s] = true
		}
		return enabled
	}
	for _, s := range f.Segments {
		enabled[models.Segment(strings.ToUpper(strings.TrimSpace(s)))] = true
	}
	return enabled
}

// SegmentMultiplier возвращает множитель сегмента с откатом к базовому.
func (f FollowerConfig) SegmentMultiplier(segment models.Segment) float64 {
	if m, ok := f.SegmentMultipliers[string(segment)]; ok {
		return m
	}
	return f.Multiplier
}

// SegmentLimit возвращает лимит позиции сегмента с откатом к базовому.
func (f FollowerConfig) SegmentLimit(segment models.Segment) int {
	if l, ok := f.SegmentLimits[string(segment)]; ok {
		return l
	}
	return f.MaxPosition
}

func envSub(key string) string {
	return expandEnv(viper.GetString(key))
}

func expandEnv(val string) string {
	if val == "" {
		return ""
	}

	re := regexp.MustCompile(`\$\{(\w+)\}`)
	return re.ReplaceAllStringFunc(val, func(match string) string {
		envKey := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(envKey)
	})
}
