package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Cron     CronConfig     `mapstructure:"cron"`
	Epoch    EpochConfig    `mapstructure:"epoch"`
	Presence PresenceConfig `mapstructure:"presence"`
	Rates    RatesConfig    `mapstructure:"rates"`
	Claims   ClaimsConfig   `mapstructure:"claims"`
	Gamma    GammaConfig    `mapstructure:"gamma"`
	Markets  MarketsConfig  `mapstructure:"markets"`
	Tasks    TasksConfig    `mapstructure:"tasks"`
	Research ResearchConfig `mapstructure:"research"`
	Share    ShareConfig    `mapstructure:"share"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	MarketRefresh string `mapstructure:"market_refresh"`
	RateWindowGC  string `mapstructure:"rate_window_gc"`
}

type EpochConfig struct {
	Duration time.Duration `mapstructure:"duration"`
}

type PresenceConfig struct {
	HeartbeatTimeout time.Duration `mapstructure:"heartbeat_timeout"`
}

// RatesConfig holds fixed-window rate limits. TasksPerMinute is part of the
// published limits but no endpoint consumes it yet.
type RatesConfig struct {
	Window         time.Duration `mapstructure:"window"`
	SignalsPerHour int           `mapstructure:"signals_per_hour"`
	ClaimsPerHour  int           `mapstructure:"claims_per_hour"`
	TasksPerMinute int           `mapstructure:"tasks_per_minute"`
}

type ClaimsConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type GammaConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	PageLimit int           `mapstructure:"page_limit"`
}

type MarketsConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type TasksConfig struct {
	FeedTTL      time.Duration `mapstructure:"feed_ttl"`
	FeedTimeout  time.Duration `mapstructure:"feed_timeout"`
	ItemsPerFeed int           `mapstructure:"items_per_feed"`
	Feeds        []FeedConfig  `mapstructure:"feeds"`
}

type FeedConfig struct {
	Name     string `mapstructure:"name"`
	URL      string `mapstructure:"url"`
	Category string `mapstructure:"category"`
}

type ResearchConfig struct {
	Exa     ExaConfig     `mapstructure:"exa"`
	Twitter TwitterConfig `mapstructure:"twitter"`
}

type ExaConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type TwitterConfig struct {
	APIKey      string            `mapstructure:"api_key"`
	BaseURL     string            `mapstructure:"base_url"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	Credibility CredibilityConfig `mapstructure:"credibility"`
}

// CredibilityConfig filters social search results to accounts worth citing.
type CredibilityConfig struct {
	MinFollowers   int  `mapstructure:"min_followers"`
	MinEngagement  int  `mapstructure:"min_engagement"`
	VerifiedBypass bool `mapstructure:"verified_bypass"`
}

type ShareConfig struct {
	JoinURL string `mapstructure:"join_url"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SIGMINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":3456")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.market_refresh", "@every 10m")
	v.SetDefault("cron.rate_window_gc", "@every 1h")
	v.SetDefault("epoch.duration", "1h")
	v.SetDefault("presence.heartbeat_timeout", "2m")
	v.SetDefault("rates.window", "1h")
	v.SetDefault("rates.signals_per_hour", 10)
	v.SetDefault("rates.claims_per_hour", 5)
	v.SetDefault("rates.tasks_per_minute", 20)
	v.SetDefault("claims.ttl", "30m")
	v.SetDefault("gamma.base_url", "https://gamma-api.polymarket.com")
	v.SetDefault("gamma.timeout", "15s")
	v.SetDefault("gamma.page_limit", 100)
	v.SetDefault("markets.cache_ttl", "10m")
	v.SetDefault("tasks.feed_ttl", "5m")
	v.SetDefault("tasks.feed_timeout", "10s")
	v.SetDefault("tasks.items_per_feed", 5)
	v.SetDefault("research.exa.base_url", "https://api.exa.ai")
	v.SetDefault("research.exa.timeout", "20s")
	v.SetDefault("research.twitter.base_url", "https://api.twitterapi.io")
	v.SetDefault("research.twitter.timeout", "15s")
	v.SetDefault("research.twitter.credibility.min_followers", 1000)
	v.SetDefault("research.twitter.credibility.min_engagement", 100)
	v.SetDefault("research.twitter.credibility.verified_bypass", true)
	v.SetDefault("share.join_url", "https://sigmine.example.com/join.html")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
