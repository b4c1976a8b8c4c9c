package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

const (
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

type HTTPConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type UpstreamConfig struct {
	BaseURL     string
	EventsPath  string
	SummaryPath string
	Timeout     time.Duration
}

type DashboardConfig struct {
	PollInterval time.Duration
	FetchLimit   int
	TimeZone     string
	Location     *time.Location
}

type Config struct {
	Environment string
	SourceKind  string
	HTTP        HTTPConfig
	DB          DBConfig
	Upstream    UpstreamConfig
	Dashboard   DashboardConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		SourceKind:  strings.ToLower(strings.TrimSpace(v.GetString("SOURCE_KIND"))),
		HTTP: HTTPConfig{
			Host:               v.GetString("HTTP_HOST"),
			Port:               v.GetInt("HTTP_PORT"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Upstream: UpstreamConfig{
			BaseURL:     strings.TrimRight(v.GetString("UPSTREAM_BASE_URL"), "/"),
			EventsPath:  v.GetString("UPSTREAM_EVENTS_PATH"),
			SummaryPath: v.GetString("UPSTREAM_SUMMARY_PATH"),
			Timeout:     v.GetDuration("UPSTREAM_TIMEOUT"),
		},
		Dashboard: DashboardConfig{
			PollInterval: v.GetDuration("POLL_INTERVAL"),
			FetchLimit:   v.GetInt("POLL_FETCH_LIMIT"),
			TimeZone:     v.GetString("DASHBOARD_TIMEZONE"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if len(cfg.HTTP.CORSAllowedOrigins) == 0 {
		cfg.HTTP.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.SourceKind == "" {
		cfg.SourceKind = SourceHTTP
	}
	if cfg.Upstream.EventsPath == "" {
		cfg.Upstream.EventsPath = "/api/data"
	}
	if cfg.Upstream.SummaryPath == "" {
		cfg.Upstream.SummaryPath = "/api/statistics"
	}
	if cfg.Upstream.Timeout <= 0 {
		cfg.Upstream.Timeout = 10 * time.Second
	}
	if cfg.Dashboard.PollInterval <= 0 {
		cfg.Dashboard.PollInterval = 30 * time.Second
	}
	if cfg.Dashboard.FetchLimit < 0 {
		cfg.Dashboard.FetchLimit = 0
	}
	if cfg.Dashboard.TimeZone == "" {
		cfg.Dashboard.TimeZone = "Asia/Jakarta"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.SourceKind {
	case SourceHTTP:
		if cfg.Upstream.BaseURL == "" {
			return fmt.Errorf("UPSTREAM_BASE_URL is required for SOURCE_KIND=%s", SourceHTTP)
		}
	case SourcePostgres, SourceSQLite:
		if cfg.DB.DSN == "" {
			return fmt.Errorf("DB_DSN is required for SOURCE_KIND=%s", cfg.SourceKind)
		}
	default:
		return fmt.Errorf("unsupported SOURCE_KIND %q", cfg.SourceKind)
	}

	loc, err := time.LoadLocation(cfg.Dashboard.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid DASHBOARD_TIMEZONE %q: %w", cfg.Dashboard.TimeZone, err)
	}
	cfg.Dashboard.Location = loc

	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
