package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/algae-foundation/teacher-analytics/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Geocoder GeocoderConfig `yaml:"geocoder" mapstructure:"geocoder"`
	Ingest   IngestConfig   `yaml:"ingest" mapstructure:"ingest"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the dataset backend.
type StoreConfig struct {
	// Driver selects the backend: csv, postgres, or sqlite.
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	CSVPath     string           `yaml:"csv_path" mapstructure:"csv_path"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string           `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// GeocoderConfig configures the upstream geocoding service.
type GeocoderConfig struct {
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	Country        string  `yaml:"country" mapstructure:"country"`
}

// IngestConfig configures roster ingestion.
type IngestConfig struct {
	// CheckpointRows is how often the backfill persists partial progress.
	CheckpointRows  int `yaml:"checkpoint_rows" mapstructure:"checkpoint_rows"`
	InsertBatchSize int `yaml:"insert_batch_size" mapstructure:"insert_batch_size"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port          int      `yaml:"port" mapstructure:"port"`
	Password      string   `yaml:"password" mapstructure:"password"`
	JWTSecret     string   `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	TokenTTLHours int      `yaml:"token_ttl_hours" mapstructure:"token_ttl_hours"`
	BackfillCron  string   `yaml:"backfill_cron" mapstructure:"backfill_cron"`
	CORSOrigins   []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file, and environment.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TEACHERDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "csv")
	v.SetDefault("store.csv_path", "teacher_data.csv")
	v.SetDefault("store.sqlite_path", "teacher_data.db")
	v.SetDefault("store.pool.max_conns", 10)
	v.SetDefault("store.pool.min_conns", 2)
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.user_agent", "AlgaeFoundation-Dashboard/1.0")
	v.SetDefault("geocoder.timeout_secs", 10)
	v.SetDefault("geocoder.requests_per_sec", 1)
	v.SetDefault("geocoder.country", "USA")
	v.SetDefault("ingest.checkpoint_rows", 50)
	v.SetDefault("ingest.insert_batch_size", 100)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.token_ttl_hours", 24)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
