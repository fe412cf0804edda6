package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DefaultSourceURL points at the published grades workbook.
const DefaultSourceURL = "https://github.com/dcamarena2505/dashboard1/raw/main/calificaciones.xlsx"

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Source  SourceConfig
	Redis   RedisConfig
	CORS    CORSConfig
	Log     LogConfig
	Exports ExportsConfig
	Metrics MetricsConfig
	Charts  ChartConfig
}

// SourceConfig locates the grades spreadsheet and tunes how often it is revalidated.
type SourceConfig struct {
	URL             string
	Path            string
	Format          string
	Sheet           string
	Timeout         time.Duration
	Retries         int
	CacheTTL        time.Duration
	RefreshInterval time.Duration
}

// Location returns the identity of the configured source, preferring the local path.
func (s SourceConfig) Location() string {
	if s.Path != "" {
		return s.Path
	}
	return s.URL
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	CacheTTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ExportsConfig configures CSV/PDF export storage and signed links.
type ExportsConfig struct {
	Enabled         bool
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	Retention       time.Duration
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// ChartConfig sets the rendered chart canvas size.
type ChartConfig struct {
	Width  int
	Height int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Source = SourceConfig{
		URL:             v.GetString("SOURCE_URL"),
		Path:            v.GetString("SOURCE_PATH"),
		Format:          strings.ToLower(v.GetString("SOURCE_FORMAT")),
		Sheet:           v.GetString("SOURCE_SHEET"),
		Timeout:         parseDuration(v.GetString("SOURCE_TIMEOUT"), 15*time.Second),
		Retries:         v.GetInt("SOURCE_RETRIES"),
		CacheTTL:        parseDuration(v.GetString("SOURCE_CACHE_TTL"), 10*time.Minute),
		RefreshInterval: parseDuration(v.GetString("REFRESH_INTERVAL"), 0),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS_CACHE"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		CacheTTL: parseDuration(v.GetString("REDIS_CACHE_TTL"), 30*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Exports = ExportsConfig{
		Enabled:         v.GetBool("ENABLE_EXPORTS"),
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), time.Hour),
		Retention:       parseDuration(v.GetString("EXPORTS_RETENTION"), 24*time.Hour),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	cfg.Charts = ChartConfig{
		Width:  v.GetInt("CHART_WIDTH"),
		Height: v.GetInt("CHART_HEIGHT"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("SOURCE_URL", DefaultSourceURL)
	v.SetDefault("SOURCE_PATH", "")
	v.SetDefault("SOURCE_FORMAT", "auto")
	v.SetDefault("SOURCE_SHEET", "")
	v.SetDefault("SOURCE_TIMEOUT", "15s")
	v.SetDefault("SOURCE_RETRIES", 2)
	v.SetDefault("SOURCE_CACHE_TTL", "10m")
	v.SetDefault("REFRESH_INTERVAL", "0s")

	v.SetDefault("ENABLE_REDIS_CACHE", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_CACHE_TTL", "30m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "1h")
	v.SetDefault("EXPORTS_RETENTION", "24h")

	v.SetDefault("ENABLE_METRICS", true)

	v.SetDefault("CHART_WIDTH", 900)
	v.SetDefault("CHART_HEIGHT", 480)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
