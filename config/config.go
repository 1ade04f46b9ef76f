// Package config loads go-insee settings from config.yaml and GOINSEE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
)

const EnvPrefix = "GOINSEE"

// Source kinds.
const (
	SourceStatic   = "static"
	SourceRemote   = "remote"
	SourcePostgres = "postgres"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Source   SourceConfig   `mapstructure:"source"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Cache    CacheConfig    `mapstructure:"cache"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Datagouv DatagouvConfig `mapstructure:"datagouv"`
	Geo      GeoConfig      `mapstructure:"geo"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// SourceConfig selects where official series come from. With Fallback set,
// remote and postgres sources fall back to the embedded static data.
type SourceConfig struct {
	Kind          string `mapstructure:"kind"`
	InflationURL  string `mapstructure:"inflation_url"`
	PopulationURL string `mapstructure:"population_url"`
	Fallback      bool   `mapstructure:"fallback"`
}

type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type CacheConfig struct {
	InflationTTL  time.Duration `mapstructure:"inflation_ttl"`
	DemographyTTL time.Duration `mapstructure:"demography_ttl"`
	StaticTTL     time.Duration `mapstructure:"static_ttl"`
}

type HTTPConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
	RetryWait  time.Duration `mapstructure:"retry_wait"`
}

type DatagouvConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	RateLimit float64       `mapstructure:"rate_limit"`
	Burst     int           `mapstructure:"burst"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type GeoConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Log:    LogConfig{Level: "info", Format: "text"},
		Source: SourceConfig{Kind: SourceStatic, Fallback: true},
		Postgres: PostgresConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Cache: CacheConfig{
			InflationTTL:  15 * time.Minute,
			DemographyTTL: 24 * time.Hour,
			StaticTTL:     24 * time.Hour,
		},
		HTTP:     HTTPConfig{Timeout: 10 * time.Second},
		Datagouv: DatagouvConfig{BaseURL: "https://www.data.gouv.fr/api/1", RateLimit: 5, Burst: 5, TTL: time.Hour},
		Geo:      GeoConfig{BaseURL: "https://geo.api.gouv.fr", TTL: 24 * time.Hour},
	}
}

// Load reads path when given, otherwise an optional ./config.yaml, then
// applies GOINSEE_* overrides (server.read_timeout -> GOINSEE_SERVER_READ_TIMEOUT).
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		_ = v.ReadInConfig()
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string(nil), parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs *multierror.Error
	if c.Server.Address == "" {
		errs = multierror.Append(errs, errors.New("server.address is required"))
	}
	if c.Server.RateLimit < 0 {
		errs = multierror.Append(errs, fmt.Errorf("server.rate_limit must not be negative, got %v", c.Server.RateLimit))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = multierror.Append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	switch c.Source.Kind {
	case SourceStatic:
	case SourceRemote:
		if c.Source.InflationURL == "" || c.Source.PopulationURL == "" {
			errs = multierror.Append(errs, errors.New("source.inflation_url and source.population_url are required for the remote source"))
		}
	case SourcePostgres:
		if c.Postgres.DSN == "" {
			errs = multierror.Append(errs, errors.New("postgres.dsn is required for the postgres source"))
		}
	default:
		errs = multierror.Append(errs, fmt.Errorf("source.kind must be static, remote or postgres, got %q", c.Source.Kind))
	}
	for name, ttl := range map[string]time.Duration{
		"cache.inflation_ttl":  c.Cache.InflationTTL,
		"cache.demography_ttl": c.Cache.DemographyTTL,
		"cache.static_ttl":     c.Cache.StaticTTL,
	} {
		if ttl <= 0 {
			errs = multierror.Append(errs, fmt.Errorf("%s must be positive, got %s", name, ttl))
		}
	}
	if c.HTTP.RetryCount < 0 {
		errs = multierror.Append(errs, fmt.Errorf("http.retry_count must not be negative, got %d", c.HTTP.RetryCount))
	}
	if c.Datagouv.RateLimit < 0 || c.Datagouv.Burst < 0 {
		errs = multierror.Append(errs, errors.New("datagouv.rate_limit and datagouv.burst must not be negative"))
	}
	return errs.ErrorOrNil()
}
