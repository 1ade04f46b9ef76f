package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, SourceStatic, cfg.Source.Kind)
	assert.Equal(t, 15*time.Minute, cfg.Cache.InflationTTL)
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GOINSEE_SERVER_ADDRESS", ":9090")
	t.Setenv("GOINSEE_SERVER_READ_TIMEOUT", "3s")
	t.Setenv("GOINSEE_SERVER_RATE_LIMIT", "2.5")
	t.Setenv("GOINSEE_CACHE_INFLATION_TTL", "1m")
	t.Setenv("GOINSEE_SOURCE_KIND", "postgres")
	t.Setenv("GOINSEE_POSTGRES_DSN", "postgres://localhost/insee")
	t.Setenv("GOINSEE_HTTP_RETRY_COUNT", "2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 2.5, cfg.Server.RateLimit)
	assert.Equal(t, time.Minute, cfg.Cache.InflationTTL)
	assert.Equal(t, SourcePostgres, cfg.Source.Kind)
	assert.Equal(t, "postgres://localhost/insee", cfg.Postgres.DSN)
	assert.Equal(t, 2, cfg.HTTP.RetryCount)
	assert.Equal(t, 24*time.Hour, cfg.Cache.DemographyTTL)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "insee.yaml")
	body := `server:
  address: ":7070"
  cors_origins: ["https://a.example", "https://b.example"]
log:
  level: debug
  format: json
source:
  kind: remote
  inflation_url: https://stats.example/inflation
  population_url: https://stats.example/population/{code}
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, SourceRemote, cfg.Source.Kind)
	assert.Equal(t, "https://stats.example/population/{code}", cfg.Source.PopulationURL)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.Address = ""
	cfg.Log.Format = "xml"
	cfg.Source.Kind = SourceRemote
	cfg.Cache.StaticTTL = 0

	err := cfg.Validate()
	require.Error(t, err)
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 4)
	assert.Contains(t, err.Error(), "log.format")
}

func TestValidateUnknownSource(t *testing.T) {
	cfg := Default()
	cfg.Source.Kind = "ftp"
	require.ErrorContains(t, cfg.Validate(), "source.kind")
	assert.NoError(t, Default().Validate())
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory for the duration of the test and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
