package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DEFRA/water-abstraction-service-sub002/billing"
	"github.com/DEFRA/water-abstraction-service-sub002/config"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"TPT_CONFIG", "TPT_ADDR", "TPT_DB", "TPT_LOG_LEVEL", "TPT_PURPOSE_CODES"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tpt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	opts := cfg.Options()
	assert.Equal(t, billing.DefaultOptions().TwoPartTariff.PurposeCodes, opts.TwoPartTariff.PurposeCodes)
	assert.Equal(t, "1000", opts.TwoPartTariff.UnitDivisor.String())
	assert.Equal(t, billing.Section127, opts.Section127Code)
}

func TestLoad_FileThenEnv(t *testing.T) {
	// GIVEN: a YAML file and an env override for the database
	clearEnv(t)
	t.Setenv("TPT_CONFIG", writeConfig(t, `
addr: ":9090"
db_path: ./file.db
log_level: debug
billing:
  purpose_codes: ["400"]
  agreement_codes: [S127]
  unit_divisor: "1"
`))
	t.Setenv("TPT_DB", ":memory:")

	// WHEN: loaded
	cfg, err := config.Load()
	require.NoError(t, err)

	// THEN: env wins over the file, the file over the defaults
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, ":memory:", cfg.DBPath)
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	opts := cfg.Options()
	assert.Equal(t, []string{"400"}, opts.TwoPartTariff.PurposeCodes)
	assert.Equal(t, []string{"S127"}, opts.AgreementCodes)
	assert.Equal(t, "1", opts.TwoPartTariff.UnitDivisor.String())
}

func TestLoad_PurposeCodesFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TPT_PURPOSE_CODES", "400, 420 ,")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"400", "420"}, cfg.Billing.PurposeCodes)
}

func TestOptions_DisableSection127Check(t *testing.T) {
	cfg := config.Default()
	cfg.Billing.DisableSection127Check = true

	assert.Empty(t, cfg.Options().Section127Code)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"no addr", func(c *config.Config) { c.Addr = "" }},
		{"no db", func(c *config.Config) { c.DBPath = "" }},
		{"bad level", func(c *config.Config) { c.LogLevel = "loud" }},
		{"no purposes", func(c *config.Config) { c.Billing.PurposeCodes = nil }},
		{"zero divisor", func(c *config.Config) { c.Billing.UnitDivisor = "0" }},
		{"bad divisor", func(c *config.Config) { c.Billing.UnitDivisor = "ten" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("TPT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := config.Load()

	assert.Error(t, err)
}
