package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "railways.yaml")
	content := `
risk:
  threshold: 0.6
  lookahead: 40s
  monte_carlo:
    samples: 0
blocked:
  policy: ttl
  ttl: 90
spawn:
  enabled: true
  max_trains: 12
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.6, cfg.Risk.Threshold)
	assert.Equal(t, 40*time.Second, cfg.Risk.Lookahead)
	assert.Equal(t, 0, cfg.Risk.MonteCarlo.Samples)
	assert.Equal(t, 0.12, cfg.Risk.MonteCarlo.StdDev, "untouched keys keep defaults")
	assert.Equal(t, 90*time.Second, cfg.Blocked.TTL)
	assert.True(t, cfg.Spawn.Enabled)
	assert.Equal(t, 12, cfg.Spawn.MaxTrains)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "railways.json")
	content := `{"server": {"addr": ":9000"}, "arbiter": {"critical_ttc": 5, "workers": 2}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Arbiter.CriticalTTC)
	assert.Equal(t, 2, cfg.Arbiter.Workers)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "railways.yaml")
	require.NoError(t, os.WriteFile(path, []byte("risk:\n  thresold: 0.6\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	errs := ValidationErrors(err)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "risk.thresold")
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "railways.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyOverrides([]string{
		"risk.threshold=0.7",
		"risk.lookahead=45",
		"spawn.interval=2m",
		"spawn.enabled=true",
		"feed.redis.db=3",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.7, cfg.Risk.Threshold)
	assert.Equal(t, 45*time.Second, cfg.Risk.Lookahead)
	assert.Equal(t, 2*time.Minute, cfg.Spawn.Interval)
	assert.True(t, cfg.Spawn.Enabled)
	assert.Equal(t, 3, cfg.Feed.Redis.DB)
	assert.Equal(t, "localhost:6379", cfg.Feed.Redis.Addr)

	assert.Error(t, cfg.ApplyOverrides([]string{"novalue"}))
	assert.Error(t, cfg.ApplyOverrides([]string{"risk.unknown=1"}))
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := Default()
	cfg.Risk.Threshold = 1.5
	cfg.Blocked.Policy = "sometimes"
	cfg.Feed.Backend = "memory"
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	errs := ValidationErrors(err)
	assert.Len(t, errs, 4)
	assert.Contains(t, err.Error(), "4 validation errors")
}

func TestValidate_TTLPolicyNeedsDuration(t *testing.T) {
	cfg := Default()
	cfg.Blocked.Policy = "ttl"
	cfg.Blocked.TTL = 0
	errs := ValidationErrors(cfg.Validate())
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "blocked.ttl")
}

func TestValidate_LookaheadMustBePositive(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		cfg := Default()
		cfg.Risk.Lookahead = d
		errs := ValidationErrors(cfg.Validate())
		require.Len(t, errs, 1, "lookahead %v", d)
		assert.Contains(t, errs[0].Error(), "risk.lookahead")
	}
}

func TestRiskParams(t *testing.T) {
	cfg := Default()
	cfg.Risk.Threshold = 0.4
	p := cfg.RiskParams()
	assert.Equal(t, 0.4, p.Threshold)
	assert.Equal(t, 100, p.MonteCarlo.Samples)
}
