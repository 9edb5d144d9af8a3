package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"minerwatch/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NotNil(t, cfg)
	assert.Equal(t, time.Second, cfg.Poll.Interval.Std())
	assert.Equal(t, 5*time.Second, cfg.Poll.FetchTimeout.Std())
	assert.Equal(t, 1, cfg.Poll.Concurrency)
	assert.True(t, cfg.Poll.SuffixMatchEnabled())
	assert.Equal(t, "file", cfg.Cache.Backend)
	assert.Equal(t, "cache.json", cfg.Cache.File.Path)
	assert.True(t, cfg.Display.IsEnabled())
	assert.Empty(t, cfg.ResolveTargets())
	assert.Len(t, cfg.Warnings, 1)
}

func TestLoad_MalformedFileUsesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "poll: [unterminated")

	cfg := Load(path)

	assert.Equal(t, time.Second, cfg.Poll.Interval.Std())
	assert.Empty(t, cfg.ResolveTargets())
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "malformed")
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
poll:
  interval: 2s
  fetch_timeout: 3
  concurrency: 4
  legacy_suffix_match: false
targets:
  - url: http://10.0.0.5:8080/2/summary
    worker_id: rig1
  - url: http://10.0.0.6:8080/2/summary
cache:
  backend: redis
  redis:
    addr: localhost:6379
display:
  enabled: false
  color: never
server:
  enabled: true
  port: 9000
`)

	cfg := Load(path)

	assert.Empty(t, cfg.Warnings)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval.Std())
	assert.Equal(t, 3*time.Second, cfg.Poll.FetchTimeout.Std())
	assert.Equal(t, 4, cfg.Poll.Concurrency)
	assert.False(t, cfg.Poll.SuffixMatchEnabled())
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "minerwatch:", cfg.Cache.Redis.KeyPrefix)
	assert.False(t, cfg.Display.IsEnabled())
	assert.Equal(t, "never", cfg.Display.Color)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, 9000, cfg.Server.Port)

	assert.Equal(t, []model.Target{
		{URL: "http://10.0.0.5:8080/2/summary", WorkerID: "rig1"},
		{URL: "http://10.0.0.6:8080/2/summary"},
	}, cfg.ResolveTargets())
}

func TestLoad_InvalidDurationIsMalformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "poll:\n  interval: soon\n")

	cfg := Load(path)

	require.Len(t, cfg.Warnings, 1)
	assert.Equal(t, time.Second, cfg.Poll.Interval.Std())
}

func TestResolveTargets_LegacyFileAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	legacy := writeFile(t, dir, "workers.json", `{"urls": ["http://a/rig1", " http://b/rig2 ", "", "http://a/rig1"]}`)

	cfg := &Config{
		Targets:     []model.Target{{URL: "http://a/rig1", WorkerID: "rig1"}},
		TargetsFile: legacy,
	}

	targets := cfg.ResolveTargets()

	assert.Equal(t, []model.Target{
		{URL: "http://a/rig1", WorkerID: "rig1"},
		{URL: "http://b/rig2"},
	}, targets)
	assert.Empty(t, cfg.Warnings)
}

func TestResolveTargets_BadLegacyFile(t *testing.T) {
	dir := t.TempDir()

	testCases := []struct {
		name string
		path string
	}{
		{name: "missing", path: filepath.Join(dir, "missing.json")},
		{name: "corrupt", path: writeFile(t, dir, "corrupt.json", "{urls:")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{TargetsFile: tc.path}
			assert.Empty(t, cfg.ResolveTargets())
			assert.Len(t, cfg.Warnings, 1)
		})
	}
}

func TestMySQLConfig_DSN(t *testing.T) {
	m := MySQLConfig{Host: "db", Port: 3306, User: "u", Password: "p", Database: "mw"}
	assert.Equal(t, "u:p@tcp(db:3306)/mw?charset=utf8mb4&parseTime=True&loc=UTC", m.DSN())
}
