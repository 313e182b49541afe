package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches the working directory for the rest of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Dispatch.Workers)
	assert.Equal(t, 16, cfg.Dispatch.QueueSize)
	assert.Equal(t, 5, cfg.Network.ResolverWorkers)
	assert.Equal(t, 3*time.Second, cfg.Network.SampleInterval.Duration())
	assert.Contains(t, cfg.Network.SuspectKeywords, "doubleclick")
	assert.Equal(t, 30, cfg.History.MaxEntries)
	assert.Empty(t, cfg.DataDir)
}

func TestLoadFromPath_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "privguard.yaml")
	writeConfig(t, path, `
log_level: debug
hosts_file: /tmp/hosts
dispatch:
  workers: 8
network:
  sample_interval: 500ms
  suspect_keywords: [tracker, beacon]
`)

	cfg, used, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/hosts", cfg.HostsFile)
	assert.Equal(t, 8, cfg.Dispatch.Workers)
	assert.Equal(t, 16, cfg.Dispatch.QueueSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Network.SampleInterval.Duration())
	assert.Equal(t, []string{"tracker", "beacon"}, cfg.Network.SuspectKeywords)
	assert.Equal(t, 30, cfg.History.MaxEntries)
}

func TestLoadFromPath_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := LoadFromPath(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	bad := filepath.Join(dir, "bad.yaml")
	writeConfig(t, bad, "network:\n  sample_interval: soon\n")
	_, _, err = LoadFromPath(bad)
	assert.ErrorContains(t, err, "parse config")

	worse := filepath.Join(dir, "worse.yaml")
	writeConfig(t, worse, "dispatch: [1, 2\n")
	_, _, err = LoadFromPath(worse)
	assert.ErrorContains(t, err, "parse config")
}

func TestFindConfigPath_Priority(t *testing.T) {
	work := t.TempDir()
	dataDir := t.TempDir()
	explicit := filepath.Join(t.TempDir(), "explicit.yaml")
	chdir(t, work)
	t.Setenv(EnvConfigPath, "")

	assert.Equal(t, "", FindConfigPath(dataDir))

	writeConfig(t, filepath.Join(dataDir, DataDirConfigName), "log_level: warn\n")
	assert.Equal(t, filepath.Join(dataDir, DataDirConfigName), FindConfigPath(dataDir))

	writeConfig(t, filepath.Join(work, ConfigFileName), "log_level: error\n")
	found := FindConfigPath(dataDir)
	assert.Equal(t, ConfigFileName, filepath.Base(found))
	assert.True(t, filepath.IsAbs(found))

	// An unset or missing explicit path falls through
	t.Setenv(EnvConfigPath, explicit)
	assert.Equal(t, ConfigFileName, filepath.Base(FindConfigPath(dataDir)))

	writeConfig(t, explicit, "log_level: debug\n")
	assert.Equal(t, explicit, FindConfigPath(dataDir))

	cfg, used, err := Load(dataDir)
	require.NoError(t, err)
	assert.Equal(t, explicit, used)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_NoFileGivesDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(EnvConfigPath, "")

	cfg, used, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.DataDir = `C:\Users\me\AppData\Roaming\PrivacyDashboard`
	cfg.Network.SampleInterval = Duration(10 * time.Second)

	require.NoError(t, cfg.Save(path))

	loaded, _, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
