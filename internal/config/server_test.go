package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig("")
	require.NoError(t, err)
	assert.Equal(t, "stdio", cfg.Transport)
	assert.Equal(t, 8089, cfg.Port)
	assert.Equal(t, 60, cfg.SessionTTLMinutes)
	assert.Equal(t, 60, cfg.SweepIntervalSeconds)
}

func TestLoadServerConfigFile(t *testing.T) {
	path := writeTempConfig(t, `
transport: http
port: 9000
session_ttl_minutes: 30
`)
	cfg, err := LoadServerConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http", cfg.Transport)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 30, cfg.SessionTTLMinutes)
	// untouched keys keep their defaults
	assert.Equal(t, 60, cfg.SweepIntervalSeconds)
}

func TestLoadServerConfigErrors(t *testing.T) {
	_, err := LoadServerConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	_, err = LoadServerConfig(writeTempConfig(t, "transport: websocket\n"))
	assert.Error(t, err)

	_, err = LoadServerConfig(writeTempConfig(t, "session_ttl_minutes: 0\n"))
	assert.Error(t, err)

	_, err = LoadServerConfig(writeTempConfig(t, "transport: [bad\n"))
	assert.Error(t, err)
}
