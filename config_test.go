package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `// server config
ip = 127.0.0.1
port = 8080 // game port
motd = Welcome racers!
metrics_port = 9100
debug = true
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.IP)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "^0`&#0;`Welcome racers!\n", cfg.MOTD)
	assert.Equal(t, 9100, cfg.MetricsPort)
	assert.Equal(t, defaultPolicyPort, cfg.PolicyPort)
	assert.True(t, cfg.Debug)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	assert.Empty(t, cfg.IP)
	assert.Equal(t, defaultPort, cfg.Port)
	assert.Empty(t, cfg.MOTD)
	assert.False(t, cfg.Debug)
}

func TestLoadConfigIgnoresJunk(t *testing.T) {
	path := writeConfig(t, `this line has no key
port = not-a-number
unknown_key = whatever
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, defaultPort, cfg.Port)
}
