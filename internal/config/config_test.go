package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mewah.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, "app.bin", cfg.Engine.HeaderPath)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[engine]
header_path = "build/game.bin"
script_path = "scripts/boot.lua"

[database]
enabled = true
dsn = "postgres://x@db/x"
conn_max_lifetime = "5m"

[logging]
level = "debug"
format = "json"

[profile]
mode = "cpu"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "build/game.bin", cfg.Engine.HeaderPath)
	assert.Equal(t, "scripts/boot.lua", cfg.Engine.ScriptPath)
	assert.Equal(t, "mewah", cfg.Engine.Name)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 8, cfg.Database.MaxOpenConns)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "cpu", cfg.Profile.Mode)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"profile":  "[profile]\nmode = \"trace\"\n",
		"format":   "[logging]\nformat = \"xml\"\n",
		"database": "[database]\nenabled = true\ndsn = \"\"\n",
		"syntax":   "[engine\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}
