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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":3008", cfg.HTTP.Addr)
	assert.Equal(t, "welcome-to-lwd", cfg.Discord.Channels.Welcome)
	assert.Equal(t, "admin-mentorship", cfg.Discord.Channels.Admin)
	assert.Equal(t, "mr-dcc-logs", cfg.Discord.Channels.Log)
	assert.Equal(t, "LWD - GR %s", cfg.Discord.Roles.GroupTemplate)
	assert.Equal(t, "Mentee", cfg.Discord.Roles.Mentee)
	assert.Equal(t, 0xFF5733, cfg.Discord.Roles.Color)
	assert.Equal(t, 60*time.Second, cfg.Dialog.Timeout)
	assert.Equal(t, time.Second, cfg.Assign.Interval)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":8080"
discord:
  token: from-file
  guildID: "1"
dialog:
  timeout: 30s
storage:
  driver: postgres
  postgres:
    dsn: postgres://localhost/dcc
`)
	t.Setenv("DISCORD_TOKEN", "from-env")
	t.Setenv("PORT", "4000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Discord.Token)
	assert.Equal(t, "1", cfg.Discord.GuildID)
	assert.Equal(t, ":4000", cfg.HTTP.Addr)
	assert.Equal(t, 30*time.Second, cfg.Dialog.Timeout)
	assert.Equal(t, "postgres://localhost/dcc", cfg.Storage.Pool.DSN)
	require.NoError(t, cfg.ValidateDiscord())
}

func TestLoad_ConfigPathEnv(t *testing.T) {
	path := writeConfig(t, "roster:\n  preload: true\n  path: /tmp/roster.csv\n")
	t.Setenv("CONFIG_PATH", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Roster.Preload)
	assert.Equal(t, "/tmp/roster.csv", cfg.Roster.Path)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown driver":  "storage:\n  driver: mysql\n",
		"postgres no dsn": "storage:\n  driver: postgres\n",
		"bad template":    "discord:\n  roles:\n    groupTemplate: LWD\n",
		"broken yaml":     "http: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestValidateDiscord(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Error(t, cfg.ValidateDiscord())

	cfg.Discord.Token = "x"
	assert.Error(t, cfg.ValidateDiscord())

	cfg.Discord.GuildID = "g"
	assert.NoError(t, cfg.ValidateDiscord())
}
