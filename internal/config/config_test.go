package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Store:  StoreConfig{DataPath: "/some/path"},
		Discord: DiscordConfig{
			Token:       "bot-token",
			SyncOnReady: true,
		},
		Notify: NotifyConfig{
			Period:            24 * time.Hour,
			Timezone:          "Asia/Tokyo",
			MessagesPerSecond: 1,
		},
		Ops: OpsConfig{Addr: ":8190"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_MissingToken(t *testing.T) {
	cfg := validConfig()
	cfg.Discord.Token = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_TOKEN")
}

func TestValidate_BadTimezone(t *testing.T) {
	cfg := validConfig()
	cfg.Notify.Timezone = "Mars/Olympus_Mons"

	assert.Error(t, cfg.Validate())
}

func TestValidate_BadPeriod(t *testing.T) {
	cfg := validConfig()
	cfg.Notify.Period = 0

	assert.Error(t, cfg.Validate())
}

func TestValidate_BadRate(t *testing.T) {
	cfg := validConfig()
	cfg.Notify.MessagesPerSecond = 0

	assert.Error(t, cfg.Validate())
}

func TestExpandDataPath_EmptyUsesDefault(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.expandDataPath())

	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(homeDir, "member-tagger", "data"), cfg.Store.DataPath)
}

func TestExpandDataPath_RelativePath(t *testing.T) {
	cfg := &Config{Store: StoreConfig{DataPath: "data"}}
	require.NoError(t, cfg.expandDataPath())

	assert.True(t, filepath.IsAbs(cfg.Store.DataPath))
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("MT_TEST_KEY", "from-env")

	// Flag wins over env.
	assert.Equal(t, "from-flag", getConfigValue("from-flag", "MT_TEST_KEY", "default"))
	// Env wins over default.
	assert.Equal(t, "from-env", getConfigValue("", "MT_TEST_KEY", "default"))
	// Default when nothing else set.
	assert.Equal(t, "default", getConfigValue("", "MT_TEST_UNSET", "default"))
}

func TestGetBoolConfigValue(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", true},
		{"yes", true},
		{"TRUE", true},
		{"false", false},
		{"0", false},
		{"banana", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, getBoolConfigValue(tt.value, "MT_TEST_UNSET", false), "value %q", tt.value)
	}

	// Default applies when nothing is set.
	assert.True(t, getBoolConfigValue("", "MT_TEST_UNSET", true))
}

func TestGetFloatConfigValue(t *testing.T) {
	assert.Equal(t, 2.5, getFloatConfigValue("2.5", "MT_TEST_UNSET", 1))
	assert.Equal(t, 1.0, getFloatConfigValue("", "MT_TEST_UNSET", 1))
	assert.Equal(t, 1.0, getFloatConfigValue("not-a-number", "MT_TEST_UNSET", 1))
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment line\nMT_FILE_KEY=file-value\n\nMT_QUOTED_KEY=\"quoted\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("MT_FILE_KEY", "")
	t.Setenv("MT_QUOTED_KEY", "")
	os.Unsetenv("MT_FILE_KEY")
	os.Unsetenv("MT_QUOTED_KEY")

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "file-value", os.Getenv("MT_FILE_KEY"))
	assert.Equal(t, "quoted", os.Getenv("MT_QUOTED_KEY"))
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MT_KEEP_KEY=from-file\n"), 0o600))

	t.Setenv("MT_KEEP_KEY", "from-env")

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-env", os.Getenv("MT_KEEP_KEY"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("THIS IS NOT KEY VALUE\n"), 0o600))

	assert.Error(t, loadEnvFile(path))
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	assert.Error(t, loadEnvFile("/nonexistent/.env"))
}
