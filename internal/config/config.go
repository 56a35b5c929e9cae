// Package config loads bot configuration from command-line flags,
// environment variables, and an optional .env file.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Store   StoreConfig
	Discord DiscordConfig
	Notify  NotifyConfig
	Ops     OpsConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StoreConfig holds document store configuration.
type StoreConfig struct {
	// DataPath is the directory for the embedded database (default: ~/member-tagger/data).
	DataPath string
}

// DiscordConfig holds gateway configuration.
type DiscordConfig struct {
	// Token is the bot authentication token. Required; startup fails without it.
	Token string
	// SyncOnReady controls whether guild members are synced into the
	// registry when the gateway session becomes ready (default: true).
	SyncOnReady bool
}

// NotifyConfig holds deadline notification configuration.
type NotifyConfig struct {
	// Period between notification walks (default: 24h).
	Period time.Duration
	// Timezone whose midnight anchors the first walk (default: Asia/Tokyo).
	Timezone string
	// MessagesPerSecond caps outbound notification sends (default: 1).
	MessagesPerSecond float64
}

// OpsConfig holds the operational HTTP listener configuration.
type OpsConfig struct {
	// Addr for the health endpoints; empty disables the listener (default: :8190).
	Addr string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Directory for the embedded database")
	discordToken := flag.String("discord-token", "", "Discord bot token")
	syncOnReady := flag.String("sync-on-ready", "", "Sync guild members on ready (default: true)")
	notifyPeriod := flag.String("notify-period", "", "Time between notification walks (default: 24h)")
	notifyTimezone := flag.String("notify-timezone", "", "Timezone anchoring the notification schedule (default: Asia/Tokyo)")
	notifyRate := flag.String("notify-rate", "", "Max notification messages per second (default: 1)")
	opsAddr := flag.String("ops-addr", "", "Ops HTTP listen address, empty to disable (default: :8190)")
	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Discord: DiscordConfig{
			Token:       getConfigValue(*discordToken, "DISCORD_TOKEN", ""),
			SyncOnReady: getBoolConfigValue(*syncOnReady, "SYNC_ON_READY", true),
		},
		Notify: NotifyConfig{
			Timezone:          getConfigValue(*notifyTimezone, "NOTIFY_TIMEZONE", "Asia/Tokyo"),
			MessagesPerSecond: getFloatConfigValue(*notifyRate, "NOTIFY_RATE", 1),
		},
		Ops: OpsConfig{
			Addr: getConfigValue(*opsAddr, "OPS_ADDR", ":8190"),
		},
	}

	periodStr := getConfigValue(*notifyPeriod, "NOTIFY_PERIOD", "24h")
	period, err := time.ParseDuration(periodStr)
	if err != nil {
		return nil, fmt.Errorf("invalid notify period %q: %w", periodStr, err)
	}
	cfg.Notify.Period = period

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	// A missing token is a fatal startup condition, not something to limp
	// along without.
	if c.Discord.Token == "" {
		return errors.New("DISCORD_TOKEN is required")
	}

	if c.Store.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Notify.Period <= 0 {
		return fmt.Errorf("notify period must be positive, got %s", c.Notify.Period)
	}

	if _, err := time.LoadLocation(c.Notify.Timezone); err != nil {
		return fmt.Errorf("invalid notify timezone %q: %w", c.Notify.Timezone, err)
	}

	if c.Notify.MessagesPerSecond <= 0 {
		return fmt.Errorf("notify rate must be positive, got %v", c.Notify.MessagesPerSecond)
	}

	return nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "member-tagger", "data")

	expanded, err := expandPath(c.Store.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Store.DataPath = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
