// Package config loads application configuration from command-line flags,
// environment variables, a .env file and defaults, in that order of precedence.
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
	App        AppConfig
	Logger     LoggerConfig
	Storage    StorageConfig
	Server     ServerConfig
	Browser    BrowserConfig
	Sync       SyncConfig
	Automation AutomationConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig locates the persistent store.
type StorageConfig struct {
	// DataPath holds sync.db (synced tier), local/ (Badger local tier)
	// and search/ (summary index).
	DataPath string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port             string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	AllowedOrigins   []string // CORS origins for display surfaces
	MessageRateLimit int      // bus messages per minute per client IP
}

// BrowserConfig controls the browser driven by the automation CLI.
type BrowserConfig struct {
	RemoteURL string // DevTools websocket; empty launches a local Chrome
	Headful   bool
	Stealth   bool
}

// SyncConfig holds sync package import/export configuration.
type SyncConfig struct {
	InboxPath      string // watched for sync_package_*.json files
	OutboxPath     string // receives scheduled exports
	ExportSchedule string // cron expression; empty disables scheduled export
}

// AutomationConfig holds controller tick intervals.
type AutomationConfig struct {
	ProgressInterval time.Duration
	SpeedInterval    time.Duration
	ResumeInterval   time.Duration
	AdSkipInterval   time.Duration
}

// LoadConfig parses os.Args flags and loads configuration.
func LoadConfig() (*Config, error) {
	return load(flag.CommandLine, os.Args[1:])
}

// LoadFromEnv loads configuration from the environment, .env and defaults
// without touching the global flag set. Commands with their own flag
// parsing (the CLI) use this and override fields afterwards.
func LoadFromEnv() (*Config, error) {
	return load(flag.NewFlagSet("env", flag.ContinueOnError), nil)
}

func load(fs *flag.FlagSet, args []string) (*Config, error) {
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for persistent data")
	port := fs.String("port", "", "Server port (default: 8787)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 0, SSE streams)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	origins := fs.String("allowed-origins", "", "Comma separated CORS origins")
	rateLimit := fs.String("message-rate-limit", "", "Bus messages per minute per client (default: 600)")
	remoteURL := fs.String("browser-remote-url", "", "DevTools websocket URL of a running browser")
	headful := fs.String("browser-headful", "", "Show the automated browser window")
	inbox := fs.String("sync-inbox", "", "Directory watched for sync packages")
	outbox := fs.String("sync-outbox", "", "Directory for exported sync packages")
	schedule := fs.String("sync-export-schedule", "", "Cron expression for scheduled export")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if args != nil {
		if err := fs.Parse(args); err != nil {
			return nil, fmt.Errorf("parse flags: %w", err)
		}
	}

	// A missing .env file is fine.
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:             getConfigValue(*port, "SERVER_PORT", "8787"),
			AllowedOrigins:   splitList(getConfigValue(*origins, "ALLOWED_ORIGINS", "*")),
			MessageRateLimit: getIntConfigValue(*rateLimit, "MESSAGE_RATE_LIMIT", 600),
		},
		Browser: BrowserConfig{
			RemoteURL: getConfigValue(*remoteURL, "BROWSER_REMOTE_URL", ""),
			Headful:   getBoolConfigValue(*headful, "BROWSER_HEADFUL", false),
			Stealth:   getBoolConfigValue("", "BROWSER_STEALTH", true),
		},
		Sync: SyncConfig{
			InboxPath:      getConfigValue(*inbox, "SYNC_INBOX", ""),
			OutboxPath:     getConfigValue(*outbox, "SYNC_OUTBOX", ""),
			ExportSchedule: getConfigValue(*schedule, "SYNC_EXPORT_SCHEDULE", ""),
		},
	}

	durations := []struct {
		dst      *time.Duration
		flagVal  string
		envKey   string
		fallback string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "0s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Automation.ProgressInterval, "", "AUTOMATION_PROGRESS_INTERVAL", "1s"},
		{&cfg.Automation.SpeedInterval, "", "AUTOMATION_SPEED_INTERVAL", "3s"},
		{&cfg.Automation.ResumeInterval, "", "AUTOMATION_RESUME_INTERVAL", "4s"},
		{&cfg.Automation.AdSkipInterval, "", "AUTOMATION_AD_SKIP_INTERVAL", "500ms"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagVal, d.envKey, d.fallback)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %s=%q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
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
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
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

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Server.MessageRateLimit <= 0 {
		return errors.New("message rate limit must be positive")
	}

	return nil
}

// LocalStorePath is the Badger directory of the local tier.
func (c *Config) LocalStorePath() string {
	return filepath.Join(c.Storage.DataPath, "local")
}

// SyncStorePath is the SQLite file of the synced tier.
func (c *Config) SyncStorePath() string {
	return filepath.Join(c.Storage.DataPath, "sync.db")
}

// SearchPath is the directory of the summary search index.
func (c *Config) SearchPath() string {
	return filepath.Join(c.Storage.DataPath, "search")
}

func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	if c.Storage.DataPath, err = expandPath(c.Storage.DataPath, filepath.Join(homeDir, "CoursePilot", "data")); err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}
	if c.Sync.InboxPath, err = expandPath(c.Sync.InboxPath, filepath.Join(c.Storage.DataPath, "sync", "inbox")); err != nil {
		return fmt.Errorf("invalid sync inbox: %w", err)
	}
	if c.Sync.OutboxPath, err = expandPath(c.Sync.OutboxPath, filepath.Join(c.Storage.DataPath, "sync", "outbox")); err != nil {
		return fmt.Errorf("invalid sync outbox: %w", err)
	}
	return nil
}

// expandPath expands ~ and makes the path absolute, using defaultPath when
// path is empty.
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

// getBoolConfigValue accepts "true", "1" and "yes" (case-insensitive) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads KEY=value lines from a .env file. Variables already
// present in the environment win.
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- path comes from the operator
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

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
