package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	AltConfigEnvVar      = "SCREEN_CUE_OVERLAY"
	FileLoggingEnvVar    = "ENABLE_FILE_LOGGING"
	TriggerButtonEnvVar  = "TRIGGER_BUTTON"
	LogPixelCountsEnvVar = "LOG_PIXEL_COUNTS"

	DefaultTriggerButton = "middle"
)

type LoadOptions struct {
	TriggerButtonOverride     string
	EnableFileLoggingOverride *bool
}

type Config struct {
	EnableFileLogging bool
	TriggerButton     string
	LogPixelCounts    bool
	EnvPath           string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use SCREEN_CUE_OVERLAY env var as a path to a config file
	// Variables already set in the environment are not overwritten.
	envPath := resolveEnvPath()
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		EnableFileLogging: parseBool(os.Getenv(FileLoggingEnvVar)),
		TriggerButton:     getEnvWithDefault(TriggerButtonEnvVar, DefaultTriggerButton),
		LogPixelCounts:    parseBool(os.Getenv(LogPixelCountsEnvVar)),
		EnvPath:           envPath,
	}

	if override := strings.TrimSpace(opts.TriggerButtonOverride); override != "" {
		cfg.TriggerButton = override
	}
	if opts.EnableFileLoggingOverride != nil {
		cfg.EnableFileLogging = *opts.EnableFileLoggingOverride
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(AltConfigEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
