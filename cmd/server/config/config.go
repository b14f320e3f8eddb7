package config

import (
	"os"
	"path/filepath"
	"time"

	"wgward/internal/logger"

	"github.com/joho/godotenv"
)

// DefaultEnvFiles are read, when present, before Config is built.
var DefaultEnvFiles = []string{
	".env",
}

func loadEnvFiles(envFiles []string) {
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err != nil {
			if !os.IsNotExist(err) {
				logger.Warn("Error loading %s: %v", envFile, err)
			}
		}
	}
}

func GetEnv(key string, defaultValue string) string {
	value := os.Getenv(key)

	if value == "" {
		return defaultValue
	}

	return value
}

func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)

	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)

	if err != nil || duration <= 0 {
		logger.Warn("Invalid duration %s=%q, using %v", key, value, defaultValue)
		return defaultValue
	}

	return duration
}

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		logger.Warn("Could not determine home directory: %v", err)
		return ""
	}
	return homeDir
}

func getDefaultDatabasePath(fallback string) string {
	homeDir := getHomeDir()
	if homeDir == "" {
		return fallback
	}
	return filepath.Join(homeDir, ".wgward", "wgward.db")
}

type Configuration struct {
	DatabasePath string

	WireguardDir        string
	WireguardParamsPath string
	WireguardClientsDir string

	WGBinary            string
	KeyGenerator        string
	ExternalToolTimeout time.Duration

	LogLevel            string
	MetricsTextfilePath string
}

// Load reads envFiles into the process environment, never overriding variables
// that are already set, and builds the configuration from the result.
func Load(envFiles ...string) *Configuration {
	loadEnvFiles(envFiles)

	wireguardDir := GetEnv("WIREGUARD_DIR", "/etc/wireguard")

	return &Configuration{
		DatabasePath: GetEnv("DATABASE_PATH", getDefaultDatabasePath("/var/lib/wgward/wgward.db")),

		WireguardDir:        wireguardDir,
		WireguardParamsPath: GetEnv("WIREGUARD_PARAMS_PATH", filepath.Join(wireguardDir, "params")),
		WireguardClientsDir: GetEnv("WIREGUARD_CLIENTS_DIR", filepath.Join(wireguardDir, "clients")),

		WGBinary:            GetEnv("WG_BINARY", "wg"),
		KeyGenerator:        GetEnv("WG_KEYGEN", "wg"), // "wg" shells out to WGBinary, "native" generates in-process
		ExternalToolTimeout: GetDurationEnv("EXTERNAL_TOOL_TIMEOUT", 10*time.Second),

		LogLevel:            GetEnv("LOG_LEVEL", "info"),
		MetricsTextfilePath: GetEnv("METRICS_TEXTFILE_PATH", ""),
	}
}

var Config = Load(DefaultEnvFiles...)

var WireguardDir = Config.WireguardDir
