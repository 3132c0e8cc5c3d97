package config

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration for the console API service.
type Config struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	EndpointsPath string
	APIBase       string

	UploadTimeout  time.Duration
	MaxUploadBytes int64
	ProbeTimeout   time.Duration

	HistoryMaxEntries  int
	SessionIdleExpiry  time.Duration
	SessionSweepPeriod time.Duration

	DBEnabled      bool
	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	DBConnTimeout  time.Duration
	DBQueryTimeout time.Duration

	PrefsSQLitePath string
}

// FromEnv loads configuration from environment variables with sensible defaults.
func FromEnv() Config {
	loadConfigDefaultsFromFile()
	loadSecretsDefaultsFromFile()

	return Config{
		ListenAddr:      getEnv("APP_LISTEN_ADDR", ":8080"),
		ReadTimeout:     time.Duration(getEnvInt("APP_READ_TIMEOUT_SEC", 30)) * time.Second,
		WriteTimeout:    time.Duration(getEnvInt("APP_WRITE_TIMEOUT_SEC", 300)) * time.Second,
		ShutdownTimeout: time.Duration(getEnvInt("APP_SHUTDOWN_TIMEOUT_SEC", 10)) * time.Second,

		EndpointsPath: getEnv("APP_ENDPOINTS_CONFIG", "./config/config.json"),
		APIBase:       getEnv("APP_API_BASE", ""),

		UploadTimeout:  time.Duration(getEnvInt("APP_UPLOAD_TIMEOUT_SEC", 240)) * time.Second,
		MaxUploadBytes: int64(getEnvInt("APP_MAX_UPLOAD_MB", 200)) * 1024 * 1024,
		ProbeTimeout:   time.Duration(getEnvInt("APP_PROBE_TIMEOUT_SEC", 5)) * time.Second,

		HistoryMaxEntries:  getEnvInt("APP_HISTORY_MAX_ENTRIES", 20),
		SessionIdleExpiry:  time.Duration(getEnvInt("APP_SESSION_IDLE_MINUTES", 120)) * time.Minute,
		SessionSweepPeriod: time.Duration(getEnvInt("APP_SESSION_SWEEP_MINUTES", 10)) * time.Minute,

		DBEnabled:      getEnvBool("APP_DB_ENABLED", false),
		DBHost:         getEnv("APP_DB_HOST", "127.0.0.1"),
		DBPort:         getEnvInt("APP_DB_PORT", 3306),
		DBUser:         getEnv("APP_DB_USER", "secops"),
		DBPassword:     getEnv("APP_DB_PASSWORD", "secops"),
		DBName:         getEnv("APP_DB_NAME", "secops_console"),
		DBConnTimeout:  time.Duration(getEnvInt("APP_DB_CONN_TIMEOUT_SEC", 5)) * time.Second,
		DBQueryTimeout: time.Duration(getEnvInt("APP_DB_QUERY_TIMEOUT_SEC", 10)) * time.Second,

		PrefsSQLitePath: getEnv("APP_PREFS_SQLITE_PATH", ""),
	}
}

func loadConfigDefaultsFromFile() {
	bootstrapCandidates := []string{
		"./secops-console.env",
		"/etc/default/secops-console",
	}

	for _, candidate := range bootstrapCandidates {
		abs := candidate
		if !filepath.IsAbs(candidate) {
			if wd, err := os.Getwd(); err == nil {
				abs = filepath.Join(wd, candidate)
			}
		}
		_ = applyEnvDefaultsFromFile(abs)
	}

	candidates := make([]string, 0, 2)
	if explicit := strings.TrimSpace(os.Getenv("APP_CONFIG_FILE")); explicit != "" {
		candidates = append(candidates, explicit)
	}
	candidates = append(candidates, "/etc/secops-console/config.env")

	for _, candidate := range candidates {
		abs := candidate
		if !filepath.IsAbs(candidate) {
			if wd, err := os.Getwd(); err == nil {
				abs = filepath.Join(wd, candidate)
			}
		}

		if err := applyEnvDefaultsFromFile(abs); err == nil {
			return
		}
	}
}

func loadSecretsDefaultsFromFile() {
	candidates := make([]string, 0, 3)
	if explicit := strings.TrimSpace(os.Getenv("APP_SECRETS_FILE")); explicit != "" {
		candidates = append(candidates, explicit)
	}
	if credDir := strings.TrimSpace(os.Getenv("CREDENTIALS_DIRECTORY")); credDir != "" {
		credName := strings.TrimSpace(os.Getenv("APP_SECRETS_CREDENTIAL_NAME"))
		if credName == "" {
			credName = "app-secrets"
		}
		candidates = append(candidates, filepath.Join(credDir, credName))
	}
	candidates = append(candidates, "/etc/secops-console/secrets.env")
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if err := applyEnvDefaultsFromFile(candidate); err == nil {
			return
		}
	}
}

func applyEnvDefaultsFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		kv := strings.SplitN(line, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.TrimSpace(kv[0])
		val := strings.TrimSpace(kv[1])
		if key == "" {
			continue
		}

		if len(val) >= 2 {
			if (val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'') {
				val = val[1 : len(val)-1]
			}
		}

		if os.Getenv(key) == "" {
			_ = os.Setenv(key, val)
		}
	}

	return scanner.Err()
}

// MySQLDSN returns a mysql driver DSN with safe defaults for TCP access.
func (c Config) MySQLDSN() string {
	params := url.Values{}
	params.Set("parseTime", "true")
	params.Set("timeout", c.DBConnTimeout.String())
	params.Set("readTimeout", c.DBQueryTimeout.String())
	params.Set("writeTimeout", c.DBQueryTimeout.String())
	params.Set("charset", "utf8mb4")
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, params.Encode())
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return parsed
}

func getEnvBool(key string, def bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return parsed
}
