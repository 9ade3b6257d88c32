package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	TempDir string `toml:"temp_dir"`
	LogDir  string `toml:"log_dir"`
}

// OpenAI contains credentials and endpoints for the transcription and
// analysis APIs.
type OpenAI struct {
	APIKey                      string `toml:"api_key"`
	ChatURL                     string `toml:"chat_url"`
	TranscriptionURL            string `toml:"transcription_url"`
	Model                       string `toml:"model"`
	TranscriptionModel          string `toml:"transcription_model"`
	AnalysisTimeoutSeconds      int    `toml:"analysis_timeout_seconds"`
	TranscriptionTimeoutSeconds int    `toml:"transcription_timeout_seconds"`
}

// Output controls post-processing of the analysis text.
type Output struct {
	Format string `toml:"format"`
}

// Logging contains configuration for log output.
type Logging struct {
	Enabled bool   `toml:"enabled"`
	Format  string `toml:"format"`
	Level   string `toml:"level"`
}

// Proxy holds the discrete outbound proxy fields used for restricted platforms.
type Proxy struct {
	Address  string `toml:"address"`
	Port     string `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Fetcher configures the external media extraction tool.
type Fetcher struct {
	Binary             string   `toml:"binary"`
	CookiePaths        []string `toml:"cookie_paths"`
	TimeoutSeconds     int      `toml:"timeout_seconds"`
	InfoTimeoutSeconds int      `toml:"info_timeout_seconds"`
}

// Cache selects and configures the result store backend.
type Cache struct {
	Driver      string `toml:"driver"`
	SQLitePath  string `toml:"sqlite_path"`
	PostgresDSN string `toml:"postgres_dsn"`
}

// Status configures the job status key-value store.
type Status struct {
	RedisURL   string `toml:"redis_url"`
	TTLSeconds int    `toml:"ttl_seconds"`
	KeyPrefix  string `toml:"key_prefix"`
}

// Server configures the HTTP entry point.
type Server struct {
	Bind              string  `toml:"bind"`
	Secret            string  `toml:"secret"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	PublicBaseURL     string  `toml:"public_base_url"`
}

// Config encapsulates all configuration values for factcheck.
//
// Configuration sections by subsystem:
//   - Paths: data, temporary audio, and log directories
//   - OpenAI: transcription and analysis API settings
//   - Output: analysis output mode (html, markdown, raw)
//   - Logging: toggle, format, and level
//   - Proxy: outbound proxy for restricted platforms
//   - Fetcher: yt-dlp binary, cookie jar locations, timeouts
//   - Cache: result store backend
//   - Status: job status store and TTL
//   - Server: HTTP bind address, anti-forgery secret, rate limits
type Config struct {
	Paths   Paths   `toml:"paths"`
	OpenAI  OpenAI  `toml:"openai"`
	Output  Output  `toml:"output"`
	Logging Logging `toml:"logging"`
	Proxy   Proxy   `toml:"proxy"`
	Fetcher Fetcher `toml:"fetcher"`
	Cache   Cache   `toml:"cache"`
	Status  Status  `toml:"status"`
	Server  Server  `toml:"server"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("factcheck.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, temp, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.TempDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the single-instance lock file used by the server.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "factcheck.lock")
}

// ShareURL returns the public link for a short code, or the bare path when no
// public base URL is configured.
func (c *Config) ShareURL(shortCode string) string {
	base := strings.TrimRight(strings.TrimSpace(c.Server.PublicBaseURL), "/")
	return base + "/s/" + shortCode
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
