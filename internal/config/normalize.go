package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOpenAI()
	c.normalizeProxy()
	if err := c.normalizeFetcher(); err != nil {
		return err
	}
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizeStatus()
	c.normalizeServer()
	c.normalizeLogging()
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = defaultOutputFormat
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = filepath.Join(c.Paths.DataDir, "temp")
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOpenAI() {
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	if c.OpenAI.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.OpenAI.APIKey = strings.TrimSpace(value)
		}
	}
	c.OpenAI.ChatURL = strings.TrimSpace(c.OpenAI.ChatURL)
	if c.OpenAI.ChatURL == "" {
		c.OpenAI.ChatURL = defaultChatURL
	}
	c.OpenAI.TranscriptionURL = strings.TrimSpace(c.OpenAI.TranscriptionURL)
	if c.OpenAI.TranscriptionURL == "" {
		c.OpenAI.TranscriptionURL = defaultTranscriptionURL
	}
	c.OpenAI.Model = strings.TrimSpace(c.OpenAI.Model)
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = defaultModel
	}
	c.OpenAI.TranscriptionModel = strings.TrimSpace(c.OpenAI.TranscriptionModel)
	if c.OpenAI.TranscriptionModel == "" {
		c.OpenAI.TranscriptionModel = defaultTranscriptionModel
	}
}

func (c *Config) normalizeProxy() {
	c.Proxy.Address = strings.TrimSpace(c.Proxy.Address)
	c.Proxy.Username = strings.TrimSpace(c.Proxy.Username)
	c.Proxy.Port = SanitizePort(c.Proxy.Port)
}

// SanitizePort returns the port as a decimal string when it is a number in
// 1-65535, otherwise the empty string.
func SanitizePort(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return ""
	}
	return strconv.Itoa(port)
}

func (c *Config) normalizeFetcher() error {
	c.Fetcher.Binary = strings.TrimSpace(c.Fetcher.Binary)
	if c.Fetcher.Binary == "" {
		c.Fetcher.Binary = defaultFetcherBinary
	}
	if len(c.Fetcher.CookiePaths) == 0 {
		c.Fetcher.CookiePaths = []string{
			filepath.Join(c.Paths.DataDir, "cookies.txt"),
			"~/.config/factcheck/cookies.txt",
			"cookies.txt",
		}
	}
	paths := make([]string, 0, len(c.Fetcher.CookiePaths))
	for _, p := range c.Fetcher.CookiePaths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("fetcher.cookie_paths: %w", err)
		}
		paths = append(paths, expanded)
	}
	c.Fetcher.CookiePaths = paths
	return nil
}

func (c *Config) normalizeCache() error {
	c.Cache.Driver = strings.ToLower(strings.TrimSpace(c.Cache.Driver))
	if c.Cache.Driver == "" {
		c.Cache.Driver = defaultCacheDriver
	}
	if strings.TrimSpace(c.Cache.SQLitePath) == "" {
		c.Cache.SQLitePath = filepath.Join(c.Paths.DataDir, "results.db")
	}
	var err error
	if c.Cache.SQLitePath, err = expandPath(c.Cache.SQLitePath); err != nil {
		return fmt.Errorf("cache.sqlite_path: %w", err)
	}
	c.Cache.PostgresDSN = strings.TrimSpace(c.Cache.PostgresDSN)
	if c.Cache.PostgresDSN == "" {
		if value, ok := os.LookupEnv("FACTCHECK_POSTGRES_DSN"); ok {
			c.Cache.PostgresDSN = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeStatus() {
	c.Status.RedisURL = strings.TrimSpace(c.Status.RedisURL)
	if c.Status.RedisURL == "" {
		if value, ok := os.LookupEnv("FACTCHECK_REDIS_URL"); ok {
			c.Status.RedisURL = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Status.KeyPrefix) == "" {
		c.Status.KeyPrefix = defaultStatusKeyPrefix
	}
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	if strings.TrimSpace(c.Server.Secret) == "" {
		if value, ok := os.LookupEnv("FACTCHECK_API_SECRET"); ok {
			c.Server.Secret = strings.TrimSpace(value)
		}
	}
	c.Server.PublicBaseURL = strings.TrimSpace(c.Server.PublicBaseURL)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
