package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOpenAI(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateFetcher(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateStatus(); err != nil {
		return err
	}
	return c.validateServer()
}

func (c *Config) validateOpenAI() error {
	if c.OpenAI.AnalysisTimeoutSeconds <= 0 {
		return errors.New("openai.analysis_timeout_seconds must be positive")
	}
	if c.OpenAI.TranscriptionTimeoutSeconds <= 0 {
		return errors.New("openai.transcription_timeout_seconds must be positive")
	}
	return nil
}

// RequireAPIKey reports a configuration error when no API key is available.
// Only commands that call the remote APIs need it, so Load does not enforce it.
func (c *Config) RequireAPIKey() error {
	if c.OpenAI.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("openai.api_key is required. Set OPENAI_API_KEY env var or edit %s (create with 'factcheck config init')", defaultPath)
}

func (c *Config) validateOutput() error {
	switch c.Output.Format {
	case OutputHTML, OutputMarkdown, OutputRaw:
		return nil
	default:
		return fmt.Errorf("output.format: unsupported value %q (want html, markdown, or raw)", c.Output.Format)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateFetcher() error {
	if c.Fetcher.TimeoutSeconds <= 0 {
		return errors.New("fetcher.timeout_seconds must be positive")
	}
	if c.Fetcher.InfoTimeoutSeconds <= 0 {
		return errors.New("fetcher.info_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Driver {
	case CacheSQLite, CacheMemory:
		return nil
	case CachePostgres:
		if c.Cache.PostgresDSN == "" {
			return errors.New("cache.postgres_dsn is required when cache.driver is postgres")
		}
		return nil
	default:
		return fmt.Errorf("cache.driver: unsupported value %q (want sqlite, postgres, or memory)", c.Cache.Driver)
	}
}

func (c *Config) validateStatus() error {
	if c.Status.TTLSeconds <= 0 {
		return errors.New("status.ttl_seconds must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.RequestsPerSecond <= 0 {
		return errors.New("server.requests_per_second must be positive")
	}
	if c.Server.Burst < 1 {
		return errors.New("server.burst must be at least 1")
	}
	return nil
}
