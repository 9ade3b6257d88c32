package config

const (
	defaultConfigPath                  = "~/.config/factcheck/config.toml"
	defaultDataDir                     = "~/.local/share/factcheck"
	defaultTempDir                     = "~/.local/share/factcheck/temp"
	defaultLogDir                      = "~/.local/share/factcheck/logs"
	defaultChatURL                     = "https://api.openai.com/v1/chat/completions"
	defaultTranscriptionURL            = "https://api.openai.com/v1/audio/transcriptions"
	defaultModel                       = "gpt-3.5-turbo"
	defaultTranscriptionModel          = "whisper-1"
	defaultAnalysisTimeoutSeconds      = 60
	defaultTranscriptionTimeoutSeconds = 300
	defaultOutputFormat                = OutputHTML
	defaultLogFormat                   = "console"
	defaultLogLevel                    = "info"
	defaultFetcherBinary               = "yt-dlp"
	defaultFetcherTimeoutSeconds       = 600
	defaultFetcherInfoTimeoutSeconds   = 60
	defaultCacheDriver                 = CacheSQLite
	defaultStatusTTLSeconds            = 3600
	defaultStatusKeyPrefix             = "factcheck_status_"
	defaultServerBind                  = "127.0.0.1:7488"
	defaultRequestsPerSecond           = 1.0
	defaultBurst                       = 3
)

// Output modes.
const (
	OutputHTML     = "html"
	OutputMarkdown = "markdown"
	OutputRaw      = "raw"
)

// Cache drivers.
const (
	CacheSQLite   = "sqlite"
	CachePostgres = "postgres"
	CacheMemory   = "memory"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			TempDir: defaultTempDir,
			LogDir:  defaultLogDir,
		},
		OpenAI: OpenAI{
			ChatURL:                     defaultChatURL,
			TranscriptionURL:            defaultTranscriptionURL,
			Model:                       defaultModel,
			TranscriptionModel:          defaultTranscriptionModel,
			AnalysisTimeoutSeconds:      defaultAnalysisTimeoutSeconds,
			TranscriptionTimeoutSeconds: defaultTranscriptionTimeoutSeconds,
		},
		Output: Output{Format: defaultOutputFormat},
		Logging: Logging{
			Enabled: true,
			Format:  defaultLogFormat,
			Level:   defaultLogLevel,
		},
		Fetcher: Fetcher{
			Binary:             defaultFetcherBinary,
			TimeoutSeconds:     defaultFetcherTimeoutSeconds,
			InfoTimeoutSeconds: defaultFetcherInfoTimeoutSeconds,
		},
		Cache: Cache{Driver: defaultCacheDriver},
		Status: Status{
			TTLSeconds: defaultStatusTTLSeconds,
			KeyPrefix:  defaultStatusKeyPrefix,
		},
		Server: Server{
			Bind:              defaultServerBind,
			RequestsPerSecond: defaultRequestsPerSecond,
			Burst:             defaultBurst,
		},
	}
}
