package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"factcheck/internal/fileutil"
	"factcheck/internal/logging"
	"factcheck/internal/proxy"
	"factcheck/internal/services"
)

const (
	// DefaultBinary is the extraction tool resolved from PATH.
	DefaultBinary = "yt-dlp"

	audioFormat        = "mp3"
	defaultTimeout     = 10 * time.Minute
	defaultInfoTimeout = time.Minute
	stageName          = "downloading"
)

var (
	errEmptyURL = errors.New("url is empty")
	errScheme   = errors.New("url scheme must be http or https")
	errHost     = errors.New("url has no host")
)

// Config controls how the fetcher invokes the extraction tool.
type Config struct {
	Binary      string
	OutputDir   string
	CookiePaths []string
	Proxy       proxy.Config
	Timeout     time.Duration
	InfoTimeout time.Duration
	// ProbeBinary enables an ffprobe check of the extracted file when set
	// and resolvable.
	ProbeBinary string
}

// Info is the subset of yt-dlp --dump-json metadata factcheck uses.
type Info struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Duration   float64 `json:"duration"`
	Uploader   string  `json:"uploader"`
	WebpageURL string  `json:"webpage_url"`
	Extractor  string  `json:"extractor"`
}

type commandRunner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// Fetcher downloads the audio track of a video URL with yt-dlp.
type Fetcher struct {
	cfg    Config
	logger *slog.Logger
	run    commandRunner
}

// NewFetcher constructs a fetcher. A nil logger disables logging.
func NewFetcher(cfg Config, logger *slog.Logger) *Fetcher {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.InfoTimeout <= 0 {
		cfg.InfoTimeout = defaultInfoTimeout
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(os.TempDir(), "factcheck")
	}
	return &Fetcher{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "fetcher"),
		run:    execRunner,
	}
}

// WithCommandRunner overrides process execution (for tests).
func (f *Fetcher) WithCommandRunner(runner commandRunner) {
	if runner != nil {
		f.run = runner
	}
}

// Fetch downloads the best audio stream of sourceURL, transcodes it to mp3,
// and returns the local file path. The caller owns the returned file.
func (f *Fetcher) Fetch(ctx context.Context, sourceURL string) (string, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if err := ValidateURL(sourceURL); err != nil {
		return "", services.Wrap(services.ErrValidation, stageName, "validate url", "", err)
	}

	authArgs, err := f.authArgs(sourceURL)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(f.cfg.OutputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrDownload, stageName, "prepare", "create output directory", err)
	}

	base := filepath.Join(f.cfg.OutputDir, "audio_"+uuid.NewString())
	template := base + ".%(ext)s"
	expected := base + "." + audioFormat

	args := append([]string{}, authArgs...)
	args = append(args,
		"-x",
		"--audio-format", audioFormat,
		"--audio-quality", "0",
		"-o", template,
		"--", sourceURL,
	)

	runCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	f.logCommand(ctx, args)
	stdout, stderr, runErr := f.run(runCtx, f.cfg.Binary, args...)
	if runErr != nil {
		_ = fileutil.RemoveGlob(base + ".*")
		return "", f.classifyRunError(runCtx, "extract audio", runErr, stdout, stderr)
	}

	info, err := os.Stat(expected)
	if err != nil {
		_ = fileutil.RemoveGlob(base + ".*")
		return "", services.Wrap(services.ErrFileNotFound, stageName, "locate output", "audio file not found: "+filepath.Base(expected), err)
	}
	if info.Size() == 0 {
		_ = fileutil.RemoveIfExists(expected)
		return "", services.Wrap(services.ErrDownload, stageName, "locate output", "yt-dlp produced an empty audio file", nil)
	}

	if err := f.verifyAudio(ctx, expected); err != nil {
		return "", err
	}

	logging.WithContext(ctx, f.logger).Debug("audio extracted",
		logging.String("path", expected),
		logging.Int64("bytes", info.Size()),
	)
	return expected, nil
}

// Info returns yt-dlp metadata for sourceURL without downloading media.
func (f *Fetcher) Info(ctx context.Context, sourceURL string) (Info, error) {
	var info Info
	sourceURL = strings.TrimSpace(sourceURL)
	if err := ValidateURL(sourceURL); err != nil {
		return info, services.Wrap(services.ErrValidation, "info", "validate url", "", err)
	}
	authArgs, err := f.authArgs(sourceURL)
	if err != nil {
		return info, err
	}
	args := append(append([]string{}, authArgs...), "--dump-json", "--no-warnings", "--", sourceURL)

	runCtx, cancel := context.WithTimeout(ctx, f.cfg.InfoTimeout)
	defer cancel()

	f.logCommand(ctx, args)
	stdout, stderr, runErr := f.run(runCtx, f.cfg.Binary, args...)
	if runErr != nil {
		return info, f.classifyRunError(runCtx, "dump json", runErr, stdout, stderr)
	}
	if err := json.Unmarshal(firstJSONLine(stdout), &info); err != nil {
		return info, services.Wrap(services.ErrDownload, "info", "decode metadata", "", err)
	}
	return info, nil
}

// Version returns the first line of yt-dlp --version.
func (f *Fetcher) Version(ctx context.Context) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	stdout, stderr, err := f.run(runCtx, f.cfg.Binary, "--version")
	if err != nil {
		return "", f.classifyRunError(runCtx, "version", err, stdout, stderr)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(stdout)), "\n")
	return strings.TrimSpace(line), nil
}

// authArgs decides between proxy and cookie authentication. Only restricted
// platforms get either one.
func (f *Fetcher) authArgs(sourceURL string) ([]string, error) {
	if !IsRestricted(sourceURL) {
		return nil, nil
	}
	if f.cfg.Proxy.Enabled() {
		return []string{"--proxy", proxy.Build(f.cfg.Proxy)}, nil
	}
	jar, err := resolveCookieJar(f.cfg.CookiePaths)
	if err != nil {
		return nil, err
	}
	return []string{"--cookies", jar}, nil
}

func (f *Fetcher) classifyRunError(ctx context.Context, operation string, runErr error, stdout, stderr []byte) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, stageName, operation, "yt-dlp exceeded its time limit", context.DeadlineExceeded)
	}
	var execErr *exec.Error
	if errors.As(runErr, &execErr) {
		return services.WithHint(
			services.Wrap(services.ErrDownload, stageName, operation, "yt-dlp is not installed or not accessible", runErr),
			"install yt-dlp and make sure it is on PATH",
		)
	}
	output := proxy.Redact(string(stderr) + "\n" + string(stdout))
	message := fmt.Sprintf("yt-dlp failed (%v)", runErr)
	if tail := tailLines(output, 3); tail != "" {
		message += ": " + tail
	}
	return services.WithHint(services.Wrap(services.ErrDownload, stageName, operation, message, nil), hintForOutput(output))
}

func (f *Fetcher) logCommand(ctx context.Context, args []string) {
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, f.cfg.Binary)
	for _, arg := range args {
		if strings.ContainsAny(arg, " \t\"'") {
			arg = fmt.Sprintf("%q", arg)
		}
		quoted = append(quoted, arg)
	}
	logging.WithContext(ctx, f.logger).Debug("running yt-dlp",
		logging.String("command", proxy.Redact(strings.Join(quoted, " "))),
	)
}

func firstJSONLine(stdout []byte) []byte {
	for _, line := range bytes.Split(stdout, []byte("\n")) {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 && trimmed[0] == '{' {
			return trimmed
		}
	}
	return bytes.TrimSpace(stdout)
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.WaitDelay = 5 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
