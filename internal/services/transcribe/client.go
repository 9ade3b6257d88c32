package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"factcheck/internal/services"
	"factcheck/internal/services/llm"
)

const (
	// DefaultModel is the speech-to-text model sent with every upload.
	DefaultModel = "whisper-1"

	defaultURL     = "https://api.openai.com/v1/audio/transcriptions"
	defaultTimeout = 5 * time.Minute
	stageName      = "transcribing"
)

// Config captures the transcription endpoint settings.
type Config struct {
	APIKey         string
	URL            string
	Model          string
	TimeoutSeconds int
}

// Client uploads audio files to a Whisper-compatible endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a transcription client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.URL = strings.TrimSpace(cfg.URL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	client := &Client{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type transcriptionResponse struct {
	Text *string `json:"text"`
}

// Transcribe uploads audioPath and returns the recognized text. A response
// without a text field yields an empty string.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrFileNotFound, stageName, "open audio", "audio file not found: "+audioPath, err)
		}
		return "", services.Wrap(services.ErrFileNotFound, stageName, "open audio", "", err)
	}
	defer file.Close()

	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, stageName, "upload", "api key required", nil)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", services.Wrap(services.ErrNetwork, stageName, "encode upload", "", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", services.Wrap(services.ErrFileNotFound, stageName, "read audio", "", err)
	}
	if err := writer.WriteField("model", c.cfg.Model); err != nil {
		return "", services.Wrap(services.ErrNetwork, stageName, "encode upload", "", err)
	}
	if err := writer.Close(); err != nil {
		return "", services.Wrap(services.ErrNetwork, stageName, "encode upload", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, &body)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, stageName, "build request", "", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.TransportError(stageName, "upload", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.TransportError(stageName, "read response", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &services.APIError{
			Op:         "transcription",
			StatusCode: resp.StatusCode,
			Message:    llm.ErrorMessage(payload),
		}
	}

	var decoded transcriptionResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", services.Wrap(services.ErrAPI, stageName, "decode response", "", err)
	}
	if decoded.Text == nil {
		return "", nil
	}
	return *decoded.Text, nil
}
