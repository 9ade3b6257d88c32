package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"factcheck/internal/config"
	"factcheck/internal/deps"
	"factcheck/internal/status"
)

// CheckOpenAI verifies that the API is reachable and the key is accepted by
// listing models. The models URL is derived from the chat completions URL.
func CheckOpenAI(ctx context.Context, chatURL, apiKey string) Result {
	const name = "OpenAI API"

	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	modelsURL := ModelsURL(chatURL)
	if modelsURL == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, modelsURL, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%v)", err)}
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(apiKey))

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%v)", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "API reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api key)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%d)", resp.StatusCode)}
	}
}

// ModelsURL maps ".../chat/completions" to ".../models".
func ModelsURL(chatURL string) string {
	base := strings.TrimRight(strings.TrimSpace(chatURL), "/")
	if base == "" {
		return ""
	}
	base = strings.TrimSuffix(base, "/chat/completions")
	return base + "/models"
}

// CheckRedis verifies the status store answers PING.
func CheckRedis(ctx context.Context, url string) Result {
	const name = "Status store"

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	kv, err := status.NewRedisKV(checkCtx, url)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("redis unavailable (%v); in-memory fallback", err)}
	}
	_ = kv.Close()
	return Result{Name: name, Passed: true, Detail: "Redis reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minBytes free.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s (%s free)", path, formatBytes(free))
	if free < minBytes {
		return Result{Name: name, Detail: detail + fmt.Sprintf(", need %s", formatBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates the binaries the fetcher needs. Both the server
// and the CLI status command use this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	binary := "yt-dlp"
	if cfg != nil && strings.TrimSpace(cfg.Fetcher.Binary) != "" {
		binary = cfg.Fetcher.Binary
	}
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "yt-dlp",
			Command:     binary,
			Description: "Required for audio extraction",
		},
		{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			Description: "Required by yt-dlp to transcode audio",
		},
		{
			Name:        "FFprobe",
			Command:     "ffprobe",
			Description: "Used by yt-dlp for stream inspection",
			Optional:    true,
		},
	})
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
