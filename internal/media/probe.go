package media

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"factcheck/internal/fileutil"
	"factcheck/internal/logging"
	"factcheck/internal/services"
)

const probeTimeout = 30 * time.Second

// Probe is the ffprobe view of an extracted audio file.
type Probe struct {
	Streams []ProbeStream `json:"streams"`
	Format  ProbeFormat   `json:"format"`
}

// ProbeStream describes a single stream in the container.
type ProbeStream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// ProbeFormat captures container-level metadata.
type ProbeFormat struct {
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// AudioStreamCount returns the number of audio streams discovered.
func (p Probe) AudioStreamCount() int {
	count := 0
	for _, stream := range p.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration, or 0 when unavailable or invalid.
func (p Probe) DurationSeconds() float64 {
	return nonNegative(parseProbeNumber(p.Format.Duration))
}

// BitRate returns the container bitrate in bits per second, or 0 when unavailable.
func (p Probe) BitRate() int64 {
	return int64(nonNegative(parseProbeNumber(p.Format.BitRate)))
}

// ProbeAudio runs ffprobe against path.
func (f *Fetcher) ProbeAudio(ctx context.Context, path string) (Probe, error) {
	var probe Probe
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	stdout, stderr, err := f.run(probeCtx, f.cfg.ProbeBinary,
		"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return probe, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(stderr)))
	}
	if err := json.Unmarshal(stdout, &probe); err != nil {
		return probe, fmt.Errorf("ffprobe parse: %w", err)
	}
	return probe, nil
}

// verifyAudio rejects outputs that ffprobe can read but that carry no audio
// stream. Probe failures are logged and ignored; the transcription API is the
// final judge of the file.
func (f *Fetcher) verifyAudio(ctx context.Context, path string) error {
	if strings.TrimSpace(f.cfg.ProbeBinary) == "" {
		return nil
	}
	if _, err := exec.LookPath(f.cfg.ProbeBinary); err != nil {
		return nil
	}
	logger := logging.WithContext(ctx, f.logger)
	probe, err := f.ProbeAudio(ctx, path)
	if err != nil {
		logger.Debug("audio probe skipped", logging.Error(err))
		return nil
	}
	if probe.AudioStreamCount() == 0 {
		_ = fileutil.RemoveIfExists(path)
		return services.Wrap(services.ErrDownload, stageName, "verify output", "extracted file has no audio stream", nil)
	}
	logger.Debug("audio probed",
		logging.String("duration", (time.Duration(probe.DurationSeconds()*float64(time.Second))).Round(time.Second).String()),
		logging.Int64("bit_rate", probe.BitRate()),
	)
	return nil
}

func parseProbeNumber(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
