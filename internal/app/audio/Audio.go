package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"call-transcriber/internal/app/model"
)

// Prober reports the decoded length of an audio file.
type Prober interface {
	Duration(ctx context.Context, filePath string) (float64, error)
}

// FFProbe measures durations with the ffprobe binary.
type FFProbe struct {
	Binary string
}

func NewFFProbe() *FFProbe {
	return &FFProbe{Binary: "ffprobe"}
}

// Duration returns the length of filePath in seconds. Files without a
// decodable audio stream are rejected.
func (p *FFProbe) Duration(ctx context.Context, filePath string) (float64, error) {
	return GetAudioDuration(ctx, p.Binary, filePath)
}

func GetAudioDuration(ctx context.Context, binary string, filePath string) (float64, error) {
	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-print_format", "json",
		"-show_format", "-show_streams", filePath)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe error: %v, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseProbe(output)
}

func parseProbe(output []byte) (float64, error) {
	var probe model.FFProbeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return 0, fmt.Errorf("unexpected ffprobe output: %w", err)
	}

	audioIdx := -1
	for i, s := range probe.Streams {
		if s.CodecType == "audio" {
			audioIdx = i
			break
		}
	}
	if audioIdx < 0 {
		return 0, fmt.Errorf("no audio stream found")
	}

	text := probe.Format.Duration
	if text == "" || text == "N/A" {
		text = probe.Streams[audioIdx].Duration
	}
	return parseDuration(text)
}

func parseDuration(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == "N/A" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}
	duration, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected ffprobe duration %q: %w", text, err)
	}
	if duration < 0 {
		return 0, fmt.Errorf("negative duration %v", duration)
	}
	return duration, nil
}
