// Package video wraps the ffmpeg and ffprobe command line tools for media
// inspection, thumbnail extraction, and transcoding.
package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
)

// ErrToolsUnavailable is returned when ffmpeg or ffprobe is not on PATH.
var ErrToolsUnavailable = errors.New("ffmpeg/ffprobe not available")

// Metadata describes a probed media file.
type Metadata struct {
	Duration   float64 `json:"duration"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Format     string  `json:"format"`
	BitRate    int64   `json:"bitRate"`
	HasAudio   bool    `json:"hasAudio"`
	VideoCodec string  `json:"videoCodec,omitempty"`
	AudioCodec string  `json:"audioCodec,omitempty"`
}

// Processor runs media operations through external tools.
type Processor struct {
	ffmpegPath  string
	ffprobePath string
	logger      *slog.Logger
}

// NewProcessor locates ffmpeg and ffprobe on PATH. The returned processor is
// nil with ErrToolsUnavailable when either tool is missing.
func NewProcessor(logger *slog.Logger) (*Processor, error) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, ErrToolsUnavailable
	}
	ffprobe, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, ErrToolsUnavailable
	}
	return &Processor{ffmpegPath: ffmpeg, ffprobePath: ffprobe, logger: logger}, nil
}

// Probe inspects a media file and returns its metadata.
func (p *Processor) Probe(ctx context.Context, path string) (*Metadata, error) {
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbeOutput(out)
}

// Thumbnail extracts a single frame at the given offset (seconds) into a
// JPEG at dstPath, scaled to fit 300x200.
func (p *Processor) Thumbnail(ctx context.Context, srcPath, dstPath string, offsetSec float64) error {
	cmd := exec.CommandContext(ctx, p.ffmpegPath,
		"-y",
		"-ss", strconv.FormatFloat(offsetSec, 'f', 2, 64),
		"-i", srcPath,
		"-vframes", "1",
		"-vf", "scale=300:200:force_original_aspect_ratio=decrease",
		dstPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		p.logger.Error("thumbnail extraction failed", "src", srcPath, "output", string(out))
		return fmt.Errorf("extract thumbnail: %w", err)
	}
	return nil
}

// Transcode re-encodes the source into H.264/AAC MP4 at the given vertical
// resolution (e.g. 720, 1080).
func (p *Processor) Transcode(ctx context.Context, srcPath, dstPath string, height int) error {
	cmd := exec.CommandContext(ctx, p.ffmpegPath,
		"-y",
		"-i", srcPath,
		"-c:v", "libx264",
		"-preset", "fast",
		"-vf", fmt.Sprintf("scale=-2:%d", height),
		"-c:a", "aac",
		"-movflags", "+faststart",
		dstPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		p.logger.Error("transcode failed", "src", srcPath, "output", string(out))
		return fmt.Errorf("transcode: %w", err)
	}
	return nil
}

// probeOutput mirrors the subset of ffprobe's JSON output we consume.
type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
}

// parseProbeOutput converts raw ffprobe JSON into Metadata.
func parseProbeOutput(raw []byte) (*Metadata, error) {
	var probe probeOutput
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	meta := &Metadata{Format: probe.Format.FormatName}
	if probe.Format.Duration != "" {
		if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			meta.Duration = d
		}
	}
	if probe.Format.BitRate != "" {
		if b, err := strconv.ParseInt(probe.Format.BitRate, 10, 64); err == nil {
			meta.BitRate = b
		}
	}

	for _, s := range probe.Streams {
		switch s.CodecType {
		case "video":
			if meta.VideoCodec == "" {
				meta.VideoCodec = s.CodecName
				meta.Width = s.Width
				meta.Height = s.Height
			}
		case "audio":
			meta.HasAudio = true
			if meta.AudioCodec == "" {
				meta.AudioCodec = s.CodecName
			}
		}
	}
	return meta, nil
}
