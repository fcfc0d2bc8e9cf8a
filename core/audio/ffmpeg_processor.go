package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ringtoned/core/command"
	"ringtoned/logger"
)

const (
	convertTimeout = 120 * time.Second
	probeTimeout   = 15 * time.Second
)

// FFmpegProcessor implements the Processor interface using ffmpeg.
type FFmpegProcessor struct {
	ffmpegPath string
	runner     command.Runner
}

// NewFFmpegProcessor creates a new FFmpegProcessor.
func NewFFmpegProcessor(ffmpegPath string, runner command.Runner) *FFmpegProcessor {
	return &FFmpegProcessor{ffmpegPath: ffmpegPath, runner: runner}
}

// SiblingTool derives the path of another FFmpeg tool (ffprobe, ffplay) that
// ships next to the configured ffmpeg binary.
func SiblingTool(ffmpegPath, tool string) string {
	dir, base := filepath.Split(ffmpegPath)
	ext := filepath.Ext(base)
	if !strings.EqualFold(strings.TrimSuffix(base, ext), "ffmpeg") {
		return tool + ext
	}
	return dir + tool + ext
}

// Available reports whether ffmpeg can be executed.
func (p *FFmpegProcessor) Available(ctx context.Context) bool {
	res, err := p.runner.Run(ctx, p.ffmpegPath, []string{"-version"}, probeTimeout)
	return err == nil && res.OK()
}

// ConvertToMP3 re-encodes inputFile as MP3 at the given bitrate.
func (p *FFmpegProcessor) ConvertToMP3(ctx context.Context, inputFile, outputFile, bitrate string) error {
	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("failed to create output directory for %s: %w", outputFile, err)
	}

	args := []string{
		"-y", // overwrite
		"-i", inputFile,
		"-vn",
		"-codec:a", "libmp3lame",
		"-b:a", bitrate,
		outputFile,
	}
	return p.run(ctx, inputFile, args)
}

// Trim cuts [start, end] seconds out of inputFile. The output container is
// chosen by ffmpeg from the output extension.
func (p *FFmpegProcessor) Trim(ctx context.Context, inputFile, outputFile string, start, end float64) error {
	if end <= start {
		return fmt.Errorf("invalid trim range %.3f-%.3f", start, end)
	}
	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("failed to create output directory for %s: %w", outputFile, err)
	}

	args := []string{
		"-y",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(end - start),
		"-i", inputFile,
		"-vn",
		outputFile,
	}
	return p.run(ctx, inputFile, args)
}

func (p *FFmpegProcessor) run(ctx context.Context, inputFile string, args []string) error {
	logger.Debug("Executing FFmpeg command", logger.String("cmd", command.Line(p.ffmpegPath, args)))

	res, err := p.runner.Run(ctx, p.ffmpegPath, args, convertTimeout)
	if err != nil {
		return fmt.Errorf("ffmpeg execution failed for %s: %w", inputFile, err)
	}
	if !res.OK() {
		return fmt.Errorf("ffmpeg exited with code %d for %s\nFFmpeg Error: %s", res.ExitCode, inputFile, res.Stderr)
	}
	return nil
}

// ffprobeOutput defines the structure for ffprobe JSON output.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// GetAudioDuration uses ffprobe to get the duration of an audio file in seconds.
func (p *FFmpegProcessor) GetAudioDuration(ctx context.Context, inputFile string) (float64, error) {
	ffprobePath := SiblingTool(p.ffmpegPath, "ffprobe")

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		inputFile,
	}

	res, err := p.runner.Run(ctx, ffprobePath, args, probeTimeout)
	if err != nil {
		return 0, fmt.Errorf("ffprobe execution failed for %s: %w", inputFile, err)
	}
	if !res.OK() {
		return 0, fmt.Errorf("ffprobe exited with code %d for %s\nFFprobe Error: %s", res.ExitCode, inputFile, res.Stderr)
	}

	var probeData ffprobeOutput
	if err := json.Unmarshal([]byte(res.Stdout), &probeData); err != nil {
		return 0, fmt.Errorf("failed to unmarshal ffprobe output for %s: %w\nFFprobe Output: %s", inputFile, err, res.Stdout)
	}
	if probeData.Format.Duration == "" {
		return 0, fmt.Errorf("duration not found in ffprobe output for %s\nFFprobe Output: %s", inputFile, res.Stdout)
	}

	duration, err := strconv.ParseFloat(probeData.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration string %q for %s: %w", probeData.Format.Duration, inputFile, err)
	}
	return duration, nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
