package audio

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"ringtoned/core/command"
)

func TestSiblingTool(t *testing.T) {
	tests := []struct {
		ffmpeg string
		want   string
	}{
		{ffmpeg: "ffmpeg", want: "ffprobe"},
		{ffmpeg: "/usr/bin/ffmpeg", want: "/usr/bin/ffprobe"},
		{ffmpeg: `C:\ffmpeg\bin\ffmpeg.exe`, want: `C:\ffmpeg\bin\ffprobe.exe`},
		{ffmpeg: "/opt/avconv", want: "ffprobe"},
	}
	for _, tt := range tests {
		// filepath.Split only understands the host separator.
		if strings.Contains(tt.ffmpeg, `\`) && filepath.Separator != '\\' {
			continue
		}
		if got := SiblingTool(tt.ffmpeg, "ffprobe"); got != tt.want {
			t.Errorf("SiblingTool(%q) = %q, want %q", tt.ffmpeg, got, tt.want)
		}
	}
}

func TestGetAudioDuration(t *testing.T) {
	fake := &command.Fake{Handler: func(name string, args []string) (command.Result, error) {
		return command.Result{Stdout: `{"format":{"duration":"12.500000"}}`}, nil
	}}
	p := NewFFmpegProcessor("/usr/bin/ffmpeg", fake)

	d, err := p.GetAudioDuration(context.Background(), "a.wav")
	if err != nil {
		t.Fatalf("GetAudioDuration error: %v", err)
	}
	if d != 12.5 {
		t.Fatalf("duration = %v, want 12.5", d)
	}
	if calls := fake.Calls(); calls[0].Name != "/usr/bin/ffprobe" {
		t.Fatalf("probe binary = %q", calls[0].Name)
	}
}

func TestConvertToMP3Args(t *testing.T) {
	dir := t.TempDir()
	fake := &command.Fake{}
	p := NewFFmpegProcessor("ffmpeg", fake)

	out := filepath.Join(dir, "mp3", "x.mp3")
	if err := p.ConvertToMP3(context.Background(), "in.wav", out, "128k"); err != nil {
		t.Fatalf("ConvertToMP3 error: %v", err)
	}
	args := strings.Join(fake.Calls()[0].Args, " ")
	if !strings.Contains(args, "-b:a 128k") || !strings.HasSuffix(args, out) {
		t.Fatalf("unexpected args: %s", args)
	}
}

func TestConvertToMP3Failure(t *testing.T) {
	fake := &command.Fake{Handler: func(string, []string) (command.Result, error) {
		return command.Result{ExitCode: 1, Stderr: "Unknown encoder 'libmp3lame'"}, nil
	}}
	p := NewFFmpegProcessor("ffmpeg", fake)

	err := p.ConvertToMP3(context.Background(), "in.wav", filepath.Join(t.TempDir(), "x.mp3"), "128k")
	if err == nil || !strings.Contains(err.Error(), "libmp3lame") {
		t.Fatalf("err = %v, want ffmpeg stderr in message", err)
	}
}

func TestTrimRejectsEmptyRange(t *testing.T) {
	p := NewFFmpegProcessor("ffmpeg", &command.Fake{})

	if err := p.Trim(context.Background(), "in.wav", "out.wav", 5, 5); err == nil {
		t.Fatal("expected error for empty range")
	}
}

func TestTrimArgs(t *testing.T) {
	fake := &command.Fake{}
	p := NewFFmpegProcessor("ffmpeg", fake)

	if err := p.Trim(context.Background(), "in.mp3", filepath.Join(t.TempDir(), "o.wav"), 1.5, 4); err != nil {
		t.Fatalf("Trim error: %v", err)
	}
	args := strings.Join(fake.Calls()[0].Args, " ")
	if !strings.Contains(args, "-ss 1.500 -t 2.500") {
		t.Fatalf("unexpected args: %s", args)
	}
}
