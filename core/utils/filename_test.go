package utils

import (
	"strings"
	"testing"
	"time"
)

func TestCleanOriginalName(t *testing.T) {
	tests := map[string]string{
		"song.mp3":    "song",
		"Wake Up.wav": "Wake Up",
		"mix.ogg.m4a": "mix",
		"plain":       "plain",
		"Track.MP3":   "Track.MP3",
	}
	for in, want := range tests {
		if got := CleanOriginalName(in); got != want {
			t.Errorf("CleanOriginalName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"ringtone_a/b:c*?.wav":  "ringtone_abc.wav",
		"Café Olé_1.5s.mp3":     "Café Olé_1.5s.mp3",
		"trailing  ":            "trailing",
		`..\..\evil "name".wav`: "....evil name.wav",
	}
	for in, want := range tests {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

var created = time.Date(2026, 10, 18, 9, 5, 7, 0, time.UTC)

func TestRingtoneFilenameFits(t *testing.T) {
	n := RingtoneName{OriginalName: "Morning Song", Start: "1.5", End: "31.5", Ext: ".wav", Created: created}

	got := RingtoneFilename(n, func(f string) int { return len(f) }, 261)
	want := "ringtone_20261018_090507_Morning Song_1.5s_to_31.5s.wav"
	if got != want {
		t.Fatalf("RingtoneFilename = %q, want %q", got, want)
	}
}

func TestRingtoneFilenameShortened(t *testing.T) {
	long := strings.Repeat("a", 120)
	n := RingtoneName{OriginalName: long, Start: "0", End: "30", Ext: ".mp3", Created: created}
	prefix := strings.Repeat("p", 150)
	cmdLen := func(f string) int { return len(prefix) + len(f) }

	got := RingtoneFilename(n, cmdLen, 261)
	if cmdLen(got) > 261 {
		t.Fatalf("command length %d exceeds limit", cmdLen(got))
	}
	if !strings.HasPrefix(got, "ringtone_20261018_090507_aaaa") {
		t.Fatalf("expected truncated name, got %q", got)
	}
	if !strings.Contains(got, "_"+shortHash(long, 8)+"_0s_to_30s.mp3") {
		t.Fatalf("expected hash suffix, got %q", got)
	}
}

func TestRingtoneFilenameMinimal(t *testing.T) {
	n := RingtoneName{OriginalName: strings.Repeat("b", 60), Start: "0", End: "30", Ext: ".wav", Created: created}
	prefix := strings.Repeat("p", 210)
	cmdLen := func(f string) int { return len(prefix) + len(f) }

	got := RingtoneFilename(n, cmdLen, 261)
	want := "rt_20261018_090507_" + shortHash(n.OriginalName, 12) + "_0s_to_30s.wav"
	if got != want {
		t.Fatalf("RingtoneFilename = %q, want %q", got, want)
	}
	if cmdLen(got) > 261 {
		t.Fatalf("minimal name still too long: %d", cmdLen(got))
	}
}
