package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// knownAudioExts are stripped from user supplied names before they are used
// in a ringtone filename.
var knownAudioExts = []string{".mp3", ".wav", ".m4a", ".ogg"}

// CleanOriginalName removes audio extensions from a display name.
func CleanOriginalName(name string) string {
	for _, ext := range knownAudioExts {
		name = strings.ReplaceAll(name, ext, "")
	}
	return name
}

// SanitizeFilename keeps letters, digits, space, '-', '_' and '.', and trims
// trailing whitespace.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(" -_.", r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}

// RingtoneName describes a ringtone about to be stored.
type RingtoneName struct {
	OriginalName string // already cleaned
	Start        string
	End          string
	Ext          string // with dot, lower case
	Created      time.Time
}

func shortHash(s string, n int) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:n]
}

func (n RingtoneName) build(prefix, name string) string {
	ts := n.Created.Format("20060102_150405")
	return SanitizeFilename(fmt.Sprintf("%s_%s_%s_%ss_to_%ss%s", prefix, ts, name, n.Start, n.End, n.Ext))
}

// RingtoneFilename picks the stored filename for a ringtone. commandLen
// reports how long the scheduled task command would be for a candidate
// filename; when it exceeds limit the name part is truncated with a hash, and
// failing that replaced by a hash entirely.
func RingtoneFilename(n RingtoneName, commandLen func(filename string) int, limit int) string {
	filename := n.build("ringtone", n.OriginalName)
	length := commandLen(filename)
	if length <= limit {
		return filename
	}

	excess := length - limit + 20
	name := []rune(n.OriginalName)
	if len(name) > excess {
		keep := len(name) - excess
		if keep < 10 {
			keep = 10
		}
		name = append(name[:keep], []rune("_"+shortHash(n.OriginalName, 8))...)
	}
	filename = n.build("ringtone", string(name))
	if commandLen(filename) <= limit {
		return filename
	}

	return n.build("rt", shortHash(n.OriginalName, 12))
}
