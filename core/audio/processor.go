package audio

import "context"

// Processor defines the audio operations the ringtone library needs.
type Processor interface {
	ConvertToMP3(ctx context.Context, inputFile, outputFile, bitrate string) error
	Trim(ctx context.Context, inputFile, outputFile string, start, end float64) error
	GetAudioDuration(ctx context.Context, inputFile string) (float64, error)
	Available(ctx context.Context) bool
}
