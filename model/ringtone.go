package model

// RingtoneMetadata is the sidecar record stored next to each ringtone as
// <stem>.json. It is written when the ringtone is saved and rewritten once the
// MP3 conversion finishes.
type RingtoneMetadata struct {
	ID           string  `json:"id"`
	Filename     string  `json:"filename"`
	OriginalName string  `json:"original_name"`
	StartTime    float64 `json:"start_time"`
	EndTime      float64 `json:"end_time"`
	Duration     float64 `json:"duration"`
	Created      string  `json:"created"` // ISO-8601 local time
	FilePath     string  `json:"file_path"`
	Format       string  `json:"format"` // "wav" or "mp3"
	Folder       string  `json:"folder"`
	FileSize     int64   `json:"file_size,omitempty"`
	MP3Available bool    `json:"mp3_available"`
	MP3Filename  *string `json:"mp3_filename"`
	MP3Path      *string `json:"mp3_path"`
}

// Ringtone is one entry of the library listing.
type Ringtone struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Size         int64    `json:"size"`
	Created      string   `json:"created"`
	Modified     string   `json:"modified"`
	FilePath     string   `json:"file_path"`
	Format       string   `json:"format"`
	Folder       string   `json:"folder"`
	HasMetadata  bool     `json:"has_metadata"`
	OriginalName *string  `json:"original_name,omitempty"`
	StartTime    *float64 `json:"start_time,omitempty"`
	EndTime      *float64 `json:"end_time,omitempty"`
	Duration     *float64 `json:"duration,omitempty"`
}

// SavedRingtone describes the outcome of creating a ringtone.
type SavedRingtone struct {
	Metadata    *RingtoneMetadata `json:"metadata"`
	MP3Metadata *RingtoneMetadata `json:"mp3_metadata"`
	Size        int64             `json:"size"`
	Created     string            `json:"created"`
}

// MP3Created reports whether an MP3 rendition exists for the ringtone.
func (s *SavedRingtone) MP3Created() bool {
	return s.Metadata != nil && s.Metadata.MP3Available
}

// UploadedAudio describes an original file stored for later trimming.
type UploadedAudio struct {
	Filename string `json:"filename"`
	FilePath string `json:"file_path"`
	Size     int64  `json:"size"`
	Uploaded string `json:"uploaded"`
}
