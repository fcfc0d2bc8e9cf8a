package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"ringtoned/cache"
	"ringtoned/config"
	"ringtoned/core/audio"
	"ringtoned/core/scheduler"
	"ringtoned/core/utils"
	"ringtoned/logger"
	"ringtoned/model"
)

// isoLocal matches the timestamp format the front-end already parses.
const isoLocal = "2006-01-02T15:04:05.000000"

// RingtoneRepository defines the ringtone library operations.
type RingtoneRepository interface {
	List(ctx context.Context) ([]model.Ringtone, error)
	Save(ctx context.Context, req SaveRequest) (*model.SavedRingtone, error)
	Open(folder, filename string) (string, error)
	Delete(ctx context.Context, folder, filename string) error
	SaveUpload(ctx context.Context, filename string, body io.Reader) (*model.UploadedAudio, error)
}

// Mirror receives copies of library changes. Failures are logged, never
// returned to the caller.
type Mirror interface {
	Upload(ctx context.Context, folder, localPath string) error
	Remove(ctx context.Context, folder, filename string) error
}

// SaveRequest carries a new ringtone. Exactly one of Body or Source is used:
// Body is the already trimmed clip; Source names a file in the uploads folder
// to be cut to [StartTime, EndTime].
type SaveRequest struct {
	Filename     string
	Body         io.Reader
	Source       string
	OriginalName string
	StartTime    string
	EndTime      string
	Duration     string
}

// FileRingtoneRepository stores ringtones as audio files with JSON sidecars
// in the wav and mp3 folders.
type FileRingtoneRepository struct {
	cfg       *config.Config
	processor audio.Processor
	cache     *cache.MetadataCache
	mirror    Mirror
	now       func() time.Time
}

// NewFileRingtoneRepository creates the library. metaCache may be nil.
func NewFileRingtoneRepository(cfg *config.Config, processor audio.Processor, metaCache *cache.MetadataCache) *FileRingtoneRepository {
	return &FileRingtoneRepository{
		cfg:       cfg,
		processor: processor,
		cache:     metaCache,
		now:       time.Now,
	}
}

// SetMirror attaches an object storage mirror.
func (r *FileRingtoneRepository) SetMirror(m Mirror) {
	r.mirror = m
}

// Invalidate drops any cached sidecar for an audio file.
func (r *FileRingtoneRepository) Invalidate(audioPath string) {
	if r.cache != nil {
		r.cache.Remove(sidecarPath(audioPath))
	}
}

func (r *FileRingtoneRepository) folders() []struct{ name, dir, ext string } {
	return []struct{ name, dir, ext string }{
		{config.WavFolder, r.cfg.WavDir, ".wav"},
		{config.MP3Folder, r.cfg.MP3Dir, ".mp3"},
	}
}

// List scans the WAV folder and then the MP3 folder.
func (r *FileRingtoneRepository) List(ctx context.Context) ([]model.Ringtone, error) {
	ringtones := []model.Ringtone{}
	for _, f := range r.folders() {
		entries, err := os.ReadDir(f.dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", f.dir, err)
		}

		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), f.ext) {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			path := filepath.Join(f.dir, e.Name())
			rt := model.Ringtone{
				Name:     e.Name(),
				Size:     info.Size(),
				Created:  info.ModTime().Format(isoLocal),
				Modified: info.ModTime().Format(isoLocal),
				FilePath: path,
				Format:   strings.TrimPrefix(f.ext, "."),
				Folder:   f.name,
			}

			if meta := r.metadata(path); meta != nil {
				rt.ID = meta.ID
				rt.HasMetadata = true
				rt.OriginalName = &meta.OriginalName
				rt.StartTime = &meta.StartTime
				rt.EndTime = &meta.EndTime
				rt.Duration = &meta.Duration
				if meta.Created != "" {
					rt.Created = meta.Created
				}
			}
			if rt.ID == "" {
				rt.ID = uuid.NewString()
			}
			ringtones = append(ringtones, rt)
		}
	}
	return ringtones, nil
}

// metadata returns the sidecar for an audio file, or nil when there is none
// or it cannot be parsed.
func (r *FileRingtoneRepository) metadata(audioPath string) *model.RingtoneMetadata {
	path := sidecarPath(audioPath)
	if r.cache != nil {
		if meta, ok := r.cache.Get(path); ok {
			return meta
		}
	}
	meta, err := readSidecar(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to load ringtone metadata", logger.String("path", path), logger.ErrorField(err))
		}
		return nil
	}
	if r.cache != nil {
		r.cache.Add(path, meta)
	}
	return meta
}

func parseSeconds(field, v string) (float64, error) {
	if strings.TrimSpace(v) == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number of seconds, got %q", ErrInvalidRequest, field, v)
	}
	return f, nil
}

func nonEmpty(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}

// Save stores a new ringtone and, for WAV clips, an MP3 rendition of it.
func (r *FileRingtoneRepository) Save(ctx context.Context, req SaveRequest) (*model.SavedRingtone, error) {
	var ext string
	switch {
	case req.Body != nil:
		ext = strings.ToLower(filepath.Ext(req.Filename))
		if ext != ".mp3" && ext != ".wav" {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, req.Filename)
		}
	case req.Source != "":
		ext = ".wav"
	default:
		return nil, fmt.Errorf("%w: no file provided", ErrInvalidRequest)
	}

	start, err := parseSeconds("start_time", req.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseSeconds("end_time", req.EndTime)
	if err != nil {
		return nil, err
	}
	duration, err := parseSeconds("duration", req.Duration)
	if err != nil {
		return nil, err
	}

	var sourcePath string
	if req.Body == nil {
		sourcePath = filepath.Join(r.cfg.UploadDir, filepath.Base(req.Source))
		if _, err := os.Stat(sourcePath); err != nil {
			return nil, fmt.Errorf("%w: upload %s", ErrNotFound, req.Source)
		}
		if end <= start {
			return nil, fmt.Errorf("%w: end_time must be after start_time", ErrInvalidRequest)
		}
		if duration == 0 {
			duration = end - start
		}
	}

	folder, dir := config.WavFolder, r.cfg.WavDir
	if ext == ".mp3" {
		folder, dir = config.MP3Folder, r.cfg.MP3Dir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	// Tasks get the absolute path, so that is what has to fit the limit.
	cmdDir := dir
	if abs, err := filepath.Abs(dir); err == nil {
		cmdDir = abs
	}

	created := r.now()
	cleanName := utils.CleanOriginalName(nonEmpty(req.OriginalName, "Unknown"))
	filename := utils.RingtoneFilename(utils.RingtoneName{
		OriginalName: cleanName,
		Start:        nonEmpty(req.StartTime, "0"),
		End:          nonEmpty(req.EndTime, "0"),
		Ext:          ext,
		Created:      created,
	}, func(candidate string) int {
		return len(scheduler.PlayCommand(r.cfg.PlayerExecutable, filepath.Join(cmdDir, candidate)))
	}, r.cfg.MaxCommandLength)
	filePath := filepath.Join(dir, filename)

	if req.Body != nil {
		err = writeAudio(filePath, req.Body)
	} else {
		err = r.processor.Trim(ctx, sourcePath, filePath, start, end)
	}
	if err != nil {
		os.Remove(filePath)
		return nil, err
	}
	logger.Info("Ringtone saved", logger.String("path", filePath))

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", filePath, err)
	}
	if duration == 0 {
		if d, err := r.processor.GetAudioDuration(ctx, filePath); err == nil {
			duration = d
		} else {
			logger.Debug("Could not probe ringtone duration", logger.String("path", filePath), logger.ErrorField(err))
		}
	}

	meta := &model.RingtoneMetadata{
		ID:           uuid.NewString(),
		Filename:     filename,
		OriginalName: cleanName,
		StartTime:    start,
		EndTime:      end,
		Duration:     duration,
		Created:      created.Format(isoLocal),
		FilePath:     filePath,
		Format:       strings.TrimPrefix(ext, "."),
		Folder:       folder,
		FileSize:     info.Size(),
	}
	if ext == ".mp3" {
		meta.MP3Available = true
		meta.MP3Filename = &filename
		meta.MP3Path = &filePath
	}
	metaPath := sidecarPath(filePath)
	if err := r.putSidecar(metaPath, meta); err != nil {
		return nil, err
	}

	saved := &model.SavedRingtone{Metadata: meta, Size: info.Size(), Created: meta.Created}
	if ext == ".wav" {
		if mp3Meta := r.convert(ctx, meta); mp3Meta != nil {
			saved.MP3Metadata = mp3Meta
			meta.MP3Available = true
			meta.MP3Filename = &mp3Meta.Filename
			meta.MP3Path = &mp3Meta.FilePath
			if err := r.putSidecar(metaPath, meta); err != nil {
				return nil, err
			}
		}
	}

	r.mirrorUpload(ctx, folder, filePath, metaPath)
	if saved.MP3Metadata != nil {
		r.mirrorUpload(ctx, config.MP3Folder, saved.MP3Metadata.FilePath, sidecarPath(saved.MP3Metadata.FilePath))
	}
	return saved, nil
}

// convert renders an MP3 copy of a WAV ringtone. It returns nil, after
// removing any partial output, when conversion fails.
func (r *FileRingtoneRepository) convert(ctx context.Context, wav *model.RingtoneMetadata) *model.RingtoneMetadata {
	stem := strings.TrimSuffix(wav.Filename, filepath.Ext(wav.Filename))
	mp3Name := stem + ".mp3"
	mp3Path := filepath.Join(r.cfg.MP3Dir, mp3Name)
	mp3MetaPath := sidecarPath(mp3Path)

	cleanup := func(reason error) *model.RingtoneMetadata {
		logger.Warn("MP3 version creation failed, keeping WAV only",
			logger.String("ringtone", wav.Filename), logger.ErrorField(reason))
		os.Remove(mp3Path)
		os.Remove(mp3MetaPath)
		return nil
	}

	if err := r.processor.ConvertToMP3(ctx, wav.FilePath, mp3Path, r.cfg.MP3Bitrate); err != nil {
		return cleanup(err)
	}
	info, err := os.Stat(mp3Path)
	if err != nil {
		return cleanup(err)
	}
	if info.Size() == 0 {
		return cleanup(fmt.Errorf("ffmpeg produced an empty file"))
	}

	mp3Meta := &model.RingtoneMetadata{
		ID:           uuid.NewString(),
		Filename:     mp3Name,
		OriginalName: wav.OriginalName,
		StartTime:    wav.StartTime,
		EndTime:      wav.EndTime,
		Duration:     wav.Duration,
		Created:      r.now().Format(isoLocal),
		FilePath:     mp3Path,
		Format:       "mp3",
		Folder:       config.MP3Folder,
		FileSize:     info.Size(),
		MP3Available: true,
		MP3Filename:  &mp3Name,
		MP3Path:      &mp3Path,
	}
	if err := r.putSidecar(mp3MetaPath, mp3Meta); err != nil {
		return cleanup(err)
	}
	logger.Info("MP3 version created", logger.String("path", mp3Path), logger.Int64("size", info.Size()))
	return mp3Meta
}

func (r *FileRingtoneRepository) putSidecar(path string, meta *model.RingtoneMetadata) error {
	if err := writeSidecar(path, meta); err != nil {
		return err
	}
	if r.cache != nil {
		r.cache.Add(path, meta)
	}
	return nil
}

func writeAudio(path string, body io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// resolve validates a folder/filename pair from a URL and returns the path.
func (r *FileRingtoneRepository) resolve(folder, filename string) (string, error) {
	dir, ok := r.cfg.FolderDir(folder)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidFolder, folder)
	}
	if filename == "" || filename != filepath.Base(filename) || filename == "." || filename == ".." {
		return "", fmt.Errorf("%w: %q", ErrNotFound, filename)
	}
	path := filepath.Join(dir, filename)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s/%s", ErrNotFound, folder, filename)
	}
	return path, nil
}

// Open returns the path of a ringtone for download.
func (r *FileRingtoneRepository) Open(folder, filename string) (string, error) {
	return r.resolve(folder, filename)
}

// Delete removes a ringtone, its sidecar, and the same-stem file and sidecar
// in the other format folder.
func (r *FileRingtoneRepository) Delete(ctx context.Context, folder, filename string) error {
	path, err := r.resolve(folder, filename)
	if err != nil {
		return err
	}

	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	sibFolder, sibPath := config.MP3Folder, filepath.Join(r.cfg.MP3Dir, stem+".mp3")
	if folder == config.MP3Folder {
		sibFolder, sibPath = config.WavFolder, filepath.Join(r.cfg.WavDir, stem+".wav")
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	r.removeSidecar(path)
	r.mirrorRemove(ctx, folder, path)
	logger.Info("Ringtone deleted", logger.String("folder", folder), logger.String("filename", filename))

	removed, err := removeIfExists(sibPath)
	if err != nil {
		return err
	}
	r.removeSidecar(sibPath)
	if removed {
		r.mirrorRemove(ctx, sibFolder, sibPath)
		logger.Info("Corresponding ringtone deleted", logger.String("path", sibPath))
	}
	return nil
}

func (r *FileRingtoneRepository) removeSidecar(audioPath string) {
	metaPath := sidecarPath(audioPath)
	if r.cache != nil {
		r.cache.Remove(metaPath)
	}
	if _, err := removeIfExists(metaPath); err != nil {
		logger.Warn("Failed to delete ringtone metadata", logger.ErrorField(err))
	}
}

// SaveUpload stores an original audio file in the uploads folder under its
// base name, replacing any file of the same name.
func (r *FileRingtoneRepository) SaveUpload(ctx context.Context, filename string, body io.Reader) (*model.UploadedAudio, error) {
	name := filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".mp3" && ext != ".wav" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
	if err := os.MkdirAll(r.cfg.UploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", r.cfg.UploadDir, err)
	}

	path := filepath.Join(r.cfg.UploadDir, name)
	if err := writeAudio(path, body); err != nil {
		os.Remove(path)
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	logger.Info("Audio file uploaded", logger.String("path", path), logger.Int64("size", info.Size()))
	return &model.UploadedAudio{
		Filename: name,
		FilePath: path,
		Size:     info.Size(),
		Uploaded: info.ModTime().Format(isoLocal),
	}, nil
}

func (r *FileRingtoneRepository) mirrorUpload(ctx context.Context, folder string, paths ...string) {
	if r.mirror == nil {
		return
	}
	for _, p := range paths {
		if err := r.mirror.Upload(ctx, folder, p); err != nil {
			logger.Warn("Failed to mirror ringtone", logger.String("path", p), logger.ErrorField(err))
		}
	}
}

func (r *FileRingtoneRepository) mirrorRemove(ctx context.Context, folder, audioPath string) {
	if r.mirror == nil {
		return
	}
	for _, p := range []string{audioPath, sidecarPath(audioPath)} {
		if err := r.mirror.Remove(ctx, folder, filepath.Base(p)); err != nil {
			logger.Warn("Failed to remove mirrored ringtone", logger.String("path", p), logger.ErrorField(err))
		}
	}
}
