package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"ringtoned/config"
	"ringtoned/logger"
)

// ObjectInfo describes one mirrored object.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
}

// BucketStats summarises a listing.
type BucketStats struct {
	TotalObjects int
	TotalSize    int64
	LastModified time.Time
}

// Mirror copies the ringtone library to a MinIO / S3 bucket, laid out as
// <folder>/<filename>.
type Mirror struct {
	client *minio.Client
	bucket string
}

// NewMirror connects to MinIO and creates the bucket if it is missing.
func NewMirror(ctx context.Context, cfg *config.Config) (*Mirror, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("Created mirror bucket", logger.String("bucket", cfg.MinioBucket))
	}

	logger.Info("Library mirror connected",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))
	return &Mirror{client: client, bucket: cfg.MinioBucket}, nil
}

// ObjectName is the key a library file is stored under.
func ObjectName(folder, filename string) string {
	return path.Join(folder, filename)
}

// ContentType guesses the MIME type of a library file.
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// Upload copies a local file into the bucket.
func (m *Mirror) Upload(ctx context.Context, folder, localPath string) error {
	name := ObjectName(folder, filepath.Base(localPath))
	_, err := m.client.FPutObject(ctx, m.bucket, name, localPath, minio.PutObjectOptions{
		ContentType: ContentType(localPath),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}
	logger.Debug("Mirrored object", logger.String("key", name))
	return nil
}

// Remove deletes a mirrored file.
func (m *Mirror) Remove(ctx context.Context, folder, filename string) error {
	name := ObjectName(folder, filename)
	if err := m.client.RemoveObject(ctx, m.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// List returns the mirrored objects under prefix.
func (m *Mirror) List(ctx context.Context, prefix string) ([]ObjectInfo, *BucketStats, error) {
	stats := &BucketStats{}
	var objects []ObjectInfo

	for object := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
			ETag:         object.ETag,
		})
	}
	return objects, stats, nil
}

// Sync uploads every audio file and sidecar of the library. It keeps going
// past individual failures and returns the number uploaded with the first
// error seen.
func (m *Mirror) Sync(ctx context.Context, cfg *config.Config) (int, error) {
	uploaded := 0
	var firstErr error
	for _, folder := range []string{config.WavFolder, config.MP3Folder} {
		dir, _ := cfg.FolderDir(folder)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return uploaded, fmt.Errorf("failed to read %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !isLibraryFile(e.Name()) {
				continue
			}
			if err := m.Upload(ctx, folder, filepath.Join(dir, e.Name())); err != nil {
				logger.Warn("Mirror sync failed for file", logger.String("file", e.Name()), logger.ErrorField(err))
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			uploaded++
		}
	}
	return uploaded, firstErr
}

func isLibraryFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3", ".wav", ".json":
		return true
	}
	return false
}

// FormatSize renders a byte count for humans.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
