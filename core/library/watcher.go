package library

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"ringtoned/logger"
	"ringtoned/model"
)

// Invalidator forgets cached state for an audio file.
type Invalidator interface {
	Invalidate(audioPath string)
}

// Publisher receives library events.
type Publisher interface {
	Publish(ev model.LibraryEvent)
}

// Watcher turns file system changes in the ringtone folders into library
// events.
type Watcher struct {
	watcher *fsnotify.Watcher
	folders map[string]string // dir -> folder name
	cache   Invalidator
	pub     Publisher
}

// NewWatcher watches each folder name -> directory pair. The directories
// must exist.
func NewWatcher(folders map[string]string, cache Invalidator, pub Publisher) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{watcher: fw, folders: make(map[string]string), cache: cache, pub: pub}
	for name, dir := range folders {
		clean := filepath.Clean(dir)
		if err := fw.Add(clean); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", clean, err)
		}
		w.folders[clean] = name
	}
	return w, nil
}

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Library watcher error", logger.ErrorField(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	ev, ok := w.translate(event)
	if !ok {
		return
	}
	if w.cache != nil {
		w.cache.Invalidate(event.Name)
	}
	logger.Debug("Library changed",
		logger.String("type", string(ev.Type)),
		logger.String("folder", ev.Folder),
		logger.String("file", ev.Filename))
	if w.pub != nil {
		w.pub.Publish(ev)
	}
}

// translate maps an fsnotify event on an audio file to a library event.
// Sidecars, temp files and chmod-only events are ignored.
func (w *Watcher) translate(event fsnotify.Event) (model.LibraryEvent, bool) {
	folder, ok := w.folders[filepath.Dir(event.Name)]
	if !ok {
		return model.LibraryEvent{}, false
	}
	switch strings.ToLower(filepath.Ext(event.Name)) {
	case ".wav", ".mp3":
	default:
		return model.LibraryEvent{}, false
	}

	var typ model.LibraryEventType
	switch {
	case event.Has(fsnotify.Create):
		typ = model.LibraryEventCreated
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		typ = model.LibraryEventRemoved
	case event.Has(fsnotify.Write):
		typ = model.LibraryEventChanged
	default:
		return model.LibraryEvent{}, false
	}

	return model.LibraryEvent{
		Type:      typ,
		Folder:    folder,
		Filename:  filepath.Base(event.Name),
		Timestamp: time.Now().UnixMilli(),
	}, true
}
