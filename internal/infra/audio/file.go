package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".webm": true,
	".ogg":  true,
}

// FileSource treats every audio file dropped into dir as one utterance.
// Consumed files are renamed with a .processed suffix.
type FileSource struct {
	dir       string
	interval  time.Duration
	processed map[string]bool
	mu        sync.Mutex
}

func NewFileSource(dir string, interval time.Duration) *FileSource {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &FileSource{
		dir:       dir,
		interval:  interval,
		processed: make(map[string]bool),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

func (f *FileSource) NextUtterance(ctx context.Context) ([]byte, error) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		audio, err := f.checkForNewFile()
		if err != nil {
			return nil, err
		}
		if audio != nil {
			return audio, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *FileSource) checkForNewFile() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !audioExtensions[filepath.Ext(entry.Name())] {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", path, err)
		}
		f.processed[path] = true

		if err := os.Rename(path, path+".processed"); err == nil {
			delete(f.processed, path)
		}
		return data, nil
	}

	return nil, nil
}
