package audio

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
)

const maxUploadBytes = 10 * 1024 * 1024

var errSourceClosed = errors.New("upload source closed")

// UploadSource receives recorded utterances over HTTP. Its handler is mounted
// by the web server; the native recognizer consumes the queue.
type UploadSource struct {
	audioChan chan []byte
	logger    *slog.Logger

	mu        sync.Mutex
	running   bool
	closeOnce sync.Once
	closed    chan struct{}
}

func NewUploadSource(queueSize int, logger *slog.Logger) *UploadSource {
	if queueSize <= 0 {
		queueSize = 10
	}
	return &UploadSource{
		audioChan: make(chan []byte, queueSize),
		logger:    logger,
		closed:    make(chan struct{}),
	}
}

func (u *UploadSource) Name() string {
	return "upload"
}

func (u *UploadSource) Start(_ context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.running = true
	return nil
}

// Stop pauses intake. Queued audio is discarded so a restarted session does
// not hear utterances recorded before it began.
func (u *UploadSource) Stop() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.running = false
	for {
		select {
		case <-u.audioChan:
		default:
			return nil
		}
	}
}

// Close releases consumers blocked in NextUtterance for good.
func (u *UploadSource) Close() {
	u.closeOnce.Do(func() { close(u.closed) })
}

func (u *UploadSource) NextUtterance(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-u.closed:
		return nil, errSourceClosed
	case audio := <-u.audioChan:
		return audio, nil
	}
}

// InjectAudio queues data as if it had been uploaded. It reports whether the
// audio was accepted.
func (u *UploadSource) InjectAudio(data []byte) bool {
	u.mu.Lock()
	running := u.running
	u.mu.Unlock()
	if !running {
		return false
	}
	select {
	case u.audioChan <- data:
		return true
	default:
		return false
	}
}

func (u *UploadSource) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		u.logger.Error("reading audio body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		http.Error(w, "empty audio", http.StatusBadRequest)
		return
	}

	u.mu.Lock()
	running := u.running
	u.mu.Unlock()
	if !running {
		http.Error(w, "not listening", http.StatusConflict)
		return
	}

	if !u.InjectAudio(data) {
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
		return
	}

	u.logger.Info("received audio via HTTP", "bytes", len(data))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"status": "received", "bytes": len(data)})
}
