package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"voicecalc/internal/application"
	"voicecalc/internal/domain"
)

var ErrNoVoiceClient = errors.New("no voice client connected")

const (
	sendQueueSize = 64
	writeTimeout  = 5 * time.Second
)

// Hub bridges browser clients to the session. Every client receives session
// events; the most recent client that announced itself as a voice client also
// performs recognition and speech on the server's behalf.
type Hub struct {
	logger         *slog.Logger
	ackTimeout     time.Duration
	originPatterns []string

	mu       sync.Mutex
	clients  map[*client]struct{}
	voice    *client
	listener application.RecognitionListener
	startAck chan error
	speech   map[string]func(domain.SpeechOutcome, error)
}

type client struct {
	conn     *websocket.Conn
	send     chan serverMessage
	done     chan struct{}
	finality bool
}

func NewHub(logger *slog.Logger, ackTimeout time.Duration, originPatterns []string) *Hub {
	if ackTimeout <= 0 {
		ackTimeout = 5 * time.Second
	}
	return &Hub{
		logger:         logger,
		ackTimeout:     ackTimeout,
		originPatterns: originPatterns,
		clients:        make(map[*client]struct{}),
		speech:         make(map[string]func(domain.SpeechOutcome, error)),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan serverMessage, sendQueueSize),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("websocket client connected", "remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.writeLoop(ctx, c)

	err = h.readLoop(ctx, c)
	h.remove(c)
	close(c.done)

	status := websocket.CloseStatus(err)
	if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
		h.logger.Warn("websocket client disconnected", "error", err)
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func (h *Hub) writeLoop(ctx context.Context, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case msg := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, c.conn, msg)
			cancel()
			if err != nil {
				h.logger.Warn("websocket write", "type", msg.Type, "error", err)
				c.conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}

func (h *Hub) readLoop(ctx context.Context, c *client) error {
	for {
		var msg clientMessage
		if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
			return err
		}
		h.dispatch(c, msg)
	}
}

func (h *Hub) dispatch(c *client, msg clientMessage) {
	switch msg.Type {
	case msgHello:
		if msg.Voice {
			h.mu.Lock()
			c.finality = msg.Finality
			h.voice = c
			h.mu.Unlock()
			h.logger.Info("voice client registered", "finality", msg.Finality)
		}
	case msgListening:
		h.ackStart(c, nil)
	case msgPermissionDenied:
		h.ackStart(c, domain.ErrPermissionDenied)
	case msgUnsupported:
		h.ackStart(c, domain.ErrUnsupportedPlatform)
	case msgInterim, msgFinal, msgRecognitionError:
		l := h.activeListener(c)
		if l == nil {
			return
		}
		switch msg.Type {
		case msgInterim:
			l.OnInterim(msg.Text)
		case msgFinal:
			l.OnFinal(msg.Text)
		default:
			l.OnError(fmt.Errorf("browser recognition: %s", msg.Detail))
		}
	case msgSpeechDone:
		h.finishSpeech(msg.ID, domain.SpeechDone, nil)
	case msgSpeechStopped:
		h.finishSpeech(msg.ID, domain.SpeechStopped, nil)
	case msgSpeechError:
		h.finishSpeech(msg.ID, domain.SpeechError, fmt.Errorf("browser speech: %s", msg.Detail))
	default:
		h.logger.Debug("unknown websocket message", "type", msg.Type)
	}
}

func (h *Hub) activeListener(c *client) application.RecognitionListener {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c != h.voice {
		return nil
	}
	return h.listener
}

func (h *Hub) ackStart(c *client, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c != h.voice || h.startAck == nil {
		return
	}
	h.startAck <- err
	h.startAck = nil
}

func (h *Hub) finishSpeech(id string, outcome domain.SpeechOutcome, err error) {
	h.mu.Lock()
	done, ok := h.speech[id]
	delete(h.speech, id)
	h.mu.Unlock()
	if ok {
		done(outcome, err)
	}
}

// remove drops c. Losing the voice client fails its pending start, its
// recognition session and every utterance it was speaking.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	if c != h.voice {
		h.mu.Unlock()
		return
	}
	h.voice = nil
	listener := h.listener
	h.listener = nil
	if h.startAck != nil {
		h.startAck <- ErrNoVoiceClient
		h.startAck = nil
	}
	pending := h.speech
	h.speech = make(map[string]func(domain.SpeechOutcome, error))
	h.mu.Unlock()

	if listener != nil {
		listener.OnError(ErrNoVoiceClient)
	}
	for _, done := range pending {
		done(domain.SpeechError, ErrNoVoiceClient)
	}
}

func (h *Hub) enqueue(c *client, msg serverMessage) bool {
	select {
	case c.send <- msg:
		return true
	default:
		h.logger.Warn("websocket client queue full", "type", msg.Type)
		return false
	}
}

// Publish broadcasts ev to every connected client.
func (h *Hub) Publish(_ context.Context, ev domain.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.enqueue(c, serverMessage{Type: msgEvent, Event: &ev})
	}
	return nil
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) HasVoiceClient() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.voice != nil
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		c.conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

// Recognizer exposes the voice client as a recognition provider.
func (h *Hub) Recognizer() application.RecognitionProvider {
	return &browserRecognizer{hub: h}
}

// Synthesizer exposes the voice client's speech synthesis.
func (h *Hub) Synthesizer() application.SpeechSynthesizer {
	return &browserSynthesizer{hub: h}
}

type browserRecognizer struct {
	hub *Hub
}

func (b *browserRecognizer) Name() string          { return "browser" }
func (b *browserRecognizer) Source() domain.Source { return domain.SourceWeb }

func (b *browserRecognizer) SignalsFinality() bool {
	b.hub.mu.Lock()
	defer b.hub.mu.Unlock()
	return b.hub.voice != nil && b.hub.voice.finality
}

// Start asks the voice client to begin listening and waits for it to confirm
// or report why it cannot.
func (b *browserRecognizer) Start(ctx context.Context, opts application.RecognitionOptions, l application.RecognitionListener) error {
	h := b.hub
	ack := make(chan error, 1)

	h.mu.Lock()
	voice := h.voice
	if voice == nil {
		h.mu.Unlock()
		return fmt.Errorf("%w: %w", domain.ErrUnsupportedPlatform, ErrNoVoiceClient)
	}
	h.startAck = ack
	h.listener = l
	h.enqueue(voice, serverMessage{Type: msgListen, Language: opts.Language, Continuous: opts.Continuous})
	h.mu.Unlock()

	var err error
	select {
	case err = <-ack:
	case <-time.After(h.ackTimeout):
		err = errors.New("voice client did not confirm listening")
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		h.mu.Lock()
		if h.listener == l {
			h.listener = nil
		}
		if h.startAck == ack {
			h.startAck = nil
		}
		h.mu.Unlock()
	}
	return err
}

func (b *browserRecognizer) Stop() error {
	h := b.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listener = nil
	h.startAck = nil
	if h.voice != nil {
		h.enqueue(h.voice, serverMessage{Type: msgStopListening})
	}
	return nil
}

type browserSynthesizer struct {
	hub *Hub
}

func (b *browserSynthesizer) Speak(_ context.Context, u application.Utterance, done func(domain.SpeechOutcome, error)) error {
	h := b.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.voice == nil {
		return ErrNoVoiceClient
	}
	h.speech[u.ID] = done
	if !h.enqueue(h.voice, serverMessage{Type: msgSpeak, ID: u.ID, Text: u.Text, Language: u.Language}) {
		delete(h.speech, u.ID)
		return errors.New("voice client queue full")
	}
	return nil
}

// Cancel asks the voice client to stop talking; it answers with
// speech_stopped for the interrupted utterance.
func (b *browserSynthesizer) Cancel() error {
	h := b.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.voice != nil {
		h.enqueue(h.voice, serverMessage{Type: msgCancelSpeech})
	}
	return nil
}
