package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"

	"voicecalc/internal/domain"
	"voicecalc/internal/evaluate"
	"voicecalc/internal/lexicon"
	"voicecalc/internal/matcher"
)

var (
	ErrControllerStopped   = errors.New("voice session controller stopped")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrStartInterrupted is returned by Start when the session is stopped
	// before recognition confirmed it was listening.
	ErrStartInterrupted = errors.New("session stopped while starting")
)

// Normalizer turns a transcript into a canonical expression.
type Normalizer interface {
	Normalize(transcript, language string) (string, error)
}

// Evaluator evaluates canonical expressions.
type Evaluator interface {
	Evaluate(expr string, src domain.SourceType, language string) evaluate.Result
}

type Config struct {
	Language   string
	Continuous bool
	Muted      bool
	// PollInterval drives final detection in continuous mode for providers
	// that do not signal finality.
	PollInterval time.Duration
	// InterimThrottle bounds how often partial transcripts reach the sinks.
	InterimThrottle time.Duration
	PreviewDebounce time.Duration
}

func (c *Config) setDefaults() {
	if c.Language == "" {
		c.Language = "en"
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.InterimThrottle <= 0 {
		c.InterimThrottle = 16 * time.Millisecond
	}
	if c.PreviewDebounce <= 0 {
		c.PreviewDebounce = 300 * time.Millisecond
	}
}

// Controller is the voice session state machine. All state is owned by the
// goroutine running Run; every input, including recognition and speech
// callbacks, arrives as a message on the inbox.
type Controller struct {
	recognizer RecognitionProvider
	synth      SpeechSynthesizer
	normalizer Normalizer
	evaluator  Evaluator
	sink       EventSink
	metrics    Metrics
	spoken     *SpokenFormatter
	logger     *slog.Logger
	cfg        Config

	inbox chan message
	done  chan struct{}

	// Loop-owned state below.
	runCtx  context.Context
	session VoiceSession

	// generation identifies the current recognition session; listeners of
	// released sessions carry an older value.
	generation        uint64
	recognitionActive bool

	// recognitionCancel ends the context handed to the recognizer's Start,
	// which a provider may keep for the whole session.
	recognitionCancel context.CancelFunc

	// A recognizer Start runs off the loop. startGen is the generation it was
	// launched for, zero when none is in flight. restart records a Start that
	// arrived while an abandoned one was still returning.
	startGen     uint64
	startWaiters []chan error
	restart      bool

	// speechSeq identifies the utterance currently being spoken.
	speechSeq uint64

	poll       *time.Ticker
	pollC      <-chan time.Time
	lastPolled string

	lastInterimEmit time.Time
	emittedInterim  string
	throttle        *time.Timer

	previewFn      func(func())
	previewMu      sync.Mutex
	previewPending *string
}

type Option func(*Controller)

func WithMetrics(m Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func WithSpokenFormatter(f *SpokenFormatter) Option {
	return func(c *Controller) { c.spoken = f }
}

func NewController(
	recognizer RecognitionProvider,
	synth SpeechSynthesizer,
	normalizer Normalizer,
	evaluator Evaluator,
	sink EventSink,
	logger *slog.Logger,
	cfg Config,
	opts ...Option,
) *Controller {
	cfg.setDefaults()
	c := &Controller{
		recognizer: recognizer,
		synth:      synth,
		normalizer: normalizer,
		evaluator:  evaluator,
		sink:       sink,
		metrics:    NoopMetrics{},
		spoken:     NewSpokenFormatter(),
		logger:     logger,
		cfg:        cfg,
		inbox:      make(chan message, 64),
		done:       make(chan struct{}),
		session: VoiceSession{
			State:      domain.SessionStateIdle,
			Continuous: cfg.Continuous,
			Muted:      cfg.Muted,
			Language:   cfg.Language,
		},
		previewFn: debounce.New(cfg.PreviewDebounce),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type message any

type (
	startMsg struct {
		reply chan error
	}
	startedMsg struct {
		gen uint64
		err error
	}
	stopMsg struct {
		reply chan struct{}
	}
	interimMsg struct {
		gen  uint64
		text string
	}
	finalMsg struct {
		gen    uint64
		text   string
		source domain.Source
	}
	recognitionErrMsg struct {
		gen uint64
		err error
	}
	speechEndMsg struct {
		seq     uint64
		outcome domain.SpeechOutcome
		err     error
	}
	flushInterimMsg struct{}
	calculateMsg    struct {
		input string
		reply chan evaluate.Result
	}
	previewMsg  struct{}
	snapshotMsg struct {
		reply chan VoiceSession
	}
	setLanguageMsg   struct{ code string }
	setMutedMsg      struct{ muted bool }
	setContinuousMsg struct{ continuous bool }
)

// Run owns the session until ctx is cancelled. Recognition and speech are
// released on the way out.
func (c *Controller) Run(ctx context.Context) error {
	c.runCtx = ctx
	defer close(c.done)
	defer c.release()

	c.logger.Info("voice session ready",
		"recognizer", c.recognizer.Name(),
		"language", c.session.Language,
		"continuous", c.session.Continuous,
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-c.inbox:
			c.handle(msg)
		case <-c.pollC:
			c.handlePoll()
		}
	}
}

func (c *Controller) handle(msg message) {
	switch m := msg.(type) {
	case startMsg:
		c.handleStart(m.reply)
	case startedMsg:
		c.handleStarted(m)
	case stopMsg:
		c.release()
		close(m.reply)
	case interimMsg:
		c.handleInterim(m)
	case finalMsg:
		if m.gen != 0 && m.gen != c.generation {
			return
		}
		c.handleFinal(m.text, m.source)
	case recognitionErrMsg:
		c.handleRecognitionError(m)
	case speechEndMsg:
		c.handleSpeechEnd(m)
	case flushInterimMsg:
		c.throttle = nil
		c.emitInterim()
	case calculateMsg:
		m.reply <- c.handleCalculate(m.input)
	case previewMsg:
		c.handlePreview()
	case snapshotMsg:
		m.reply <- c.session
	case setLanguageMsg:
		c.session.Language = m.code
		c.logger.Info("language changed", "language", m.code)
	case setMutedMsg:
		c.session.Muted = m.muted
	case setContinuousMsg:
		c.session.Continuous = m.continuous
		c.syncPoll()
	default:
		c.logger.Warn("unknown controller message", "type", fmt.Sprintf("%T", msg))
	}
}

// send delivers msg to the loop on behalf of an API caller.
func (c *Controller) send(ctx context.Context, msg message) error {
	select {
	case <-c.done:
		return ErrControllerStopped
	default:
	}
	select {
	case c.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrControllerStopped
	}
}

// post delivers a callback message. Callbacks may run on the loop goroutine
// itself (a synthesizer that completes synchronously), so a full inbox is
// handed to a goroutine instead of blocking.
func (c *Controller) post(msg message) {
	select {
	case c.inbox <- msg:
	case <-c.done:
	default:
		go func() {
			select {
			case c.inbox <- msg:
			case <-c.done:
			}
		}()
	}
}

// Start acquires recognition and moves Idle to Listening. Starting an active
// session is a no-op.
func (c *Controller) Start(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := c.send(ctx, startMsg{reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrControllerStopped
	}
}

// Stop releases recognition, timers and speech and returns to Idle from any
// state.
func (c *Controller) Stop(ctx context.Context) error {
	reply := make(chan struct{})
	if err := c.send(ctx, stopMsg{reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrControllerStopped
	}
}

// ProcessFinalTranscript injects a final transcript as if the recognizer had
// produced it.
func (c *Controller) ProcessFinalTranscript(ctx context.Context, text string, source domain.Source) error {
	return c.send(ctx, finalMsg{text: text, source: source})
}

// Calculate evaluates keypad input. It never triggers speech.
func (c *Controller) Calculate(ctx context.Context, input string) (evaluate.Result, error) {
	reply := make(chan evaluate.Result, 1)
	if err := c.send(ctx, calculateMsg{input: input, reply: reply}); err != nil {
		return evaluate.Result{}, err
	}
	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return evaluate.Result{}, ctx.Err()
	case <-c.done:
		return evaluate.Result{}, ErrControllerStopped
	}
}

// Preview schedules a live evaluation of keypad input. Each call supersedes
// the pending one; only the last input of a burst is evaluated.
func (c *Controller) Preview(input string) {
	c.previewMu.Lock()
	c.previewPending = &input
	c.previewMu.Unlock()
	c.previewFn(func() { c.post(previewMsg{}) })
}

func (c *Controller) Snapshot(ctx context.Context) (VoiceSession, error) {
	reply := make(chan VoiceSession, 1)
	if err := c.send(ctx, snapshotMsg{reply: reply}); err != nil {
		return VoiceSession{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return VoiceSession{}, ctx.Err()
	case <-c.done:
		return VoiceSession{}, ErrControllerStopped
	}
}

// SetLanguage switches the session language. Only codes with their own
// pattern table are accepted.
func (c *Controller) SetLanguage(ctx context.Context, code string) error {
	if !lexicon.IsSupported(code) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	return c.send(ctx, setLanguageMsg{code: code})
}

func (c *Controller) SetMuted(ctx context.Context, muted bool) error {
	return c.send(ctx, setMutedMsg{muted: muted})
}

func (c *Controller) SetContinuous(ctx context.Context, continuous bool) error {
	return c.send(ctx, setContinuousMsg{continuous: continuous})
}

// listener forwards the events of one recognition session to the loop.
type listener struct {
	c      *Controller
	gen    uint64
	source domain.Source
}

func (l *listener) OnInterim(text string) {
	l.c.post(interimMsg{gen: l.gen, text: text})
}

func (l *listener) OnFinal(text string) {
	l.c.post(finalMsg{gen: l.gen, text: text, source: l.source})
}

func (l *listener) OnError(err error) {
	l.c.post(recognitionErrMsg{gen: l.gen, err: err})
}

func (c *Controller) handleStart(reply chan error) {
	if c.session.State != domain.SessionStateIdle {
		reply <- nil
		return
	}
	c.startWaiters = append(c.startWaiters, reply)
	switch {
	case c.startGen == 0:
		c.launchStart()
	case c.startGen != c.generation:
		c.restart = true
	}
}

// launchStart asks the recognizer to start without blocking the loop; the
// outcome comes back as a startedMsg.
func (c *Controller) launchStart() {
	c.generation++
	gen := c.generation
	c.startGen = gen
	ctx, cancel := context.WithCancel(c.runCtx)
	c.recognitionCancel = cancel

	l := &listener{c: c, gen: gen, source: c.recognizer.Source()}
	opts := RecognitionOptions{
		Language:       c.session.Language,
		Continuous:     c.session.Continuous,
		InterimResults: true,
	}
	go func() {
		err := c.recognizer.Start(ctx, opts, l)
		c.post(startedMsg{gen: gen, err: err})
	}()
}

func (c *Controller) handleStarted(m startedMsg) {
	if m.gen != c.startGen {
		return
	}
	c.startGen = 0

	if m.gen != c.generation {
		// Stopped while starting; the provider may have begun listening anyway.
		if err := c.recognizer.Stop(); err != nil {
			c.logger.Warn("stopping abandoned recognition", "recognizer", c.recognizer.Name(), "error", err)
		}
		if c.restart {
			c.restart = false
			c.launchStart()
		}
		return
	}

	if m.err != nil {
		c.generation++
		c.cancelRecognition()
		kind := recognitionErrorKind(m.err)
		c.logger.Warn("starting recognition", "recognizer", c.recognizer.Name(), "kind", kind, "error", m.err)
		c.emitError(kind, m.err.Error(), "", "", domain.SourceTypeSpeech)
		c.replyStart(fmt.Errorf("starting recognition: %w", m.err))
		return
	}

	c.recognitionActive = true
	c.session.clearTranscripts()
	c.transition(domain.SessionStateListening)
	c.syncPoll()
	c.replyStart(nil)
}

func (c *Controller) cancelRecognition() {
	if c.recognitionCancel != nil {
		c.recognitionCancel()
		c.recognitionCancel = nil
	}
}

func (c *Controller) replyStart(err error) {
	for _, w := range c.startWaiters {
		w <- err
	}
	c.startWaiters = nil
}

func recognitionErrorKind(err error) domain.ErrorKind {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return domain.ErrorKindPermissionDenied
	case errors.Is(err, domain.ErrUnsupportedPlatform):
		return domain.ErrorKindUnsupportedPlatform
	default:
		return domain.ErrorKindRecognitionFailure
	}
}

// release is the single exit path from an active session. It is safe to call
// in any state and releases each resource at most once.
func (c *Controller) release() {
	if c.startGen != 0 {
		if c.startGen == c.generation {
			c.generation++
			c.cancelRecognition()
		}
		c.restart = false
		c.replyStart(ErrStartInterrupted)
	}
	if c.recognitionActive {
		c.recognitionActive = false
		c.generation++
		if err := c.recognizer.Stop(); err != nil {
			c.logger.Warn("stopping recognition", "recognizer", c.recognizer.Name(), "error", err)
		}
		c.cancelRecognition()
	}
	c.stopPoll()
	if c.throttle != nil {
		c.throttle.Stop()
		c.throttle = nil
	}
	if c.session.IsSpeaking {
		c.speechSeq++
		c.session.IsSpeaking = false
		// Cancel returns promptly; the interrupted utterance reports back
		// through its completion callback, which speechSeq now marks stale.
		if err := c.synth.Cancel(); err != nil {
			c.logger.Warn("cancelling speech", "error", err)
		}
	}
	c.session.clearTranscripts()
	c.session.LastSpoken = ""
	c.lastPolled = ""
	c.emittedInterim = ""
	c.transition(domain.SessionStateIdle)
}

func (c *Controller) transition(to domain.SessionState) {
	from := c.session.State
	if from == to {
		return
	}
	c.session.State = to
	c.metrics.ObserveTransition(from, to)
	c.logger.Debug("session state", "from", from, "to", to)
	c.emit(domain.Event{Kind: domain.EventKindState, State: to})
}

func (c *Controller) syncPoll() {
	want := c.recognitionActive && c.session.Continuous && !c.recognizer.SignalsFinality()
	switch {
	case want && c.poll == nil:
		c.poll = time.NewTicker(c.cfg.PollInterval)
		c.pollC = c.poll.C
		c.lastPolled = ""
	case !want && c.poll != nil:
		c.stopPoll()
	}
}

func (c *Controller) stopPoll() {
	if c.poll != nil {
		c.poll.Stop()
		c.poll = nil
		c.pollC = nil
	}
}

func (c *Controller) handleInterim(m interimMsg) {
	if m.gen != c.generation || c.session.State != domain.SessionStateListening {
		return
	}
	c.session.Interim = strings.TrimSpace(m.text)

	since := time.Since(c.lastInterimEmit)
	if since >= c.cfg.InterimThrottle {
		c.emitInterim()
		return
	}
	if c.throttle == nil {
		c.throttle = time.AfterFunc(c.cfg.InterimThrottle-since, func() {
			c.post(flushInterimMsg{})
		})
	}
}

func (c *Controller) emitInterim() {
	text := c.session.Interim
	if text == "" || text == c.emittedInterim {
		return
	}
	c.emittedInterim = text
	c.lastInterimEmit = time.Now()
	c.emit(domain.Event{
		Kind:       domain.EventKindPartial,
		Transcript: text,
		SourceType: domain.SourceTypeSpeech,
		Source:     c.recognizer.Source(),
	})
}

// handlePoll promotes an interim transcript that stayed the same over two
// consecutive ticks.
func (c *Controller) handlePoll() {
	if c.session.State != domain.SessionStateListening {
		c.lastPolled = ""
		return
	}
	text := c.session.Interim
	if text != "" && text == c.lastPolled {
		c.lastPolled = ""
		c.handleFinal(text, c.recognizer.Source())
		return
	}
	c.lastPolled = text
}

func (c *Controller) handleFinal(text string, source domain.Source) {
	if c.session.IsSpeaking {
		c.metrics.ObserveDroppedFinal("speaking")
		c.logger.Debug("dropping final while speaking", "text", text)
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if source == domain.SourceWeb && text == c.session.LastProcessedTranscript {
		c.metrics.ObserveDroppedFinal("duplicate")
		c.logger.Debug("dropping duplicate final", "text", text)
		return
	}

	c.session.LastProcessedTranscript = text
	c.session.Interim = ""
	c.emittedInterim = ""
	c.lastPolled = ""

	lang := c.session.Language
	expr, err := c.normalizer.Normalize(text, lang)
	if err != nil {
		c.logger.Error("normalizing transcript", "text", text, "error", err)
		c.emitError(domain.ErrorKindEvaluationFailure, err.Error(), text, "", domain.SourceTypeSpeech)
		c.finishUtterance()
		return
	}

	equation := c.applyToLastResult(expr)
	res := c.evaluateTimed(equation, domain.SourceTypeSpeech)
	c.logger.Info("evaluated transcript",
		"text", text,
		"equation", equation,
		"result", res.Value,
		"kind", res.Kind,
	)

	if !res.OK() {
		c.emitError(res.Kind, res.Detail, text, equation, domain.SourceTypeSpeech)
		c.finishUtterance()
		return
	}

	c.session.LastResult = res.Value
	c.emit(domain.Event{
		Kind:       domain.EventKindResult,
		Transcript: text,
		Equation:   equation,
		Result:     res.Value,
		SourceType: domain.SourceTypeSpeech,
		Source:     source,
	})

	if c.session.State == domain.SessionStateListening && !c.session.Muted && res.Value != c.session.LastSpoken {
		c.speak(res.Value)
		return
	}
	c.finishUtterance()
}

var leadingOperator = matcher.MustCompile(`^\s*[+\-*/^]`)

// applyToLastResult turns "+5" into "<last result> +5".
func (c *Controller) applyToLastResult(expr string) string {
	if c.session.LastResult == "" || !leadingOperator.Match(expr) {
		return expr
	}
	last := c.session.LastResult
	if strings.HasPrefix(last, "-") {
		last = "(" + last + ")"
	}
	return last + " " + expr
}

func (c *Controller) evaluateTimed(expr string, src domain.SourceType) evaluate.Result {
	start := time.Now()
	res := c.evaluator.Evaluate(expr, src, c.session.Language)
	c.metrics.ObserveEvaluation(src, res.Kind, time.Since(start))
	return res
}

// finishUtterance ends a single-shot session once its utterance is handled.
// Continuous sessions keep listening.
func (c *Controller) finishUtterance() {
	if !c.session.Continuous && c.session.State != domain.SessionStateIdle {
		c.release()
	}
}

func (c *Controller) speak(value string) {
	c.speechSeq++
	seq := c.speechSeq
	u := Utterance{
		ID:       uuid.NewString(),
		Text:     c.spoken.Format(value, c.session.Language),
		Language: c.session.Language,
	}

	c.session.IsSpeaking = true
	c.session.LastSpoken = value
	c.transition(domain.SessionStateSpeaking)

	err := c.synth.Speak(c.runCtx, u, func(outcome domain.SpeechOutcome, err error) {
		c.post(speechEndMsg{seq: seq, outcome: outcome, err: err})
	})
	if err != nil {
		c.logger.Error("starting speech", "error", err)
		c.handleSpeechEnd(speechEndMsg{seq: seq, outcome: domain.SpeechError, err: err})
	}
}

func (c *Controller) handleSpeechEnd(m speechEndMsg) {
	if m.seq != c.speechSeq || !c.session.IsSpeaking {
		c.logger.Debug("ignoring stale speech completion", "outcome", m.outcome)
		return
	}

	c.session.IsSpeaking = false
	c.session.clearTranscripts()
	c.emittedInterim = ""
	c.lastPolled = ""

	if m.outcome == domain.SpeechError {
		detail := "speech failed"
		if m.err != nil {
			detail = m.err.Error()
		}
		c.emitError(domain.ErrorKindSpeechFailure, detail, "", "", domain.SourceTypeSpeech)
	}

	c.transition(domain.SessionStateListening)
	c.finishUtterance()
}

func (c *Controller) handleRecognitionError(m recognitionErrMsg) {
	if m.gen != c.generation || !c.recognitionActive {
		return
	}
	kind := recognitionErrorKind(m.err)
	c.logger.Error("recognition failed", "recognizer", c.recognizer.Name(), "error", m.err)
	c.emitError(kind, m.err.Error(), "", "", domain.SourceTypeSpeech)
	c.release()
}

func (c *Controller) handleCalculate(input string) evaluate.Result {
	equation := c.applyToLastResult(strings.TrimSpace(input))
	res := c.evaluateTimed(equation, domain.SourceTypeKeypad)
	if !res.OK() {
		c.emitError(res.Kind, res.Detail, input, equation, domain.SourceTypeKeypad)
		return res
	}
	c.session.LastResult = res.Value
	c.emit(domain.Event{
		Kind:       domain.EventKindResult,
		Transcript: input,
		Equation:   equation,
		Result:     res.Value,
		SourceType: domain.SourceTypeKeypad,
	})
	return res
}

func (c *Controller) handlePreview() {
	c.previewMu.Lock()
	pending := c.previewPending
	c.previewPending = nil
	c.previewMu.Unlock()
	if pending == nil {
		return
	}
	input := *pending

	equation := c.applyToLastResult(strings.TrimSpace(input))
	res := c.evaluateTimed(equation, domain.SourceTypeKeypad)
	ev := domain.Event{
		Kind:       domain.EventKindPreview,
		Transcript: input,
		Equation:   equation,
		Result:     res.Value,
		SourceType: domain.SourceTypeKeypad,
	}
	if !res.OK() {
		ev.Error = &domain.ErrorDetail{Kind: res.Kind, Detail: res.Detail}
	}
	c.emit(ev)
}

func (c *Controller) emitError(kind domain.ErrorKind, detail, transcript, equation string, src domain.SourceType) {
	c.emit(domain.Event{
		Kind:       domain.EventKindError,
		Transcript: transcript,
		Equation:   equation,
		Result:     domain.MathError,
		SourceType: src,
		Error:      &domain.ErrorDetail{Kind: kind, Detail: detail},
	})
}

// emit stamps ev and hands it to the sink without waiting on delivery.
func (c *Controller) emit(ev domain.Event) {
	ev.ID = uuid.NewString()
	ev.Time = time.Now().UTC()
	ev.Language = c.session.Language
	if ev.State == "" {
		ev.State = c.session.State
	}
	if err := c.sink.Publish(c.runCtx, ev); err != nil {
		c.logger.Warn("publishing event", "kind", ev.Kind, "error", err)
	}
}
