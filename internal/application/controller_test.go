package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicecalc/internal/application"
	"voicecalc/internal/domain"
	"voicecalc/internal/evaluate"
	"voicecalc/internal/matcher"
	"voicecalc/internal/normalize"
)

type mockRecognizer struct {
	mu        sync.Mutex
	source    domain.Source
	finality  bool
	startErr  error
	starts    int
	stops     int
	listeners []application.RecognitionListener
	opts      application.RecognitionOptions
}

func (m *mockRecognizer) Name() string          { return "mock" }
func (m *mockRecognizer) Source() domain.Source { return m.source }
func (m *mockRecognizer) SignalsFinality() bool { return m.finality }

func (m *mockRecognizer) Start(_ context.Context, opts application.RecognitionOptions, l application.RecognitionListener) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.starts++
	m.opts = opts
	m.listeners = append(m.listeners, l)
	return nil
}

func (m *mockRecognizer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return nil
}

func (m *mockRecognizer) listener() application.RecognitionListener {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listeners[len(m.listeners)-1]
}

func (m *mockRecognizer) counts() (starts, stops int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts, m.stops
}

type mockSynth struct {
	mu         sync.Mutex
	utterances []application.Utterance
	pending    func(domain.SpeechOutcome, error)
	cancels    int
}

func (m *mockSynth) Speak(_ context.Context, u application.Utterance, done func(domain.SpeechOutcome, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.utterances = append(m.utterances, u)
	m.pending = done
	return nil
}

func (m *mockSynth) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels++
	return nil
}

// finish completes the last utterance the way a platform callback would.
func (m *mockSynth) finish(outcome domain.SpeechOutcome, err error) {
	m.mu.Lock()
	done := m.pending
	m.mu.Unlock()
	done(outcome, err)
}

func (m *mockSynth) spoken() []application.Utterance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]application.Utterance(nil), m.utterances...)
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *recordingSink) Publish(_ context.Context, ev domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) ofKind(kind domain.EventKind) []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Event
	for _, ev := range s.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

type harness struct {
	ctrl  *application.Controller
	rec   *mockRecognizer
	synth *mockSynth
	sink  *recordingSink
	stop  func()
}

func newHarness(t *testing.T, cfg application.Config, rec *mockRecognizer) *harness {
	t.Helper()
	if rec == nil {
		rec = &mockRecognizer{source: domain.SourceNative, finality: true}
	}
	return newHarnessWith(t, cfg, rec, rec)
}

// newHarnessWith drives the controller through provider while rec records
// what reached the mock underneath it.
func newHarnessWith(t *testing.T, cfg application.Config, provider application.RecognitionProvider, rec *mockRecognizer) *harness {
	t.Helper()
	h := &harness{rec: rec, synth: &mockSynth{}, sink: &recordingSink{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h.ctrl = application.NewController(
		provider,
		h.synth,
		normalize.NewPipeline(matcher.NewCache()),
		evaluate.New(),
		h.sink,
		logger,
		cfg,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.ctrl.Run(ctx)
	}()
	h.stop = func() {
		cancel()
		<-done
	}
	t.Cleanup(h.stop)
	return h
}

func (h *harness) snapshot(t *testing.T) application.VoiceSession {
	t.Helper()
	s, err := h.ctrl.Snapshot(context.Background())
	require.NoError(t, err)
	return s
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	require.NoError(t, h.ctrl.Start(context.Background()))
}

func (h *harness) waitState(t *testing.T, want domain.SessionState) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return h.snapshot(t).State == want
	}, time.Second, 5*time.Millisecond, "state never reached %s", want)
}

func continuous() application.Config {
	return application.Config{Language: "en", Continuous: true}
}

func TestController_SpeaksResultAndReturnsToListening(t *testing.T) {
	h := newHarness(t, continuous(), nil)
	h.start(t)

	h.rec.listener().OnFinal("twenty plus five")

	s := h.snapshot(t)
	assert.Equal(t, domain.SessionStateSpeaking, s.State)
	assert.True(t, s.IsSpeaking)
	assert.Equal(t, "25", s.LastResult)
	assert.Equal(t, "25", s.LastSpoken)

	results := h.sink.ofKind(domain.EventKindResult)
	require.Len(t, results, 1)
	assert.Equal(t, "20 + 5", results[0].Equation)
	assert.Equal(t, domain.SourceTypeSpeech, results[0].SourceType)
	assert.NotEmpty(t, results[0].ID)

	utterances := h.synth.spoken()
	require.Len(t, utterances, 1)
	assert.Equal(t, "25", utterances[0].Text)
	assert.Equal(t, "en", utterances[0].Language)

	h.synth.finish(domain.SpeechDone, nil)
	h.waitState(t, domain.SessionStateListening)

	s = h.snapshot(t)
	assert.False(t, s.IsSpeaking)
	assert.Empty(t, s.LastProcessedTranscript)
	assert.Equal(t, "25", s.LastResult)
}

func TestController_AppliesLeadingOperatorToLastResult(t *testing.T) {
	h := newHarness(t, continuous(), nil)
	h.start(t)

	h.rec.listener().OnFinal("five plus five")
	assert.Equal(t, "10", h.snapshot(t).LastResult)
	h.synth.finish(domain.SpeechDone, nil)
	h.waitState(t, domain.SessionStateListening)

	h.rec.listener().OnFinal("plus 5")

	s := h.snapshot(t)
	assert.Equal(t, "15", s.LastResult)
	results := h.sink.ofKind(domain.EventKindResult)
	require.Len(t, results, 2)
	assert.Equal(t, "10 + 5", results[1].Equation)
}

func TestController_DropsFinalsWhileSpeaking(t *testing.T) {
	h := newHarness(t, continuous(), nil)
	h.start(t)

	h.rec.listener().OnFinal("two plus two")
	h.rec.listener().OnFinal("twenty five")
	h.rec.listener().OnInterim("twenty")

	s := h.snapshot(t)
	assert.Equal(t, "4", s.LastResult)
	assert.Empty(t, s.Interim)
	assert.Len(t, h.sink.ofKind(domain.EventKindResult), 1)
	assert.Empty(t, h.sink.ofKind(domain.EventKindError))
}

func TestController_DropsDuplicateWebFinal(t *testing.T) {
	rec := &mockRecognizer{source: domain.SourceWeb, finality: true}
	cfg := continuous()
	cfg.Muted = true
	h := newHarness(t, cfg, rec)
	h.start(t)

	h.rec.listener().OnFinal("two plus two")
	h.rec.listener().OnFinal(" two plus two ")
	h.snapshot(t)

	assert.Len(t, h.sink.ofKind(domain.EventKindResult), 1)
}

func TestController_NativeRepeatIsEvaluatedAgain(t *testing.T) {
	cfg := continuous()
	cfg.Muted = true
	h := newHarness(t, cfg, nil)
	h.start(t)

	h.rec.listener().OnFinal("two plus two")
	h.rec.listener().OnFinal("two plus two")
	h.snapshot(t)

	assert.Len(t, h.sink.ofKind(domain.EventKindResult), 2)
	assert.Empty(t, h.synth.spoken())
}

func TestController_DoesNotRepeatLastSpokenValue(t *testing.T) {
	h := newHarness(t, continuous(), nil)
	h.start(t)

	h.rec.listener().OnFinal("two plus two")
	h.snapshot(t)
	h.synth.finish(domain.SpeechDone, nil)
	h.waitState(t, domain.SessionStateListening)

	h.rec.listener().OnFinal("three plus one")

	s := h.snapshot(t)
	assert.Equal(t, domain.SessionStateListening, s.State)
	assert.Len(t, h.synth.spoken(), 1)
	assert.Len(t, h.sink.ofKind(domain.EventKindResult), 2)
}

func TestController_EvaluationErrorEmitsEvent(t *testing.T) {
	h := newHarness(t, continuous(), nil)
	h.start(t)

	h.rec.listener().OnFinal("five plus")

	s := h.snapshot(t)
	assert.Equal(t, domain.SessionStateListening, s.State)
	assert.Empty(t, s.LastResult)

	errs := h.sink.ofKind(domain.EventKindError)
	require.Len(t, errs, 1)
	assert.Equal(t, domain.MathError, errs[0].Result)
	require.NotNil(t, errs[0].Error)
	assert.Equal(t, domain.ErrorKindIncompleteExpression, errs[0].Error.Kind)
	assert.Empty(t, h.synth.spoken())
}

func TestController_StartFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.ErrorKind
	}{
		{"permission", domain.ErrPermissionDenied, domain.ErrorKindPermissionDenied},
		{"unsupported", domain.ErrUnsupportedPlatform, domain.ErrorKindUnsupportedPlatform},
		{"other", errors.New("device busy"), domain.ErrorKindRecognitionFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &mockRecognizer{source: domain.SourceNative, finality: true, startErr: tt.err}
			h := newHarness(t, continuous(), rec)

			err := h.ctrl.Start(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)

			assert.Equal(t, domain.SessionStateIdle, h.snapshot(t).State)
			errs := h.sink.ofKind(domain.EventKindError)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.want, errs[0].Error.Kind)
		})
	}
}

func TestController_StartIsIdempotent(t *testing.T) {
	h := newHarness(t, continuous(), nil)
	h.start(t)
	h.start(t)

	starts, _ := h.rec.counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, "en", h.rec.opts.Language)
	assert.True(t, h.rec.opts.Continuous)
}

func TestController_StopReleasesOnce(t *testing.T) {
	h := newHarness(t, continuous(), nil)
	h.start(t)
	h.rec.listener().OnInterim("two plus")

	require.NoError(t, h.ctrl.Stop(context.Background()))
	require.NoError(t, h.ctrl.Stop(context.Background()))

	_, stops := h.rec.counts()
	assert.Equal(t, 1, stops)

	s := h.snapshot(t)
	assert.Equal(t, domain.SessionStateIdle, s.State)
	assert.Empty(t, s.Interim)
	assert.Empty(t, s.LastProcessedTranscript)
}

func TestController_StopWhileSpeakingCancelsAndIgnoresLateCompletion(t *testing.T) {
	h := newHarness(t, continuous(), nil)
	h.start(t)
	h.rec.listener().OnFinal("two plus two")
	require.True(t, h.snapshot(t).IsSpeaking)

	require.NoError(t, h.ctrl.Stop(context.Background()))
	h.synth.finish(domain.SpeechError, errors.New("interrupted"))

	s := h.snapshot(t)
	assert.Equal(t, domain.SessionStateIdle, s.State)
	assert.False(t, s.IsSpeaking)
	assert.Empty(t, s.LastSpoken)
	assert.Equal(t, "4", s.LastResult)

	h.synth.mu.Lock()
	assert.Equal(t, 1, h.synth.cancels)
	h.synth.mu.Unlock()
	assert.Empty(t, h.sink.ofKind(domain.EventKindError))
}

func TestController_IgnoresReleasedListener(t *testing.T) {
	cfg := continuous()
	cfg.Muted = true
	h := newHarness(t, cfg, nil)
	h.start(t)
	old := h.rec.listener()

	require.NoError(t, h.ctrl.Stop(context.Background()))
	h.start(t)

	old.OnFinal("one plus one")
	old.OnError(errors.New("late failure"))

	s := h.snapshot(t)
	assert.Equal(t, domain.SessionStateListening, s.State)
	assert.Empty(t, s.LastResult)
	assert.Empty(t, h.sink.ofKind(domain.EventKindResult))
	assert.Empty(t, h.sink.ofKind(domain.EventKindError))
}

func TestController_RecognitionErrorReturnsToIdle(t *testing.T) {
	h := newHarness(t, continuous(), nil)
	h.start(t)

	h.rec.listener().OnError(errors.New("network lost"))

	assert.Equal(t, domain.SessionStateIdle, h.snapshot(t).State)
	_, stops := h.rec.counts()
	assert.Equal(t, 1, stops)

	errs := h.sink.ofKind(domain.EventKindError)
	require.Len(t, errs, 1)
	assert.Equal(t, domain.ErrorKindRecognitionFailure, errs[0].Error.Kind)
}

func TestController_SingleShotStopsAfterSpeech(t *testing.T) {
	h := newHarness(t, application.Config{Language: "en"}, nil)
	h.start(t)

	h.rec.listener().OnFinal("six times seven")
	assert.Equal(t, domain.SessionStateSpeaking, h.snapshot(t).State)

	h.synth.finish(domain.SpeechDone, nil)
	h.waitState(t, domain.SessionStateIdle)

	_, stops := h.rec.counts()
	assert.Equal(t, 1, stops)
	assert.Equal(t, "42", h.snapshot(t).LastResult)
}

func TestController_SingleShotStopsAfterError(t *testing.T) {
	h := newHarness(t, application.Config{Language: "en"}, nil)
	h.start(t)

	h.rec.listener().OnFinal("three")

	assert.Equal(t, domain.SessionStateIdle, h.snapshot(t).State)
	errs := h.sink.ofKind(domain.EventKindError)
	require.Len(t, errs, 1)
	assert.Equal(t, domain.ErrorKindAmbiguousVoiceNumber, errs[0].Error.Kind)
}

func TestController_SpeechFailureEmitsError(t *testing.T) {
	h := newHarness(t, continuous(), nil)
	h.start(t)
	h.rec.listener().OnFinal("two plus two")
	h.snapshot(t)

	h.synth.finish(domain.SpeechError, errors.New("no voice"))
	h.waitState(t, domain.SessionStateListening)

	errs := h.sink.ofKind(domain.EventKindError)
	require.Len(t, errs, 1)
	assert.Equal(t, domain.ErrorKindSpeechFailure, errs[0].Error.Kind)
}

func TestController_PollPromotesStableInterim(t *testing.T) {
	rec := &mockRecognizer{source: domain.SourceWeb, finality: false}
	cfg := continuous()
	cfg.Muted = true
	cfg.PollInterval = 10 * time.Millisecond
	h := newHarness(t, cfg, rec)
	h.start(t)

	h.rec.listener().OnInterim("two plus three")

	assert.Eventually(t, func() bool {
		return len(h.sink.ofKind(domain.EventKindResult)) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	results := h.sink.ofKind(domain.EventKindResult)
	require.Len(t, results, 1)
	assert.Equal(t, "5", results[0].Result)
	assert.Empty(t, h.snapshot(t).Interim)
}

func TestController_EmitsPartials(t *testing.T) {
	cfg := continuous()
	cfg.InterimThrottle = 5 * time.Millisecond
	h := newHarness(t, cfg, nil)
	h.start(t)

	h.rec.listener().OnInterim("twenty")
	h.rec.listener().OnInterim("twenty plus")

	assert.Eventually(t, func() bool {
		partials := h.sink.ofKind(domain.EventKindPartial)
		return len(partials) > 0 && partials[len(partials)-1].Transcript == "twenty plus"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "twenty plus", h.snapshot(t).Interim)
}

func TestController_InjectedFinalWhileIdle(t *testing.T) {
	h := newHarness(t, continuous(), nil)

	require.NoError(t, h.ctrl.ProcessFinalTranscript(context.Background(), "two plus two", domain.SourceNative))

	s := h.snapshot(t)
	assert.Equal(t, domain.SessionStateIdle, s.State)
	assert.Equal(t, "4", s.LastResult)
	assert.Empty(t, h.synth.spoken())
}

func TestController_CalculateKeypad(t *testing.T) {
	h := newHarness(t, continuous(), nil)
	h.start(t)

	res, err := h.ctrl.Calculate(context.Background(), "6 × 7")
	require.NoError(t, err)
	assert.Equal(t, "42", res.Value)

	res, err = h.ctrl.Calculate(context.Background(), "+ 8")
	require.NoError(t, err)
	assert.Equal(t, "50", res.Value)

	res, err = h.ctrl.Calculate(context.Background(), "1 / 0")
	require.NoError(t, err)
	assert.Equal(t, domain.MathError, res.Value)

	results := h.sink.ofKind(domain.EventKindResult)
	require.Len(t, results, 2)
	for _, ev := range results {
		assert.Equal(t, domain.SourceTypeKeypad, ev.SourceType)
	}
	assert.Empty(t, h.synth.spoken())
	assert.Equal(t, domain.SessionStateListening, h.snapshot(t).State)
}

func TestController_PreviewDebouncesBurst(t *testing.T) {
	cfg := continuous()
	cfg.PreviewDebounce = 20 * time.Millisecond
	h := newHarness(t, cfg, nil)

	for _, input := range []string{"1", "1 +", "1 + 2", "1 + 2 *", "1 + 2 * 3"} {
		h.ctrl.Preview(input)
	}

	assert.Eventually(t, func() bool {
		return len(h.sink.ofKind(domain.EventKindPreview)) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	previews := h.sink.ofKind(domain.EventKindPreview)
	require.Len(t, previews, 1)
	assert.Equal(t, "7", previews[0].Result)
	assert.Equal(t, "1 + 2 * 3", previews[0].Transcript)
	assert.Empty(t, h.snapshot(t).LastResult)
}

func TestController_SpokenTextFollowsLanguage(t *testing.T) {
	h := newHarness(t, application.Config{Language: "de", Continuous: true}, nil)
	h.start(t)

	h.rec.listener().OnFinal("zweitausend plus fünfhundert")
	h.snapshot(t)

	utterances := h.synth.spoken()
	require.Len(t, utterances, 1)
	assert.Equal(t, "2.500", utterances[0].Text)
	assert.Equal(t, "2500", h.snapshot(t).LastResult)
}

func TestController_StateEvents(t *testing.T) {
	h := newHarness(t, continuous(), nil)
	h.start(t)
	require.NoError(t, h.ctrl.Stop(context.Background()))
	h.snapshot(t)

	var states []domain.SessionState
	for _, ev := range h.sink.ofKind(domain.EventKindState) {
		states = append(states, ev.State)
	}
	assert.Equal(t, []domain.SessionState{domain.SessionStateListening, domain.SessionStateIdle}, states)
}

func TestController_StoppedLoop(t *testing.T) {
	h := newHarness(t, continuous(), nil)
	h.stop()

	_, err := h.ctrl.Snapshot(context.Background())
	assert.ErrorIs(t, err, application.ErrControllerStopped)
	assert.ErrorIs(t, h.ctrl.Start(context.Background()), application.ErrControllerStopped)
}

func TestController_NegativeLastResultKeepsSign(t *testing.T) {
	h := newHarness(t, continuous(), nil)
	h.start(t)

	res, err := h.ctrl.Calculate(context.Background(), "0 - 3")
	require.NoError(t, err)
	require.Equal(t, "-3", res.Value)

	res, err = h.ctrl.Calculate(context.Background(), "^ 2")
	require.NoError(t, err)
	assert.Equal(t, "9", res.Value)

	_, err = h.ctrl.Calculate(context.Background(), "0 - 3")
	require.NoError(t, err)
	h.rec.listener().OnFinal("to the power of 2")

	results := h.sink.ofKind(domain.EventKindResult)
	require.Len(t, results, 4)
	assert.Equal(t, "(-3) ^ 2", results[3].Equation)
	assert.Equal(t, "9", results[3].Result)
}

func TestController_SetLanguageRejectsUnsupported(t *testing.T) {
	h := newHarness(t, continuous(), nil)

	err := h.ctrl.SetLanguage(context.Background(), "tlh")
	assert.ErrorIs(t, err, application.ErrUnsupportedLanguage)
	assert.Equal(t, "en", h.snapshot(t).Language)

	require.NoError(t, h.ctrl.SetLanguage(context.Background(), "es-MX"))
	assert.Equal(t, "es-MX", h.snapshot(t).Language)
}

// blockingRecognizer holds Start until the test releases it or the start
// context ends.
type blockingRecognizer struct {
	*mockRecognizer
	entered chan struct{}
	proceed chan error
}

func newBlockingRecognizer() *blockingRecognizer {
	return &blockingRecognizer{
		mockRecognizer: &mockRecognizer{source: domain.SourceWeb, finality: true},
		entered:        make(chan struct{}, 1),
		proceed:        make(chan error, 1),
	}
}

func (b *blockingRecognizer) Start(ctx context.Context, opts application.RecognitionOptions, l application.RecognitionListener) error {
	b.entered <- struct{}{}
	select {
	case err := <-b.proceed:
		if err != nil {
			return err
		}
		return b.mockRecognizer.Start(ctx, opts, l)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestController_PendingStartDoesNotBlockLoop(t *testing.T) {
	rec := newBlockingRecognizer()
	h := newHarnessWith(t, continuous(), rec, rec.mockRecognizer)

	startErr := make(chan error, 1)
	go func() { startErr <- h.ctrl.Start(context.Background()) }()
	<-rec.entered

	quick, cancelQuick := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancelQuick()
	s, err := h.ctrl.Snapshot(quick)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStateIdle, s.State)

	require.NoError(t, h.ctrl.Stop(quick))
	assert.ErrorIs(t, <-startErr, application.ErrStartInterrupted)

	assert.Eventually(t, func() bool {
		_, stops := rec.counts()
		return stops == 1
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, h.sink.ofKind(domain.EventKindError))

	go func() { startErr <- h.ctrl.Start(context.Background()) }()
	<-rec.entered
	rec.proceed <- nil
	require.NoError(t, <-startErr)
	assert.Equal(t, domain.SessionStateListening, h.snapshot(t).State)
}
