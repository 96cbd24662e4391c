package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"voicecalc/config"
	"voicecalc/internal/application"
	"voicecalc/internal/domain"
	"voicecalc/internal/evaluate"
	"voicecalc/internal/infra/audio"
	"voicecalc/internal/infra/history"
	"voicecalc/internal/infra/metrics"
	"voicecalc/internal/infra/openai"
	"voicecalc/internal/infra/tts"
	"voicecalc/internal/infra/web"
	"voicecalc/internal/infra/webhook"
	"voicecalc/internal/matcher"
	"voicecalc/internal/normalize"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("voicecalc error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var collector *metrics.Collector
	var appMetrics application.Metrics = application.NoopMetrics{}
	var cacheOpts []matcher.CacheOption
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace)
		appMetrics = collector
		cacheOpts = append(cacheOpts, matcher.WithObserver(collector.ObserveCacheLookup))
	}

	cache := matcher.NewCache(cacheOpts...)
	if err := cache.Warm(); err != nil {
		return err
	}

	hub := web.NewHub(logger, cfg.Recognition.AckTimeout.Std(), cfg.HTTP.OriginPatterns)

	var upload *audio.UploadSource
	recognizer := createRecognizer(cfg, hub, logger, &upload)
	synth := createSynthesizer(cfg.TTS, hub, logger)

	g, ctx := errgroup.WithContext(ctx)

	sinks := application.MultiSink{hub}
	var serverOpts []web.Option

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path, cfg.History.MaxRows)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing history", "error", err)
			}
		}()
		async := application.NewAsyncSink("history", store, 256, logger, appMetrics)
		g.Go(func() error { return async.Run(ctx) })
		sinks = append(sinks, async)
		serverOpts = append(serverOpts, web.WithHistory(store))
	}

	if cfg.Webhook.URL != "" {
		kinds := make([]domain.EventKind, 0, len(cfg.Webhook.Events))
		for _, ev := range cfg.Webhook.Events {
			kinds = append(kinds, domain.EventKind(ev))
		}
		client := webhook.NewClient(cfg.Webhook.URL, cfg.Webhook.Token, kinds, cfg.Webhook.Timeout.Std())
		async := application.NewAsyncSink("webhook", client, cfg.Webhook.QueueSize, logger, appMetrics)
		g.Go(func() error { return async.Run(ctx) })
		sinks = append(sinks, async)
	}

	if collector != nil {
		serverOpts = append(serverOpts, web.WithInstrumentation(collector))
	}
	if upload != nil {
		serverOpts = append(serverOpts, web.WithUpload(upload))
		defer upload.Close()
	}

	controller := application.NewController(
		recognizer,
		synth,
		normalize.NewPipeline(cache),
		evaluate.New(),
		sinks,
		logger,
		application.Config{
			Language:        cfg.Session.Language,
			Continuous:      cfg.Session.Continuous,
			Muted:           cfg.Session.Muted,
			PollInterval:    cfg.Session.PollInterval.Std(),
			InterimThrottle: cfg.Session.InterimThrottle.Std(),
			PreviewDebounce: cfg.Session.PreviewDebounce.Std(),
		},
		application.WithMetrics(appMetrics),
	)

	server := web.NewServer(web.Config{
		Addr:      cfg.HTTP.Addr,
		AuthToken: cfg.HTTP.AuthToken,
		RateLimit: cfg.HTTP.RateLimit,
		RateBurst: cfg.HTTP.RateBurst,
	}, controller, hub, logger, serverOpts...)

	logger.Info("starting voice calculator",
		"language", cfg.Session.Language,
		"recognition", recognizer.Name(),
		"tts", cfg.TTS.Provider,
		"addr", cfg.HTTP.Addr,
	)

	g.Go(func() error { return controller.Run(ctx) })
	g.Go(func() error { return server.Run(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// createRecognizer picks the recognition provider. A native upload source is
// handed back through upload so the server can mount it.
func createRecognizer(cfg *config.Config, hub *web.Hub, logger *slog.Logger, upload **audio.UploadSource) application.RecognitionProvider {
	switch cfg.Recognition.Provider {
	case "browser":
		return hub.Recognizer()
	case "native":
		var stt application.SpeechToText = &application.NoopSTT{}
		if cfg.OpenAI.APIKey != "" {
			var opts []openai.Option
			if cfg.OpenAI.BaseURL != "" {
				opts = append(opts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
			}
			stt = openai.NewWhisperClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, opts...)
		} else {
			logger.Warn("no openai api key, native recognition will transcribe nothing")
		}
		return audio.NewRecognizer(createAudioSource(cfg.Audio, logger, upload), stt, logger)
	default:
		return application.UnavailableRecognizer{}
	}
}

func createAudioSource(cfg config.AudioConfig, logger *slog.Logger, upload **audio.UploadSource) application.AudioSource {
	switch cfg.Source {
	case "file":
		return audio.NewFileSource(cfg.FileDir, cfg.PollInterval.Std())
	case "microphone":
		format := application.DefaultAudioFormat()
		format.SampleRate = cfg.SampleRate
		return audio.NewMicrophoneSource(format, audio.CaptureConfig{
			SilenceThreshold: cfg.SilenceThreshold,
			SilenceHangover:  cfg.SilenceHangover.Std(),
			MaxUtterance:     cfg.MaxUtterance.Std(),
		}, logger)
	default:
		src := audio.NewUploadSource(cfg.QueueSize, logger)
		*upload = src
		return src
	}
}

func createSynthesizer(cfg config.TTSConfig, hub *web.Hub, logger *slog.Logger) application.SpeechSynthesizer {
	switch cfg.Provider {
	case "browser":
		return hub.Synthesizer()
	case "command":
		return tts.NewCommandSynthesizer(cfg.Command, cfg.Args, logger)
	default:
		return application.SilentSynthesizer{}
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		})
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}
