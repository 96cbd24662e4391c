package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Session     SessionConfig     `yaml:"session"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Audio       AudioConfig       `yaml:"audio"`
	OpenAI      OpenAIConfig      `yaml:"openai"`
	TTS         TTSConfig         `yaml:"tts"`
	HTTP        HTTPConfig        `yaml:"http"`
	Webhook     WebhookConfig     `yaml:"webhook"`
	History     HistoryConfig     `yaml:"history"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Log         LogConfig         `yaml:"log"`
}

type SessionConfig struct {
	Language        string   `yaml:"language"`
	Continuous      bool     `yaml:"continuous"`
	Muted           bool     `yaml:"muted"`
	PollInterval    Duration `yaml:"poll_interval"`
	InterimThrottle Duration `yaml:"interim_throttle"`
	PreviewDebounce Duration `yaml:"preview_debounce"`
}

type RecognitionConfig struct {
	// Provider is "browser", "native" or "none".
	Provider   string   `yaml:"provider"`
	AckTimeout Duration `yaml:"ack_timeout"`
}

type AudioConfig struct {
	// Source feeds native recognition: "upload", "file" or "microphone".
	Source           string   `yaml:"source"`
	FileDir          string   `yaml:"file_dir"`
	PollInterval     Duration `yaml:"poll_interval"`
	SampleRate       int      `yaml:"sample_rate"`
	SilenceThreshold int16    `yaml:"silence_threshold"`
	SilenceHangover  Duration `yaml:"silence_hangover"`
	MaxUtterance     Duration `yaml:"max_utterance"`
	QueueSize        int      `yaml:"queue_size"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type TTSConfig struct {
	// Provider is "browser", "command" or "none".
	Provider string   `yaml:"provider"`
	Command  string   `yaml:"command"`
	Args     []string `yaml:"args"`
}

type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AuthToken      string   `yaml:"auth_token"`
	RateLimit      float64  `yaml:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst"`
	OriginPatterns []string `yaml:"origin_patterns"`
}

type WebhookConfig struct {
	URL       string   `yaml:"url"`
	Token     string   `yaml:"token"`
	Events    []string `yaml:"events"`
	Timeout   Duration `yaml:"timeout"`
	QueueSize int      `yaml:"queue_size"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	MaxRows int    `yaml:"max_rows"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File, when set, receives logs through a rotating writer instead of stdout.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Duration accepts Go duration strings such as "500ms" or "2s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("line %d: duration must be a string: %w", node.Line, err)
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Session.Language == "" {
		c.Session.Language = "en"
	}
	if c.Session.PollInterval == 0 {
		c.Session.PollInterval = Duration(500 * time.Millisecond)
	}
	if c.Session.InterimThrottle == 0 {
		c.Session.InterimThrottle = Duration(16 * time.Millisecond)
	}
	if c.Session.PreviewDebounce == 0 {
		c.Session.PreviewDebounce = Duration(300 * time.Millisecond)
	}
	if c.Recognition.Provider == "" {
		c.Recognition.Provider = "browser"
	}
	if c.Recognition.AckTimeout == 0 {
		c.Recognition.AckTimeout = Duration(5 * time.Second)
	}
	if c.Audio.Source == "" {
		c.Audio.Source = "upload"
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.QueueSize == 0 {
		c.Audio.QueueSize = 10
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "whisper-1"
	}
	if c.TTS.Provider == "" {
		c.TTS.Provider = c.Recognition.Provider
		if c.TTS.Provider == "native" {
			c.TTS.Provider = "command"
		}
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.RateLimit == 0 {
		c.HTTP.RateLimit = 5
	}
	if c.HTTP.RateBurst == 0 {
		c.HTTP.RateBurst = 20
	}
	if c.Webhook.QueueSize == 0 {
		c.Webhook.QueueSize = 64
	}
	if c.History.Path == "" {
		c.History.Path = "voicecalc.db"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "voicecalc"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
}

func (c *Config) validate() error {
	var errs []error
	if !oneOf(c.Recognition.Provider, "browser", "native", "none") {
		errs = append(errs, fmt.Errorf("recognition.provider: unknown provider %q", c.Recognition.Provider))
	}
	if !oneOf(c.Audio.Source, "upload", "file", "microphone") {
		errs = append(errs, fmt.Errorf("audio.source: unknown source %q", c.Audio.Source))
	}
	if !oneOf(c.TTS.Provider, "browser", "command", "none") {
		errs = append(errs, fmt.Errorf("tts.provider: unknown provider %q", c.TTS.Provider))
	}
	if !oneOf(c.Log.Format, "text", "json") {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	for _, ev := range c.Webhook.Events {
		if !oneOf(ev, "result", "error", "partial", "preview", "state") {
			errs = append(errs, fmt.Errorf("webhook.events: unknown event %q", ev))
		}
	}
	return errors.Join(errs...)
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
