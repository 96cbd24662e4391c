package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"golang.org/x/text/language"

	"voicecalc/internal/infra"
)

const defaultBaseURL = "https://api.openai.com/v1"

type WhisperClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
	retry      infra.RetryConfig
}

type Option func(*WhisperClient)

// WithBaseURL points the client at a compatible transcription server.
func WithBaseURL(u string) Option {
	return func(c *WhisperClient) { c.baseURL = u }
}

func WithRetryConfig(cfg infra.RetryConfig) Option {
	return func(c *WhisperClient) { c.retry = cfg }
}

func NewWhisperClient(apiKey, model string, opts ...Option) *WhisperClient {
	if model == "" {
		model = "whisper-1"
	}
	c := &WhisperClient{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		retry:      infra.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe sends one utterance for transcription. The language hint is the
// ISO 639-1 part of the session language ("es-MX" is sent as "es").
func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte, lang string) (string, error) {
	var result transcriptionResponse
	hint := languageHint(lang)

	retryErr := infra.WithRetry(ctx, c.retry, func() error {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)

		part, err := writer.CreateFormFile("file", "audio.wav")
		if err != nil {
			return fmt.Errorf("creating form file: %w", err)
		}
		if _, err = part.Write(audio); err != nil {
			return fmt.Errorf("writing audio: %w", err)
		}
		if err = writer.WriteField("model", c.model); err != nil {
			return fmt.Errorf("writing model field: %w", err)
		}
		if hint != "" {
			if err = writer.WriteField("language", hint); err != nil {
				return fmt.Errorf("writing language field: %w", err)
			}
		}
		if err = writer.Close(); err != nil {
			return fmt.Errorf("closing writer: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", body)
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			apiErr := fmt.Errorf("whisper API error %d: %s", resp.StatusCode, string(respBody))
			if infra.IsRetryableHTTPStatus(resp.StatusCode) {
				return apiErr
			}
			return infra.Permanent(apiErr)
		}

		if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	})

	if retryErr != nil {
		return "", retryErr
	}
	return result.Text, nil
}

func languageHint(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}
