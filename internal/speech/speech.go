// Package speech turns text into narrated MP3 audio.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/alnah/lingocast/internal/apierr"
)

// ErrEmptyInput indicates there is no text to synthesize.
var ErrEmptyInput = errors.New("no text to synthesize")

// Synthesizer converts text to MP3 audio.
// A nil slice with a nil error means the service produced no audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Defaults for the OpenAI speech endpoint.
const (
	DefaultModel = string(openai.TTSModel1)
	DefaultVoice = string(openai.VoiceAlloy)
	DefaultSpeed = 1.0

	// MaxInputChars is the longest input the endpoint accepts.
	MaxInputChars = 4096
)

// speechCreator is the subset of *openai.Client used here.
type speechCreator interface {
	CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error)
}

var (
	_ Synthesizer   = (*OpenAI)(nil)
	_ speechCreator = (*openai.Client)(nil)
)

// OpenAI synthesizes speech with OpenAI's text-to-speech API.
// Transient failures are retried with exponential backoff.
type OpenAI struct {
	client speechCreator
	model  string
	voice  string
	speed  float64
	retry  apierr.RetryConfig
}

// Option configures an OpenAI synthesizer.
type Option func(*OpenAI)

// WithModel sets the TTS model (tts-1, tts-1-hd, gpt-4o-mini-tts).
func WithModel(model string) Option {
	return func(s *OpenAI) {
		if model != "" {
			s.model = model
		}
	}
}

// WithVoice sets the voice.
func WithVoice(voice string) Option {
	return func(s *OpenAI) {
		if voice != "" {
			s.voice = voice
		}
	}
}

// WithSpeed sets the playback speed, 0.25 to 4.0. Other values are ignored.
func WithSpeed(speed float64) Option {
	return func(s *OpenAI) {
		if speed >= 0.25 && speed <= 4.0 {
			s.speed = speed
		}
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) Option {
	return func(s *OpenAI) {
		if n >= 0 {
			s.retry.MaxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, maxDelay time.Duration) Option {
	return func(s *OpenAI) {
		if base > 0 {
			s.retry.BaseDelay = base
		}
		if maxDelay > 0 {
			s.retry.MaxDelay = maxDelay
		}
	}
}

// WithLogger reports retried requests as warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *OpenAI) {
		if logger == nil {
			return
		}
		s.retry.OnRetry = func(attempt int, err error, wait time.Duration) {
			logger.Warn("speech request failed, retrying",
				"attempt", attempt, "wait", wait, "error", err)
		}
	}
}

// NewOpenAI creates a synthesizer backed by client.
func NewOpenAI(client *openai.Client, opts ...Option) *OpenAI {
	return newOpenAI(client, opts...)
}

func newOpenAI(client speechCreator, opts ...Option) *OpenAI {
	s := &OpenAI{
		client: client,
		model:  DefaultModel,
		voice:  DefaultVoice,
		speed:  DefaultSpeed,
		retry:  apierr.DefaultRetryConfig,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize returns MP3 audio for text. An empty response body is reported
// as absent audio (nil, nil); API errors are classified with apierr.
// Input longer than MaxInputChars is split at sentence or word boundaries,
// synthesized piecewise and the MP3 bodies appended byte-wise. The result is
// a valid frame stream but not a clean file: each part may carry its own
// header and encoder padding. Callers must re-encode it (the pipeline
// normalizes every narration, cached or fresh) before concatenating it
// with other segments.
func (s *OpenAI) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	var out []byte
	for _, part := range Split(text, MaxInputChars) {
		data, err := s.synthesizeOne(ctx, part)
		if err != nil {
			return nil, err
		}
		if data == nil {
			return nil, nil
		}
		out = append(out, data...)
	}
	return out, nil
}

func (s *OpenAI) synthesizeOne(ctx context.Context, input string) ([]byte, error) {
	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          input,
		Voice:          openai.SpeechVoice(s.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          s.speed,
	}

	return apierr.RetryWithBackoff(ctx, s.retry, func() ([]byte, error) {
		resp, err := s.client.CreateSpeech(ctx, req)
		if err != nil {
			return nil, apierr.ClassifyOpenAI(err)
		}
		defer resp.Close()

		data, err := io.ReadAll(resp)
		if err != nil {
			return nil, fmt.Errorf("read speech response: %w", apierr.ClassifyOpenAI(err))
		}
		if len(data) == 0 {
			return nil, nil
		}
		return data, nil
	}, apierr.IsRetryable)
}

// Split breaks text into pieces of at most limit runes. Cuts prefer the end
// of a sentence, then a space; a run without either is cut hard.
func Split(text string, limit int) []string {
	var parts []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := cutPoint(runes[:limit])
		parts = append(parts, strings.TrimSpace(string(runes[:cut])))
		runes = []rune(strings.TrimLeft(string(runes[cut:]), " "))
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

// cutPoint returns the length of the prefix of window to emit.
func cutPoint(window []rune) int {
	for i := len(window) - 1; i > 0; i-- {
		if r := window[i-1]; (r == '.' || r == '!' || r == '?') && window[i] == ' ' {
			return i
		}
	}
	for i := len(window) - 1; i > 0; i-- {
		if window[i] == ' ' {
			return i
		}
	}
	return len(window)
}
