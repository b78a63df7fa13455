package capture

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"finhealth/internal/cache"
	"finhealth/internal/log"
)

var (
	ErrCaptureFailed = errors.New("capture failed")
	ErrNotConfigured = errors.New("capture backend not configured")
	ErrEmptyInput    = errors.New("empty capture input")
)

const (
	DefaultTimeout     = 30 * time.Second
	speechCacheSize    = 64
	speechCacheTTL     = time.Hour
	maxSpeechTextBytes = 4096
)

// Backend bundles the adapters a Service needs. Any of them may be nil.
type Backend struct {
	Receipts ReceiptAnalyzer
	Voice    VoiceTranscriber
	Parser   ExpenseParser
	Speaker  Speaker
}

// Service applies timeouts and error wrapping around the capture adapters
// and caches synthesized speech.
type Service struct {
	backend Backend
	timeout time.Duration
	speech  *cache.LRUCache[[]byte]
	logger  *log.Logger
}

func NewService(b Backend, timeout time.Duration, logger *log.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Service{
		backend: b,
		timeout: timeout,
		speech:  cache.NewLRUCache[[]byte](speechCacheSize, speechCacheTTL),
		logger:  logger.WithComponent(log.ComponentCapture),
	}
}

// SpeechCache exposes the cache so it can be registered with a janitor.
func (s *Service) SpeechCache() *cache.LRUCache[[]byte] {
	return s.speech
}

// Configured reports whether any adapter is available.
func (s *Service) Configured() bool {
	b := s.backend
	return b.Receipts != nil || b.Voice != nil || b.Parser != nil || b.Speaker != nil
}

func (s *Service) AnalyzeReceipt(ctx context.Context, image []byte, mimeType string) (Guess, error) {
	if s.backend.Receipts == nil {
		return Guess{}, ErrNotConfigured
	}
	if len(image) == 0 {
		return Guess{}, ErrEmptyInput
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	g, err := s.backend.Receipts.AnalyzeReceipt(ctx, image, mimeType)
	if err != nil {
		return Guess{}, s.failed(ctx, "receipt", err)
	}
	return g, nil
}

// VoiceResult carries the transcript alongside the parsed guess.
type VoiceResult struct {
	Transcript string `json:"transcript"`
	Guess      Guess  `json:"guess"`
}

// CaptureVoice transcribes a voice note and parses the transcript.
func (s *Service) CaptureVoice(ctx context.Context, audio []byte, mimeType string) (VoiceResult, error) {
	if s.backend.Voice == nil || s.backend.Parser == nil {
		return VoiceResult{}, ErrNotConfigured
	}
	if len(audio) == 0 {
		return VoiceResult{}, ErrEmptyInput
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.backend.Voice.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return VoiceResult{}, s.failed(ctx, "transcribe", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return VoiceResult{}, s.failed(ctx, "transcribe", ErrEmptyInput)
	}
	g, err := s.backend.Parser.ParseExpense(ctx, text)
	if err != nil {
		return VoiceResult{Transcript: text}, s.failed(ctx, "parse", err)
	}
	return VoiceResult{Transcript: text, Guess: g}, nil
}

func (s *Service) ParseText(ctx context.Context, text string) (Guess, error) {
	if s.backend.Parser == nil {
		return Guess{}, ErrNotConfigured
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Guess{}, ErrEmptyInput
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	g, err := s.backend.Parser.ParseExpense(ctx, text)
	if err != nil {
		return Guess{}, s.failed(ctx, "parse", err)
	}
	return g, nil
}

// Speak returns synthesized audio for text. Identical requests are served
// from cache, and concurrent ones share a single upstream call.
func (s *Service) Speak(ctx context.Context, text string) ([]byte, error) {
	if s.backend.Speaker == nil {
		return nil, ErrNotConfigured
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	text = truncateUTF8(text, maxSpeechTextBytes)

	sum := sha256.Sum256([]byte(text))
	audio, err := s.speech.GetOrLoad(ctx, hex.EncodeToString(sum[:]), func(ctx context.Context) ([]byte, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.backend.Speaker.Speak(ctx, text)
	})
	if err != nil {
		return nil, s.failed(ctx, "speak", err)
	}
	return audio, nil
}

func (s *Service) failed(ctx context.Context, step string, err error) error {
	s.logger.WarnContext(ctx, "Capture step failed",
		log.FieldOperation, log.OpCapture,
		"step", step,
		log.FieldError, err)
	return fmt.Errorf("%w: %s: %w", ErrCaptureFailed, step, err)
}

// truncateUTF8 cuts s to at most max bytes without splitting a rune.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
