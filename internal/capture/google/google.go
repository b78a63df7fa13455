// Package google implements the capture ports with Gemini and Cloud
// Text-to-Speech.
package google

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/texttospeech/v1"
	"google.golang.org/genai"

	"finhealth/internal/capture"
)

const (
	DefaultModel    = "gemini-2.5-flash"
	DefaultLanguage = "en-US"
)

var (
	_ capture.ReceiptAnalyzer  = (*Client)(nil)
	_ capture.VoiceTranscriber = (*Client)(nil)
	_ capture.ExpenseParser    = (*Client)(nil)
	_ capture.Speaker          = (*Client)(nil)
)

var errEmptyResponse = errors.New("empty model response")

const (
	receiptPrompt = `Analyze this receipt image. Extract the total amount, a short description of the purchase and a category (one of: Food, Transport, Shopping, Entertainment, Bills, Health, General). ` + jsonShape
	textPrompt    = `Extract the expense from this sentence: %q. Pick a category (one of: Food, Transport, Shopping, Entertainment, Bills, Health, General). ` + jsonShape
	voicePrompt   = `Transcribe this audio exactly. Return only the transcript text.`
	jsonShape     = `Respond with JSON only: {"amount": number, "category": string, "description": string}.`
)

// Config selects the model and voice. APIKey authenticates both services.
// BaseURL and HTTPClient override the Gemini transport, used by tests.
type Config struct {
	APIKey     string
	Model      string
	Language   string
	Voice      string
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	gen      *genai.Client
	tts      *texttospeech.Service
	model    string
	language string
	voice    string
}

// New builds both API clients. Extra options are appended after the API key
// and only apply to the speech client.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, capture.ErrNotConfigured
	}

	gen, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	clientOpts := append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	tts, err := texttospeech.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create text to speech service: %w", err)
	}

	c := &Client{
		gen:      gen,
		tts:      tts,
		model:    cfg.Model,
		language: cfg.Language,
		voice:    cfg.Voice,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.language == "" {
		c.language = DefaultLanguage
	}
	slog.InfoContext(ctx, "Google capture client ready", "model", c.model, "language", c.language)
	return c, nil
}

func (c *Client) AnalyzeReceipt(ctx context.Context, image []byte, mimeType string) (capture.Guess, error) {
	out, err := c.generate(ctx, true,
		inline(image, mimeType, "image/jpeg"),
		genai.NewPartFromText(receiptPrompt),
	)
	if err != nil {
		return capture.Guess{}, fmt.Errorf("analyze receipt: %w", err)
	}
	return capture.ParseGuess(out)
}

func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	out, err := c.generate(ctx, false,
		inline(audio, mimeType, "audio/webm"),
		genai.NewPartFromText(voicePrompt),
	)
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (c *Client) ParseExpense(ctx context.Context, text string) (capture.Guess, error) {
	out, err := c.generate(ctx, true, genai.NewPartFromText(fmt.Sprintf(textPrompt, text)))
	if err != nil {
		return capture.Guess{}, fmt.Errorf("parse expense: %w", err)
	}
	return capture.ParseGuess(out)
}

func (c *Client) Speak(ctx context.Context, text string) ([]byte, error) {
	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: c.language,
			Name:         c.voice,
		},
		AudioConfig: &texttospeech.AudioConfig{AudioEncoding: "MP3"},
	}
	resp, err := c.tts.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errEmptyResponse
	}
	return audio, nil
}

func (c *Client) generate(ctx context.Context, jsonMode bool, parts ...*genai.Part) (string, error) {
	var cfg *genai.GenerateContentConfig
	if jsonMode {
		cfg = &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := c.gen.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p != nil {
				b.WriteString(p.Text)
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", errEmptyResponse
	}
	return b.String(), nil
}

func inline(data []byte, mimeType, fallback string) *genai.Part {
	if mimeType == "" {
		mimeType = fallback
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}
}
