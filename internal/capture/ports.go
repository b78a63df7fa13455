// Package capture turns receipts, voice notes and free text into expense
// guesses, and reads short confirmations aloud. Nothing here mutates the
// finance state; a guess becomes an expense only when the caller logs it.
package capture

import "context"

// Guess is a best-effort reading of an expense from some input.
// Amount is zero when nothing could be read.
type Guess struct {
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

// Ports implemented by model-backed adapters.
type (
	ReceiptAnalyzer interface {
		AnalyzeReceipt(ctx context.Context, image []byte, mimeType string) (Guess, error)
	}

	VoiceTranscriber interface {
		Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
	}

	ExpenseParser interface {
		ParseExpense(ctx context.Context, text string) (Guess, error)
	}

	Speaker interface {
		Speak(ctx context.Context, text string) ([]byte, error)
	}
)
