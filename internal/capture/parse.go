package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"finhealth/internal/core"
)

var errNoJSON = errors.New("no json object in model output")

type rawGuess struct {
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

// ParseGuess reads a guess from model output. It accepts fenced code blocks
// and surrounding prose, and amounts given as numbers or strings such as
// "₹1,250.50" or "12,50".
func ParseGuess(raw string) (Guess, error) {
	obj, err := extractObject(raw)
	if err != nil {
		return Guess{}, err
	}
	var rg rawGuess
	if err := json.Unmarshal([]byte(obj), &rg); err != nil {
		return Guess{}, fmt.Errorf("decode guess: %w", err)
	}

	g := Guess{
		Category:    strings.TrimSpace(rg.Category),
		Description: strings.TrimSpace(rg.Description),
	}
	if g.Category == "" {
		g.Category = core.DefaultCategory
	}
	g.Amount = parseLooseAmount(rg.Amount)
	return g, nil
}

func extractObject(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", errNoJSON
	}
	return s[start : end+1], nil
}

// parseLooseAmount returns 0 for anything that is not a positive amount.
func parseLooseAmount(msg json.RawMessage) float64 {
	if len(msg) == 0 || string(msg) == "null" {
		return 0
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		s = string(msg)
	}
	v, err := core.ParseAmount(normalizeAmount(s))
	if err != nil {
		return 0
	}
	return v
}

// normalizeAmount strips currency symbols and thousand separators. A lone
// comma is taken as the decimal separator.
func normalizeAmount(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if strings.Contains(out, ".") && strings.Contains(out, ",") {
		out = strings.ReplaceAll(out, ",", "")
	} else if strings.Count(out, ",") > 1 {
		out = strings.ReplaceAll(out, ",", "")
	}
	return out
}
