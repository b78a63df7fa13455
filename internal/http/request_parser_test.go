package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finhealth/internal/core"
)

func TestAmountUnmarshal(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{`12.5`, 12.5, false},
		{`"12,50"`, 12.5, false},
		{`" 7 "`, 7, false},
		{`null`, 0, false},
		{`"abc"`, 0, true},
		{`true`, 0, true},
	}
	for _, tc := range cases {
		var a Amount
		err := json.Unmarshal([]byte(tc.in), &a)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if float64(a) != tc.want {
			t.Fatalf("%s: got %v want %v", tc.in, float64(a), tc.want)
		}
	}
}

func TestBalanceAcceptsZero(t *testing.T) {
	for in, want := range map[string]float64{`0`: 0, `"0,00"`: 0, `"3,5"`: 3.5} {
		var b Balance
		if err := json.Unmarshal([]byte(in), &b); err != nil || float64(b) != want {
			t.Fatalf("%s: got %v err=%v", in, float64(b), err)
		}
	}
	var b Balance
	if err := json.Unmarshal([]byte(`-2`), &b); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("negative balance accepted: %v", err)
	}
}

func TestDecodeJSONErrors(t *testing.T) {
	type body struct {
		Amount Amount `json:"amount"`
	}
	cases := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", errBadRequest},
		{"syntax", "{", errBadRequest},
		{"bad amount", `{"amount":"x"}`, core.ErrInvalidAmount},
		{"too large", `{"amount":"` + strings.Repeat("9", maxJSONBytes) + `"}`, errPayloadTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.in))
			var b body
			if err := decodeJSON(httptest.NewRecorder(), r, &b); !errors.Is(err, tc.want) {
				t.Fatalf("got %v want %v", err, tc.want)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		core.ErrEmptyDescription:   http.StatusUnprocessableEntity,
		core.ErrImpulseNotFound:    http.StatusNotFound,
		core.ErrInsufficientPoints: http.StatusConflict,
		errPayloadTooLarge:         http.StatusRequestEntityTooLarge,
		errors.New("boom"):         http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := statusFor(err); got != want {
			t.Fatalf("%v: got %d want %d", err, got, want)
		}
	}
}

func TestExtractClientIP(t *testing.T) {
	cases := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct", "203.0.113.9:5000", "", "203.0.113.9"},
		{"untrusted forwarder", "203.0.113.9:5000", "198.51.100.1", "203.0.113.9"},
		{"trusted proxy", "10.1.2.3:5000", "198.51.100.1, 10.1.2.3", "198.51.100.1"},
		{"trusted proxy bad header", "127.0.0.1:5000", "garbage", "127.0.0.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remote
			if tc.xff != "" {
				r.Header.Set("X-Forwarded-For", tc.xff)
			}
			if got := extractClientIP(r); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.allow("a") || !rl.allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("a") {
		t.Fatal("third request should be limited")
	}
	if !rl.allow("b") {
		t.Fatal("other clients are independent")
	}

	now = now.Add(time.Minute)
	if !rl.allow("a") {
		t.Fatal("new window should reset the count")
	}

	now = now.Add(11 * time.Minute)
	if n := rl.cleanupStaleEntries(); n != 2 {
		t.Fatalf("expected 2 stale entries, got %d", n)
	}
}
