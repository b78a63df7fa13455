package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finhealth/internal/capture"
	"finhealth/internal/core"
	"finhealth/internal/log"
	"finhealth/internal/notify"
	"finhealth/internal/persist/memory"
	"finhealth/internal/services"
)

// Wednesday 14 Oct 2026, 10:00 UTC.
var baseTime = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

type fakeCapture struct {
	guess capture.Guess
	audio []byte
	err   error
}

func (f *fakeCapture) AnalyzeReceipt(context.Context, []byte, string) (capture.Guess, error) {
	return f.guess, f.err
}

func (f *fakeCapture) Transcribe(context.Context, []byte, string) (string, error) {
	return "coffee for four euros", f.err
}

func (f *fakeCapture) ParseExpense(context.Context, string) (capture.Guess, error) {
	return f.guess, f.err
}

func (f *fakeCapture) Speak(context.Context, string) ([]byte, error) {
	return f.audio, f.err
}

type testServer struct {
	srv     *Server
	manager *services.FinanceManager
	notices *notify.Center
	now     time.Time
}

func newTestServer(t *testing.T, backend *fakeCapture) *testServer {
	t.Helper()
	ts := &testServer{now: baseTime}
	clock := func() time.Time { return ts.now }
	ts.notices = notify.NewCenter(time.Minute, log.Discard()).WithClock(clock)

	m, err := services.NewFinanceManager(context.Background(), memory.New(),
		services.WithNotifier(ts.notices),
		services.WithClock(clock),
		services.WithLogger(log.Discard()),
	)
	require.NoError(t, err)
	ts.manager = m

	var capt *capture.Service
	if backend != nil {
		capt = capture.NewService(capture.Backend{
			Receipts: backend, Voice: backend, Parser: backend, Speaker: backend,
		}, time.Second, log.Discard())
	}
	ts.srv = NewServer(":0", Deps{
		Manager:        m,
		Notices:        ts.notices,
		Capture:        capt,
		Logger:         log.Discard(),
		MaxUploadBytes: 1024,
	})
	t.Cleanup(func() { _ = ts.srv.Shutdown(context.Background()) })
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) register(t *testing.T) {
	t.Helper()
	rr := ts.do(http.MethodPost, "/api/register",
		`{"name":"Asha","mobile":"+91 98765","country":"India","currency":"INR","weeklyLimit":"1000"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := ts.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}

	ts.srv.ready = func(context.Context) error { return errors.New("db down") }
	rr := ts.do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	ts := newTestServer(t, nil)
	rr := ts.do(http.MethodGet, "/api/state", "")
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rr.Header().Get(log.RequestIDHeader))
}

func TestStateBeforeAndAfterRegister(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rr.Code)
	st := decode[stateResponse](t, rr)
	assert.Nil(t, st.User)
	assert.Equal(t, core.InitialHealthPoints, st.HealthPoints)
	assert.Equal(t, "Flight to Tokyo", st.Goal.Name)

	ts.register(t)
	st = decode[stateResponse](t, ts.do(http.MethodGet, "/api/state", ""))
	require.NotNil(t, st.User)
	assert.Equal(t, "Asha", st.User.Name)
	assert.Equal(t, 1000.0, st.User.WeeklyLimit)
	assert.Equal(t, "₹", st.CurrencySymbol)
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t, nil)
	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"name":`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
		{"empty name", `{"name":" ","currency":"INR","weeklyLimit":100}`, http.StatusUnprocessableEntity},
		{"bad currency", `{"name":"A","currency":"JPY","weeklyLimit":100}`, http.StatusUnprocessableEntity},
		{"zero limit", `{"name":"A","currency":"EUR","weeklyLimit":0}`, http.StatusUnprocessableEntity},
		{"garbage limit", `{"name":"A","currency":"EUR","weeklyLimit":"lots"}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := ts.do(http.MethodPost, "/api/register", tc.body)
			assert.Equal(t, tc.want, rr.Code, rr.Body.String())
		})
	}
}

func TestAddExpenseAndWeeklyBanner(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.register(t)

	for i := 0; i < 3; i++ {
		rr := ts.do(http.MethodPost, "/api/expenses", `{"amount":"400","description":"Groceries","category":"Food"}`)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		resp := decode[expenseResponse](t, rr)
		assert.Equal(t, 400.0, resp.Expense.Amount)
		assert.Equal(t, core.InitialHealthPoints+(i+1)*core.ExpenseLogReward, resp.HealthPoints)
	}

	view := decode[notify.View](t, ts.do(http.MethodGet, "/api/notifications", ""))
	require.NotNil(t, view.Banner)
	assert.Equal(t, "Alert: Weekly limit exceeded! Spent 1200 / 1000", view.Banner.Message)

	sum := decode[core.Summary](t, ts.do(http.MethodGet, "/api/summary", ""))
	assert.Equal(t, 1200.0, sum.WeeklyTotal)
	assert.True(t, sum.LimitExceeded)

	ts.now = ts.now.Add(2 * time.Minute)
	view = decode[notify.View](t, ts.do(http.MethodGet, "/api/notifications", ""))
	assert.Nil(t, view.Banner)
}

func TestAddExpenseRejectsBadInput(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.register(t)

	for _, body := range []string{
		`{"amount":0,"description":"x"}`,
		`{"amount":-5,"description":"x"}`,
		`{"amount":"abc","description":"x"}`,
		`{"amount":5,"description":"   "}`,
	} {
		rr := ts.do(http.MethodPost, "/api/expenses", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, body)
	}
	assert.Empty(t, ts.manager.Snapshot().Expenses)
}

func TestViceAndGoal(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(http.MethodPost, "/api/goal/vice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	res := decode[services.ViceResult](t, rr)
	assert.Equal(t, 250.0, res.Goal.CurrentAmount)
	assert.Equal(t, 150, res.HealthPoints)

	rr = ts.do(http.MethodPut, "/api/goal", `{"name":"Bike","targetAmount":500,"viceName":"Soda","vicePrice":"2,5"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	g := decode[core.Goal](t, rr)
	assert.Equal(t, 250.0, g.CurrentAmount)
	assert.Equal(t, 2.5, g.VicePrice)

	rr = ts.do(http.MethodPut, "/api/goal", `{"name":"Bike","targetAmount":500,"currentAmount":499,"viceName":"Soda","vicePrice":2}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = ts.do(http.MethodPost, "/api/goal/vice", "")
	res = decode[services.ViceResult](t, rr)
	assert.True(t, res.Reached)

	view := decode[notify.View](t, ts.do(http.MethodGet, "/api/notifications", ""))
	require.NotNil(t, view.Alert)
	assert.Contains(t, view.Alert.Message, "Bike")

	rr = ts.do(http.MethodDelete, "/api/notifications/alert", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	view = decode[notify.View](t, ts.do(http.MethodGet, "/api/notifications", ""))
	assert.Nil(t, view.Alert)

	rr = ts.do(http.MethodPut, "/api/goal", `{"name":"","targetAmount":500}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestSetGoalResetsProgressToZero(t *testing.T) {
	ts := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/goal/vice", "").Code)

	rr := ts.do(http.MethodPut, "/api/goal", `{"name":"Bike","targetAmount":500,"currentAmount":0,"viceName":"Soda","vicePrice":2}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Zero(t, decode[core.Goal](t, rr).CurrentAmount)
	assert.Zero(t, ts.manager.Snapshot().Goal.CurrentAmount)

	rr = ts.do(http.MethodPut, "/api/goal", `{"name":"Bike","targetAmount":500,"currentAmount":"-1","viceName":"Soda","vicePrice":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	rr = ts.do(http.MethodPut, "/api/goal", `{"name":"Bike","targetAmount":0,"currentAmount":0,"viceName":"Soda","vicePrice":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestImpulseLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.register(t)

	rr := ts.do(http.MethodPost, "/api/impulse", `{"amount":3000,"description":"Sneakers"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	p := decode[core.ImpulsePurchase](t, rr)
	assert.Equal(t, core.ImpulsePending, p.Status)

	list := decode[[]impulseView](t, ts.do(http.MethodGet, "/api/impulse", ""))
	require.Len(t, list, 1)
	assert.False(t, list[0].Eligible)
	assert.Equal(t, int64(24*60*60), list[0].RemainingSeconds)

	path := "/api/impulse/" + p.ID + "/resolve"
	rr = ts.do(http.MethodPost, path, `{"decision":"completed"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	ts.now = ts.now.Add(24*time.Hour + time.Minute)
	list = decode[[]impulseView](t, ts.do(http.MethodGet, "/api/impulse", ""))
	assert.True(t, list[0].Eligible)

	rr = ts.do(http.MethodPost, path, `{"decision":"maybe"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = ts.do(http.MethodPost, path, `{"decision":"completed"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, core.ImpulseCompleted, decode[core.ImpulsePurchase](t, rr).Status)

	st := ts.manager.Snapshot()
	require.Len(t, st.Expenses, 1)
	assert.Equal(t, core.ImpulseCategory, st.Expenses[0].Category)

	rr = ts.do(http.MethodPost, path, `{"decision":"cancelled"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	rr = ts.do(http.MethodPost, "/api/impulse/nope/resolve", `{"decision":"cancelled"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRewardsAndRedeem(t *testing.T) {
	ts := newTestServer(t, nil)

	rewards := decode[[]rewardView](t, ts.do(http.MethodGet, "/api/rewards", ""))
	require.NotEmpty(t, rewards)
	assert.Equal(t, "badge_newbie", rewards[0].ID)
	assert.True(t, rewards[0].Affordable)

	rr := ts.do(http.MethodPost, "/api/rewards/badge_newbie/redeem", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[redeemResponse](t, rr)
	assert.Equal(t, 0, resp.HealthPoints)
	assert.Equal(t, []string{"badge_newbie"}, resp.Inventory)

	rr = ts.do(http.MethodPost, "/api/rewards/badge_newbie/redeem", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	view := decode[notify.View](t, ts.do(http.MethodGet, "/api/notifications", ""))
	require.NotNil(t, view.Alert)
	assert.Equal(t, core.InsufficientPointsMessage, view.Alert.Message)

	rewards = decode[[]rewardView](t, ts.do(http.MethodGet, "/api/rewards", ""))
	assert.Equal(t, 1, rewards[0].Owned)
	assert.False(t, rewards[0].Affordable)

	rr = ts.do(http.MethodPost, "/api/rewards/unknown/redeem", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestResetAndCurrencies(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.register(t)

	rr := ts.do(http.MethodPost, "/api/reset", "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Nil(t, ts.manager.Snapshot().User)

	curr := decode[[]currencyResponse](t, ts.do(http.MethodGet, "/api/currencies", ""))
	assert.Len(t, curr, 4)
}

func TestCaptureNotConfigured(t *testing.T) {
	ts := newTestServer(t, nil)
	rr := ts.do(http.MethodPost, "/api/capture/text", `{"text":"coffee 4 euro"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestCaptureEndpoints(t *testing.T) {
	backend := &fakeCapture{
		guess: capture.Guess{Amount: 4, Category: "Food", Description: "Coffee"},
		audio: []byte("ID3"),
	}
	ts := newTestServer(t, backend)

	rr := ts.do(http.MethodPost, "/api/capture/text", `{"text":"coffee 4 euro"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, backend.guess, decode[capture.Guess](t, rr))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "receipt.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png-bytes"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/capture/receipt", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/api/capture/voice", strings.NewReader("webm-bytes"))
	req.Header.Set("Content-Type", "audio/webm")
	rec = httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	vr := decode[capture.VoiceResult](t, rec)
	assert.Equal(t, "coffee for four euros", vr.Transcript)

	rr = ts.do(http.MethodPost, "/api/speak", `{"text":"Expense saved"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "audio/mpeg", rr.Header().Get("Content-Type"))
	assert.Equal(t, "ID3", rr.Body.String())
}

func TestCaptureUploadTooLarge(t *testing.T) {
	ts := newTestServer(t, &fakeCapture{})
	req := httptest.NewRequest(http.MethodPost, "/api/capture/receipt", strings.NewReader(strings.Repeat("x", 2048)))
	req.Header.Set("Content-Type", "image/jpeg")
	rec := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCaptureUpstreamFailure(t *testing.T) {
	ts := newTestServer(t, &fakeCapture{err: errors.New("quota exceeded")})
	rr := ts.do(http.MethodPost, "/api/capture/text", `{"text":"coffee"}`)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestMutationsAreRateLimited(t *testing.T) {
	ts := newTestServer(t, nil)
	var last int
	for i := 0; i <= mutationsPerMinute; i++ {
		last = ts.do(http.MethodPost, "/api/goal/vice", "").Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/state", "").Code)
}
