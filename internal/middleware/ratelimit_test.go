package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// --- レート制限ミドルウェアのテスト ---

func limiterRequest(viewerID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	return req.WithContext(ContextWithViewerID(req.Context(), viewerID))
}

func TestRateLimiter_AllowsRequestsWithinBurst(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     2,
		GeneralBurst:    5,
		FeedRate:        1,
		FeedBurst:       10,
		CleanupInterval: time.Minute,
	}
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	handlerCallCount := 0
	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCallCount++
		w.WriteHeader(http.StatusOK)
	}))

	// バースト内の5リクエストは全て通る
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, limiterRequest("viewer-1"))

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	if handlerCallCount != 5 {
		t.Errorf("handler call count = %d, want 5", handlerCallCount)
	}
}

func TestRateLimiter_Returns429WhenBurstExceeded(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    2,
		FeedRate:        1,
		FeedBurst:       10,
		CleanupInterval: time.Minute,
	}
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// バースト分（2回）は通る
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, limiterRequest("viewer-exceed"))
		if w.Result().StatusCode != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	// 3回目は429
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, limiterRequest("viewer-exceed"))

	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusTooManyRequests)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["code"] != "RATE_LIMITED" {
		t.Errorf("code = %v, want RATE_LIMITED", body["code"])
	}
}

func TestRateLimiter_LimitsArePerViewer(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		FeedRate:        1,
		FeedBurst:       1,
		CleanupInterval: time.Minute,
	}
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// viewer-aがバーストを使い切ってもviewer-bは通る
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, limiterRequest("viewer-a"))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, limiterRequest("viewer-a"))
	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Fatalf("viewer-a second request: status = %d, want 429", w.Result().StatusCode)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, limiterRequest("viewer-b"))
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("viewer-b: status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", got)
	}
}

func TestRateLimiter_FeedLimiterIndependentOfGeneral(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		FeedRate:        1,
		FeedBurst:       2,
		CleanupInterval: time.Minute,
	}
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	feedHandler := rl.FeedMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// フィード制限のバーストは2回分あり、General側の消費に影響されない
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		feedHandler.ServeHTTP(w, limiterRequest("viewer-1"))
		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("feed request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	if got := rl.FeedLimiterCount(); got != 1 {
		t.Errorf("FeedLimiterCount = %d, want 1", got)
	}
	if got := rl.GeneralLimiterCount(); got != 0 {
		t.Errorf("GeneralLimiterCount = %d, want 0", got)
	}
}

func TestRateLimiter_MissingViewerReturns401(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached without a viewer id")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestNewRateLimiterConfig_ConvertsPerMinuteRates(t *testing.T) {
	cfg := NewRateLimiterConfig(120, 60)

	if cfg.GeneralRate != 2 {
		t.Errorf("GeneralRate = %v, want 2", cfg.GeneralRate)
	}
	if cfg.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", cfg.GeneralBurst)
	}
	if cfg.FeedRate != 1 {
		t.Errorf("FeedRate = %v, want 1", cfg.FeedRate)
	}
	if cfg.FeedBurst != 60 {
		t.Errorf("FeedBurst = %d, want 60", cfg.FeedBurst)
	}
}
