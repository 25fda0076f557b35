package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/hoshokan/internal/model"
)

func testLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     2,
		GeneralBurst:    5,
		UploadRate:      1,
		UploadBurst:     2,
		CleanupInterval: 1 * time.Minute,
	}
}

func authedRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	return req.WithContext(ContextWithUser(req.Context(), userID, model.RoleUser))
}

func TestRateLimiter_General_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig())
	defer rl.Stop()

	handlerCallCount := 0
	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCallCount++
		w.WriteHeader(http.StatusOK)
	}))

	// バースト内の5リクエストは全て通る
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authedRequest("user-1"))
		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	if handlerCallCount != 5 {
		t.Errorf("handler call count = %d, want 5", handlerCallCount)
	}
}

func TestRateLimiter_General_Returns429WhenExceeded(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authedRequest("user-1"))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest("user-1"))

	resp := w.Result()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}
	if retryAfter := resp.Header.Get("Retry-After"); retryAfter == "" {
		t.Error("Retry-After header should be set")
	} else if sec, err := strconv.Atoi(retryAfter); err != nil || sec < 1 {
		t.Errorf("Retry-After = %q, want integer >= 1", retryAfter)
	}
}

// ユーザーごとに独立したリミッターが使われることを検証
func TestRateLimiter_PerUserIsolation(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// user-1のバーストを使い切る
	for i := 0; i < 6; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authedRequest("user-1"))
	}

	// user-2は影響を受けない
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest("user-2"))
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("limiter count = %d, want 2", rl.GeneralLimiterCount())
	}
}

// アップロード用リミッターがAPI全般とは独立に動作することを検証
func TestRateLimiter_UploadTierIsIndependent(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig())
	defer rl.Stop()

	general := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	upload := rl.UploadMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// アップロードのバースト(2)を使い切る
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		upload.ServeHTTP(w, authedRequest("user-1"))
		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("upload request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	w := httptest.NewRecorder()
	upload.ServeHTTP(w, authedRequest("user-1"))
	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("upload status = %d, want %d", w.Result().StatusCode, http.StatusTooManyRequests)
	}

	// API全般は引き続き通る
	w = httptest.NewRecorder()
	general.ServeHTTP(w, authedRequest("user-1"))
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("general status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestRateLimiter_Unauthenticated_Returns401(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// getOrCreateが返すリミッターは常にマップに登録されているものと同一であることを検証。
// 同一ユーザーへの連続呼び出しは同じインスタンスを返し、トークン消費状態が引き継がれる。
func TestLimiterTier_GetOrCreateReturnsRegisteredLimiter(t *testing.T) {
	tier := &limiterTier{
		name:     "general",
		rate:     1,
		burst:    1,
		limiters: make(map[string]*userLimiter),
	}

	first := tier.getOrCreate("user-1")
	second := tier.getOrCreate("user-1")
	if first != second {
		t.Error("consecutive getOrCreate calls must return the same limiter instance")
	}
	if tier.count() != 1 {
		t.Errorf("entry count = %d, want 1", tier.count())
	}

	// cleanupで削除された後は新しいエントリが登録される
	tier.cleanup(time.Now().Add(time.Minute), 0)
	if tier.count() != 0 {
		t.Fatalf("entry count after cleanup = %d, want 0", tier.count())
	}

	third := tier.getOrCreate("user-1")
	if third == nil {
		t.Fatal("getOrCreate returned nil after cleanup")
	}
	if tier.count() != 1 {
		t.Errorf("entry count after re-create = %d, want 1", tier.count())
	}
}

// cleanupと並行してgetOrCreateを呼んでも、削除済みエントリのリミッターが
// マップ外のまま返されないことを検証。終了後はエントリが正確に1件に収束する。
func TestLimiterTier_GetOrCreateConcurrentWithCleanup(t *testing.T) {
	tier := &limiterTier{
		name:     "general",
		rate:     1,
		burst:    1,
		limiters: make(map[string]*userLimiter),
	}

	stop := make(chan struct{})
	cleanupDone := make(chan struct{})

	// エントリを即座に期限切れにするクリーンアップを回し続ける
	go func() {
		defer close(cleanupDone)
		for {
			select {
			case <-stop:
				return
			default:
				tier.cleanup(time.Now().Add(time.Minute), 0)
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				if tier.getOrCreate("user-1") == nil {
					t.Error("getOrCreate returned nil")
					return
				}
			}
		}()
	}

	wg.Wait()
	close(stop)
	<-cleanupDone

	first := tier.getOrCreate("user-1")
	second := tier.getOrCreate("user-1")
	if first != second {
		t.Error("getOrCreate must converge to a single registered limiter")
	}
	if tier.count() != 1 {
		t.Errorf("entry count = %d, want 1", tier.count())
	}
}

func TestNewRateLimiterConfig(t *testing.T) {
	cfg := NewRateLimiterConfig(120, 10)
	if cfg.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", cfg.GeneralBurst)
	}
	if cfg.UploadBurst != 10 {
		t.Errorf("UploadBurst = %d, want 10", cfg.UploadBurst)
	}
	if float64(cfg.GeneralRate) != 2.0 {
		t.Errorf("GeneralRate = %v, want 2.0", cfg.GeneralRate)
	}
}
