package mid

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitRejectsAfterBurst(t *testing.T) {
	rejected := 0
	h := RateLimit(RateLimitOpts{RPS: 0.001, Burst: 2, OnReject: func(*http.Request) { rejected++ }})(okHandler())

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("burst should pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", codes[2])
	}
	if rejected != 1 {
		t.Fatalf("expected OnReject once, got %d", rejected)
	}
}

func TestRateLimitIsPerClient(t *testing.T) {
	h := RateLimit(RateLimitOpts{RPS: 0.001, Burst: 1})(okHandler())

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("client %s should have its own bucket, got %d", addr, rec.Code)
		}
	}
}

func TestRateLimitDisabled(t *testing.T) {
	h := RateLimit(RateLimitOpts{})(okHandler())
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("disabled limiter rejected request %d", i)
		}
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.7:4000"
	if got := clientKey(req); got != "192.0.2.7" {
		t.Fatalf("got %q", got)
	}
	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.1")
	if got := clientKey(req); got != "203.0.113.9" {
		t.Fatalf("got %q", got)
	}
}
