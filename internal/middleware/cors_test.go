package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func serve(origins []string, method, origin string) *httptest.ResponseRecorder {
	h := CORS(origins)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(method, "/api/chat", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCORSExplicitOriginAllowsCredentials(t *testing.T) {
	t.Parallel()

	w := serve([]string{"https://rump.example"}, http.MethodGet, "https://rump.example")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://rump.example" {
		t.Fatalf("unexpected allow-origin: %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatal("expected credentials for explicit origin")
	}
}

func TestCORSWildcardWithoutCredentials(t *testing.T) {
	t.Parallel()

	w := serve([]string{"*"}, http.MethodGet, "https://elsewhere.example")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://elsewhere.example" {
		t.Fatalf("unexpected allow-origin: %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Fatal("wildcard match must not allow credentials")
	}
}

func TestCORSRejectsUnknownOriginAndShortCircuitsPreflight(t *testing.T) {
	t.Parallel()

	w := serve([]string{"https://rump.example"}, http.MethodOptions, "https://evil.example")
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unknown origin must not be allowed")
	}
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected preflight to short-circuit, got %d", w.Code)
	}
}
