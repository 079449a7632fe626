package line

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMuxRoutes(t *testing.T) {
	webhookHit := false
	mux := NewMux(ServerOptions{
		CallbackPath: "/callback",
		Webhook: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			webhookHit = true
			w.WriteHeader(http.StatusOK)
		}),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	})

	cases := []struct {
		method, path string
		code         int
		body         string
	}{
		{http.MethodGet, "/", http.StatusOK, "OK"},
		{http.MethodGet, "/healthz", http.StatusOK, "OK"},
		{http.MethodGet, "/metrics", http.StatusOK, "# metrics"},
		{http.MethodGet, "/callback", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/nope", http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != tc.code {
			t.Fatalf("%s %s: code = %d, want %d", tc.method, tc.path, rec.Code, tc.code)
		}
		if tc.body != "" && rec.Body.String() != tc.body {
			t.Fatalf("%s %s: body = %q", tc.method, tc.path, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/callback", nil))
	if !webhookHit || rec.Code != http.StatusOK {
		t.Fatalf("callback not routed: code=%d", rec.Code)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	h := withRecover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/callback", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d, want 500", rec.Code)
	}
}
