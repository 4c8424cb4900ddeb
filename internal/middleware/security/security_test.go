package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractClientIP(t *testing.T) {
	resolver, err := NewIPResolver(nil)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"direct", "203.0.113.7:5555", nil, "203.0.113.7"},
		{"untrusted peer ignores headers", "203.0.113.7:5555", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "203.0.113.7"},
		{"trusted proxy forwards", "10.0.0.2:80", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.9"}, "1.2.3.4"},
		{"real ip fallback", "127.0.0.1:80", map[string]string{"X-Real-IP": "5.6.7.8"}, "5.6.7.8"},
		{"garbage header", "192.168.1.1:80", map[string]string{"X-Forwarded-For": "nope"}, "192.168.1.1"},
		{"no port", "198.51.100.1", nil, "198.51.100.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := resolver.ExtractClientIP(r); got != tt.want {
				t.Fatalf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewIPResolverRejectsBadCIDR(t *testing.T) {
	if _, err := NewIPResolver([]string{"10.0.0.0/99"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing nosniff")
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS must only be sent over TLS")
	}

	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Header().Get("Strict-Transport-Security") != "max-age=31536000; includeSubDomains" {
		t.Fatalf("HSTS = %q", rec.Header().Get("Strict-Transport-Security"))
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("wildcard preflight", func(t *testing.T) {
		h := CORS(DefaultCORSConfig("*"))(next)
		r := httptest.NewRequest(http.MethodOptions, "/api/entries/1", nil)
		r.Header.Set("Origin", "http://dash.local")
		r.Header.Set("Access-Control-Request-Method", "PUT")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Fatal("missing allow origin")
		}
		if rec.Header().Get("Access-Control-Allow-Methods") == "" {
			t.Fatal("missing allow methods")
		}
	})

	t.Run("listed origin echoed", func(t *testing.T) {
		h := CORS(DefaultCORSConfig("http://a.local, http://b.local"))(next)
		r := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
		r.Header.Set("Origin", "http://b.local")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if rec.Header().Get("Access-Control-Allow-Origin") != "http://b.local" {
			t.Fatalf("allow origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
		}
	})

	t.Run("unlisted origin passes without headers", func(t *testing.T) {
		h := CORS(DefaultCORSConfig("http://a.local"))(next)
		r := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
		r.Header.Set("Origin", "http://evil.local")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if rec.Header().Get("Access-Control-Allow-Origin") != "" || rec.Code != http.StatusOK {
			t.Fatalf("unexpected CORS response %d %v", rec.Code, rec.Header())
		}
	})
}
