package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/shandysiswandi/ideabox/internal/pkg/config"
	"github.com/shandysiswandi/ideabox/internal/pkg/instrument"
)

type staticID string

func (s staticID) Generate() string { return string(s) }

func newTestRouter(t *testing.T, yaml string) *Router {
	t.Helper()
	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return NewRouter(Config{Config: cfg, UUID: staticID("generated-cid"), Instrument: instrument.NewNoop()})
}

type okResponse struct{}

func (okResponse) Message() string { return "ok" }

func okHandler(*Request) (any, error) { return okResponse{}, nil }

func TestRouteGroup(t *testing.T) {
	tests := []struct {
		route string
		want  string
	}{
		{route: "/api/v1/identity/otp/request", want: RouteGroupOTP},
		{route: "/api/v1/identity/otp/verify", want: RouteGroupOTP},
		{route: "/api/v1/ideas", want: RouteGroupIdea},
		{route: "/api/v1/ideas/attachments/:key", want: RouteGroupIdea},
		{route: "/health", want: RouteGroupHealth},
		{route: "/metrics", want: RouteGroupOther},
	}

	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			if got := routeGroup(tt.route); got != tt.want {
				t.Fatalf("routeGroup(%q) = %q, want %q", tt.route, got, tt.want)
			}
		})
	}
}

func TestMaintenance(t *testing.T) {
	tests := []struct {
		name       string
		endpoints  string
		path       string
		wantStatus int
	}{
		{name: "otp group blocks verify", endpoints: "otp", path: "/api/v1/identity/otp/verify", wantStatus: http.StatusServiceUnavailable},
		{name: "otp group leaves ideas open", endpoints: "otp", path: "/api/v1/ideas", wantStatus: http.StatusOK},
		{name: "exact route", endpoints: "/api/v1/identity/otp/request", path: "/api/v1/identity/otp/request", wantStatus: http.StatusServiceUnavailable},
		{name: "exact route is not a prefix", endpoints: "/api/v1/identity/otp/request", path: "/api/v1/identity/otp/verify", wantStatus: http.StatusOK},
		{name: "empty list", endpoints: `""`, path: "/api/v1/identity/otp/verify", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			r := newTestRouter(t, "app:\n  maintenance:\n    endpoints: "+tt.endpoints+"\n    retry_after_seconds: 120\n")
			r.POST("/api/v1/identity/otp/request", okHandler)
			r.POST("/api/v1/identity/otp/verify", okHandler)
			r.POST("/api/v1/ideas", okHandler)
			rec := httptest.NewRecorder()

			// Act
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, nil))

			// Assert
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusServiceUnavailable {
				if got := rec.Header().Get("Retry-After"); got != "120" {
					t.Fatalf("Retry-After = %q", got)
				}
				var body errorResponse
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Message != "service is under maintenance" {
					t.Fatalf("body = %+v, err = %v", body, err)
				}
			}
		})
	}
}

func TestCorrelationID(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "generated when absent", want: "generated-cid"},
		{name: "caller id kept", headers: map[string]string{HeaderCorrelationID: "web-7f3a.1"}, want: "web-7f3a.1"},
		{name: "request id fallback", headers: map[string]string{HeaderRequestID: "lb:42"}, want: "lb:42"},
		{name: "spaces rejected", headers: map[string]string{HeaderCorrelationID: "has space"}, want: "generated-cid"},
		{name: "too long rejected", headers: map[string]string{HeaderCorrelationID: strings.Repeat("a", maxCorrelationIDLen+1)}, want: "generated-cid"},
		{
			name:    "bad canonical falls through to request id",
			headers: map[string]string{HeaderCorrelationID: "a/b", HeaderRequestID: "ok-1"},
			want:    "ok-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			var seen string
			r := newTestRouter(t, "app: {}\n")
			r.GET("/api/v1/ideas", func(req *Request) (any, error) {
				seen = instrument.GetCorrelationID(req.Context())
				return okResponse{}, nil
			})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ideas", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			// Act
			r.ServeHTTP(rec, req)

			// Assert
			if seen != tt.want {
				t.Fatalf("context cID = %q, want %q", seen, tt.want)
			}
			if got := rec.Header().Get(HeaderCorrelationID); got != tt.want {
				t.Fatalf("response header = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		order   []string
		remote  string
		want    string
	}{
		{name: "peer address", remote: "10.0.0.9:5123", order: defaultClientIPHeaders, want: "10.0.0.9"},
		{name: "leftmost forwarded", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, remote: "10.0.0.1:80", order: defaultClientIPHeaders, want: "203.0.113.7"},
		{name: "true client ip first", headers: map[string]string{"True-Client-IP": "198.51.100.2", "X-Real-IP": "198.51.100.3"}, remote: "10.0.0.1:80", order: defaultClientIPHeaders, want: "198.51.100.2"},
		{name: "garbage header skipped", headers: map[string]string{"X-Real-IP": "not-an-ip"}, remote: "10.0.0.1:80", order: defaultClientIPHeaders, want: "10.0.0.1"},
		{name: "configured order", headers: map[string]string{"CF-Connecting-IP": "2001:db8::1", "X-Real-IP": "198.51.100.3"}, remote: "10.0.0.1:80", order: []string{"CF-Connecting-IP"}, want: "2001:db8::1"},
		{name: "mapped v4 unmapped", remote: "[::ffff:192.0.2.1]:80", order: nil, want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			// Act
			got := clientIP(req, tt.order)

			// Assert
			if got != netip.MustParseAddr(tt.want) {
				t.Fatalf("clientIP() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecoverer(t *testing.T) {
	// Arrange
	r := newTestRouter(t, "app: {}\n")
	r.POST("/api/v1/identity/otp/verify", func(*Request) (any, error) { panic("nil store") })
	rec := httptest.NewRecorder()

	// Act
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/identity/otp/verify", nil))

	// Assert
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Message != "Internal server error" {
		t.Fatalf("body = %+v, err = %v", body, err)
	}
}

func TestRecoverer_AfterStreamStarted(t *testing.T) {
	// Arrange
	r := newTestRouter(t, "app: {}\n")
	r.GETStream("/api/v1/ideas/attachments/:key", func(w http.ResponseWriter, _ *Request) error {
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("%PDF"))
		panic("storage reader failed")
	})
	rec := httptest.NewRecorder()

	// Act
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ideas/attachments/a.pdf", nil))

	// Assert
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want the already sent 200", rec.Code)
	}
	if rec.Body.String() != "%PDF" {
		t.Fatalf("body = %q, want only the streamed bytes", rec.Body.String())
	}
}
