package router

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/shandysiswandi/ideabox/internal/pkg/config"
)

var defaultClientIPHeaders = []string{"True-Client-IP", "X-Real-IP", "X-Forwarded-For"}

// middlewareIP rewrites RemoteAddr to the client address so request logs of
// OTP and idea calls show who made them. Headers are tried in the order of
// app.server.client_ip_headers; the read is per request to follow reloads.
func middlewareIP(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers := defaultClientIPHeaders
			if cfg != nil {
				if hs := cfg.GetArray("app.server.client_ip_headers"); len(hs) > 0 {
					headers = hs
				}
			}
			if ip := clientIP(r, headers); ip.IsValid() {
				r.RemoteAddr = ip.String()
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the first parsable address among headers, falling back to
// the peer address. X-Forwarded-For contributes its leftmost entry.
func clientIP(r *http.Request, headers []string) netip.Addr {
	for _, h := range headers {
		v := r.Header.Get(strings.TrimSpace(h))
		if v == "" {
			continue
		}
		first, _, _ := strings.Cut(v, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.Unmap()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return netip.Addr{}
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}
	}
	return addr.Unmap()
}
