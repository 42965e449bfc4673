package middleware

import (
	"net/http"
	"strconv"

	"github.com/tendant/turnaplay-teams/internal/config"
)

type responseHeader struct {
	name  string
	value string
}

// SecurityHeaders sets the configured hardening headers on every response.
// Rosters and invite lists are specific to the caller, so Cache-Control
// should stay no-store unless a proxy in front handles it.
func SecurityHeaders(cfg config.SecurityHeadersConfig) func(http.Handler) http.Handler {
	headers := securityHeaders(cfg)
	if len(headers) == 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, hdr := range headers {
				h.Set(hdr.name, hdr.value)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// securityHeaders resolves cfg into the headers to send. Empty values are
// skipped.
func securityHeaders(cfg config.SecurityHeadersConfig) []responseHeader {
	if !cfg.Enabled {
		return nil
	}

	candidates := []responseHeader{
		{"Content-Security-Policy", cfg.CSP},
		{"X-Frame-Options", cfg.FrameOptions},
		{"X-Content-Type-Options", cfg.ContentTypeOptions},
		{"X-XSS-Protection", cfg.XSSProtection},
		{"Referrer-Policy", cfg.ReferrerPolicy},
		{"Permissions-Policy", cfg.PermissionsPolicy},
		{"Cache-Control", cfg.CacheControl},
	}
	if cfg.HSTSMaxAge > 0 {
		candidates = append(candidates, responseHeader{
			"Strict-Transport-Security", "max-age=" + strconv.Itoa(cfg.HSTSMaxAge) + "; includeSubDomains",
		})
	}

	headers := candidates[:0]
	for _, hdr := range candidates {
		if hdr.value != "" {
			headers = append(headers, hdr)
		}
	}
	return headers
}
