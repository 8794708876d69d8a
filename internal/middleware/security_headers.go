package middleware

import "net/http"

// SecurityHeadersConfig holds security headers configuration
type SecurityHeadersConfig struct {
	Env string
}

// SecurityHeaders returns a middleware that adds security headers to all
// responses. Contact responses carry PII, so caching is disabled outright.
func SecurityHeaders(config SecurityHeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// X-Frame-Options: Clickjacking protection
			w.Header().Set("X-Frame-Options", "DENY")

			// X-Content-Type-Options: MIME sniffing prevention
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// X-XSS-Protection: Legacy XSS protection header (for older browsers)
			w.Header().Set("X-XSS-Protection", "1; mode=block")

			// Referrer-Policy: sends referrer only for same-origin requests
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// Content-Security-Policy: this service only serves JSON
			var csp string
			if config.Env == "production" {
				csp = "default-src 'none'; frame-ancestors 'none'; base-uri 'self'"
			} else {
				csp = "default-src 'self'; frame-ancestors 'self'; base-uri 'self'"
			}
			w.Header().Set("Content-Security-Policy", csp)

			// Cache busting: responses must never be replayed from a cache
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
			w.Header().Set("Pragma", "no-cache")

			// Strict-Transport-Security: HTTPS enforcement in production
			if config.Env == "production" && (r.Header.Get("X-Forwarded-Proto") == "https" || r.URL.Scheme == "https") {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			}

			// Permissions-Policy: none of these browser APIs are needed
			w.Header().Set("Permissions-Policy",
				"accelerometer=(), "+
					"camera=(), "+
					"geolocation=(), "+
					"gyroscope=(), "+
					"magnetometer=(), "+
					"microphone=(), "+
					"payment=(), "+
					"usb=()",
			)

			// X-DNS-Prefetch-Control: Prevents DNS prefetching to avoid information leakage
			w.Header().Set("X-DNS-Prefetch-Control", "off")

			// Cross-Origin-Opener-Policy: Isolates browsing context
			w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")

			next.ServeHTTP(w, r)
		})
	}
}
