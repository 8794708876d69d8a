package middleware

import (
	"mime"
	"net/http"

	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/models"
	pkghttp "github.com/Sudo-psc/saraiva-vision-site-sub012/pkg/http"
)

// PayloadGuardConfig holds request body policy.
type PayloadGuardConfig struct {
	AllowedContentTypes []string
	MaxBodyBytes        int64
}

// DefaultPayloadGuardConfig allows JSON bodies up to 1 MiB.
func DefaultPayloadGuardConfig() PayloadGuardConfig {
	return PayloadGuardConfig{
		AllowedContentTypes: []string{"application/json"},
		MaxBodyBytes:        1 << 20,
	}
}

// PayloadGuard rejects requests before any business logic runs: unlisted
// content types get 415, oversized declared lengths get 413, and the body
// reader is capped so undeclared oversized bodies fail mid-read.
func PayloadGuard(config PayloadGuardConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
				mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
				if err != nil || !contentTypeAllowed(mediaType, config.AllowedContentTypes) {
					pkghttp.WriteError(w, http.StatusUnsupportedMediaType,
						models.CodeUnsupportedMedia, "Content-Type must be application/json")
					return
				}

				if r.ContentLength > config.MaxBodyBytes {
					pkghttp.WriteError(w, http.StatusRequestEntityTooLarge,
						models.CodePayloadTooLarge, "request body exceeds the maximum allowed size")
					return
				}

				r.Body = http.MaxBytesReader(w, r.Body, config.MaxBodyBytes)
			}

			next.ServeHTTP(w, r)
		})
	}
}

func contentTypeAllowed(mediaType string, allowed []string) bool {
	for _, t := range allowed {
		if mediaType == t {
			return true
		}
	}
	return false
}
