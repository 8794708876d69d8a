package routes

import (
	"net/http"
	"time"

	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/handlers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// RegisterRoutes wires the contact API onto the router. A coarse per-IP
// guard sits in front of the fine-grained fingerprint limiter to absorb
// floods before they reach the pipeline at all.
func RegisterRoutes(router chi.Router, contactHandler *handlers.ContactHandler) {
	router.Route("/api", func(r chi.Router) {
		r.Use(httprate.Limit(
			30,
			1*time.Minute,
			// Key on the socket peer, not forwarding headers an
			// attacker controls.
			httprate.WithKeyByIP(),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate_limit_exceeded","message":"Too many requests."}`))
			}),
		))

		r.Post("/contact", contactHandler.Submit)
		r.MethodNotAllowed(contactHandler.MethodNotAllowed)
	})
}
