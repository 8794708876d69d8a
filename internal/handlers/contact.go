package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/models"
	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/services"
	pkghttp "github.com/Sudo-psc/saraiva-vision-site-sub012/pkg/http"
)

// ContactSubmitter defines the interface for the submission pipeline
type ContactSubmitter interface {
	Submit(ctx context.Context, in services.SubmitInput) (*services.SubmitResult, *services.SubmitError)
}

// ContactHandler handles contact form HTTP requests
type ContactHandler struct {
	service  ContactSubmitter
	ipConfig *pkghttp.IPConfig
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(service ContactSubmitter, ipConfig *pkghttp.IPConfig) *ContactHandler {
	return &ContactHandler{service: service, ipConfig: ipConfig}
}

// ContactRequest represents the contact form request body. Unknown fields
// (honeypot decoys among them) are captured separately for the classifier.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
	Consent bool   `json:"consent"`
	Token   string `json:"token"`

	FormLoadAt  int64 `json:"_formLoadTime"`
	SubmittedAt int64 `json:"_submissionTime"`
}

// ContactResponse represents a successful submission response
type ContactResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ContactID      string `json:"contactId"`
	MessageID      string `json:"messageId,omitempty"`
	Timestamp      string `json:"timestamp"`
	DeliveryMethod string `json:"deliveryMethod"`
}

// Submit handles POST /api/contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		// MaxBytesReader reports oversized bodies as a read error
		pkghttp.WriteError(w, http.StatusRequestEntityTooLarge,
			models.CodePayloadTooLarge, "request body exceeds the maximum allowed size")
		return
	}

	var req ContactRequest
	if err := json.Unmarshal(body, &req); err != nil {
		pkghttp.WriteBadRequest(w, models.CodeValidationError, "request body must be valid JSON")
		return
	}

	// Second decode keeps every raw field, so decoy fields with any name
	// reach the spam classifier.
	fields := rawFields(body)

	input := services.SubmitInput{
		Fields:         fields,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Message:        req.Message,
		Consent:        req.Consent,
		Token:          req.Token,
		FormLoadAt:     req.FormLoadAt,
		SubmittedAt:    req.SubmittedAt,
		ClientIP:       pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent:      r.Header.Get("User-Agent"),
		AcceptLanguage: r.Header.Get("Accept-Language"),
		Referer:        r.Header.Get("Referer"),
	}

	result, submitErr := h.service.Submit(r.Context(), input)
	if submitErr != nil {
		writeSubmitError(w, submitErr)
		return
	}

	setRateLimitHeaders(w, result.RateLimit.Limit, result.RateLimit.Remaining, result.RateLimit.ResetAt)

	pkghttp.WriteJSON(w, http.StatusOK, ContactResponse{
		Success:        true,
		Message:        "Mensagem enviada com sucesso! Entraremos em contato em breve.",
		ContactID:      result.ContactID,
		MessageID:      result.MessageID,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		DeliveryMethod: string(result.DeliveryMethod),
	})
}

// MethodNotAllowed answers requests with an unsupported method
func (h *ContactHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "POST, OPTIONS")
	pkghttp.WriteError(w, http.StatusMethodNotAllowed,
		models.CodeMethodNotAllowed, "only POST is supported")
}

func writeSubmitError(w http.ResponseWriter, submitErr *services.SubmitError) {
	if submitErr.RateLimit != nil {
		setRateLimitHeaders(w, submitErr.RateLimit.Limit, submitErr.RateLimit.Remaining, submitErr.RateLimit.ResetAt)
	}
	if submitErr.SpamBlocked {
		w.Header().Set("X-Spam-Detection", "blocked")
	}

	switch submitErr.Status {
	case http.StatusTooManyRequests:
		pkghttp.WriteTooManyRequests(w, submitErr.Code, submitErr.Message, submitErr.RetryAfter)
	case http.StatusForbidden:
		pkghttp.WriteForbidden(w, submitErr.Code, submitErr.Message)
	case http.StatusServiceUnavailable:
		pkghttp.WriteServiceUnavailable(w, submitErr.Code, submitErr.Message)
	case http.StatusInternalServerError:
		pkghttp.WriteInternalError(w, submitErr.Code, submitErr.Message)
	default:
		pkghttp.WriteErrorWithDetails(w, submitErr.Status, submitErr.Code, submitErr.Message, submitErr.Details)
	}
}

func setRateLimitHeaders(w http.ResponseWriter, limit, remaining int, resetAt time.Time) {
	w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
	w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
	if !resetAt.IsZero() {
		w.Header().Set("X-RateLimit-Reset", resetAt.UTC().Format(time.RFC3339))
	}
}

// rawFields flattens the JSON body's top level into strings for the
// classifier's field inspection.
func rawFields(body []byte) map[string]string {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}

	fields := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			fields[key] = v
		case bool:
			fields[key] = fmt.Sprintf("%t", v)
		case float64:
			fields[key] = fmt.Sprintf("%v", v)
		}
	}
	return fields
}
