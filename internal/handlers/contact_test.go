package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/handlers"
	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/models"
	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/ratelimit"
	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/services"
	pkghttp "github.com/Sudo-psc/saraiva-vision-site-sub012/pkg/http"
)

// MockSubmitter implements handlers.ContactSubmitter
type MockSubmitter struct {
	result    *services.SubmitResult
	submitErr *services.SubmitError
	lastInput services.SubmitInput
}

func (m *MockSubmitter) Submit(_ context.Context, in services.SubmitInput) (*services.SubmitResult, *services.SubmitError) {
	m.lastInput = in
	return m.result, m.submitErr
}

func newHandler(submitter *MockSubmitter) *handlers.ContactHandler {
	return handlers.NewContactHandler(submitter, &pkghttp.IPConfig{})
}

func validBody() string {
	return `{
		"name": "Maria Silva",
		"email": "maria@example.com",
		"phone": "+55 33 99999-1234",
		"message": "Gostaria de agendar uma consulta.",
		"consent": true,
		"token": "recaptcha-token",
		"_formLoadTime": 1700000000000,
		"_submissionTime": 1700000060000,
		"website": ""
	}`
}

func postContact(handler *handlers.ContactHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept-Language", "pt-BR")
	req.RemoteAddr = "203.0.113.7:52011"

	rr := httptest.NewRecorder()
	handler.Submit(rr, req)
	return rr
}

func successResult() *services.SubmitResult {
	return &services.SubmitResult{
		ContactID:      "contact-1",
		MessageID:      "outbox-1",
		DeliveryMethod: models.DeliveryImmediate,
		RateLimit: ratelimit.Result{
			Allowed:   true,
			Limit:     5,
			Remaining: 4,
			ResetAt:   time.Date(2026, 1, 15, 10, 15, 0, 0, time.UTC),
		},
	}
}

func TestContactSubmit_Success(t *testing.T) {
	submitter := &MockSubmitter{result: successResult()}
	rr := postContact(newHandler(submitter), validBody())

	require.Equal(t, http.StatusOK, rr.Code)

	var resp handlers.ContactResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "contact-1", resp.ContactID)
	assert.Equal(t, "outbox-1", resp.MessageID)
	assert.Equal(t, "immediate", resp.DeliveryMethod)
	assert.NotEmpty(t, resp.Timestamp)

	assert.Equal(t, "5", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", rr.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "2026-01-15T10:15:00Z", rr.Header().Get("X-RateLimit-Reset"))
}

func TestContactSubmit_PassesRequestContextToService(t *testing.T) {
	submitter := &MockSubmitter{result: successResult()}
	postContact(newHandler(submitter), validBody())

	in := submitter.lastInput
	assert.Equal(t, "Maria Silva", in.Name)
	assert.Equal(t, "203.0.113.7", in.ClientIP)
	assert.Equal(t, "Mozilla/5.0", in.UserAgent)
	assert.Equal(t, "pt-BR", in.AcceptLanguage)
	assert.Equal(t, int64(1700000000000), in.FormLoadAt)
	assert.Equal(t, int64(1700000060000), in.SubmittedAt)

	// Decoy fields reach the classifier even though the typed request
	// struct does not know them
	_, hasDecoy := in.Fields["website"]
	assert.True(t, hasDecoy)
}

func TestContactSubmit_InvalidJSON(t *testing.T) {
	submitter := &MockSubmitter{}
	rr := postContact(newHandler(submitter), "{not json")

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.CodeValidationError, resp.Error)
}

func TestContactSubmit_RateLimited(t *testing.T) {
	submitter := &MockSubmitter{submitErr: &services.SubmitError{
		Status:     http.StatusTooManyRequests,
		Code:       models.CodeRateLimitExceeded,
		Message:    "Too many requests. Please try again later.",
		RetryAfter: 120,
		RateLimit: &ratelimit.Result{
			Limit:     5,
			Remaining: 0,
			ResetAt:   time.Date(2026, 1, 15, 10, 15, 0, 0, time.UTC),
		},
	}}

	rr := postContact(newHandler(submitter), validBody())

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "120", rr.Header().Get("Retry-After"))
	assert.Equal(t, "5", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.CodeRateLimitExceeded, resp.Error)
}

func TestContactSubmit_SpamBlocked(t *testing.T) {
	submitter := &MockSubmitter{submitErr: &services.SubmitError{
		Status:      http.StatusBadRequest,
		Code:        models.CodeSpamDetected,
		Message:     "Request blocked.",
		SpamBlocked: true,
		RateLimit: &ratelimit.Result{
			Limit:     5,
			Remaining: 2,
			ResetAt:   time.Date(2026, 1, 15, 10, 15, 0, 0, time.UTC),
		},
	}}

	rr := postContact(newHandler(submitter), validBody())

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "blocked", rr.Header().Get("X-Spam-Detection"))

	// Rejection body is generic, no detector detail leaks
	assert.NotContains(t, rr.Body.String(), "honeypot")
}

func TestContactSubmit_VerificationRejected(t *testing.T) {
	submitter := &MockSubmitter{submitErr: &services.SubmitError{
		Status:  http.StatusForbidden,
		Code:    models.CodeRecaptchaFailed,
		Message: "Human verification failed. Please try again.",
	}}

	rr := postContact(newHandler(submitter), validBody())

	assert.Equal(t, http.StatusForbidden, rr.Code)

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.CodeRecaptchaFailed, resp.Error)
	assert.Empty(t, resp.Details)
}

func TestContactSubmit_ServiceUnavailable(t *testing.T) {
	submitter := &MockSubmitter{submitErr: &services.SubmitError{
		Status:  http.StatusServiceUnavailable,
		Code:    models.CodeServiceUnavailable,
		Message: "The contact service is temporarily unavailable.",
	}}

	rr := postContact(newHandler(submitter), validBody())

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.CodeServiceUnavailable, resp.Error)
}

func TestContactSubmit_ValidationDetails(t *testing.T) {
	submitter := &MockSubmitter{submitErr: &services.SubmitError{
		Status:  http.StatusBadRequest,
		Code:    models.CodeValidationError,
		Message: "Please check the submitted fields.",
		Details: map[string]string{
			"email":   "must be a valid email address",
			"message": "must have a minimum of 10 characters",
		},
	}}

	rr := postContact(newHandler(submitter), validBody())

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "must be a valid email address", resp.Details["email"])
	assert.Equal(t, "must have a minimum of 10 characters", resp.Details["message"])
}

func TestContactMethodNotAllowed(t *testing.T) {
	handler := newHandler(&MockSubmitter{})

	req := httptest.NewRequest(http.MethodGet, "/api/contact", nil)
	rr := httptest.NewRecorder()
	handler.MethodNotAllowed(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "POST, OPTIONS", rr.Header().Get("Allow"))

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.CodeMethodNotAllowed, resp.Error)
}
