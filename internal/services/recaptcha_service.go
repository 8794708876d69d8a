package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkglogger "github.com/Sudo-psc/saraiva-vision-site-sub012/pkg/logger"
)

// SkipScore marks a verification that was bypassed because no secret is
// configured. It is outside the real score range so a skip can never be
// mistaken for a genuine pass in logs or stored data.
const SkipScore = -1.0

// VerificationResult is the structured outcome of a verification attempt.
// Service and network failures are folded into Success=false with Error set;
// they never propagate as panics or unhandled errors.
type VerificationResult struct {
	Success bool
	Score   float64
	Skipped bool
	Error   string
}

// RecaptchaService wraps the external human-verification endpoint.
type RecaptchaService struct {
	secretKey string
	minScore  float64
	verifyURL string
	client    *http.Client
	logger    *slog.Logger
}

// NewRecaptchaService creates a verification delegate. An empty secretKey
// enables skip mode.
func NewRecaptchaService(secretKey string, minScore float64, verifyURL string, timeout time.Duration, logger *slog.Logger) *RecaptchaService {
	return &RecaptchaService{
		secretKey: secretKey,
		minScore:  minScore,
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// Configured reports whether a verification secret is present.
func (s *RecaptchaService) Configured() bool {
	return s.secretKey != ""
}

// siteverifyResponse is the external endpoint's response shape.
type siteverifyResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks the token against the external endpoint. Without a secret it
// short-circuits to success with the skip marker score, logged loudly so the
// bypass is never mistaken for a real pass. A verification that technically
// succeeds but scores below the minimum is treated as failure.
func (s *RecaptchaService) Verify(ctx context.Context, token, fingerprint string) VerificationResult {
	if !s.Configured() {
		s.logger.Warn("recaptcha verification skipped: no secret configured",
			slog.String("fingerprint", pkglogger.FingerprintPrefix(fingerprint)))
		return VerificationResult{Success: true, Score: SkipScore, Skipped: true}
	}

	form := url.Values{}
	form.Set("secret", s.secretKey)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return VerificationResult{Error: fmt.Sprintf("build verification request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("recaptcha verification request failed", slog.Any("error", err))
		return VerificationResult{Error: "verification service unreachable"}
	}
	defer resp.Body.Close()

	var body siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		s.logger.Error("recaptcha verification response invalid", slog.Any("error", err))
		return VerificationResult{Error: "verification response invalid"}
	}

	if !body.Success {
		return VerificationResult{
			Score: body.Score,
			Error: strings.Join(body.ErrorCodes, ","),
		}
	}

	if body.Score < s.minScore {
		s.logger.Info("recaptcha score below threshold",
			slog.Float64("score", body.Score),
			slog.Float64("min_score", s.minScore),
			slog.String("fingerprint", pkglogger.FingerprintPrefix(fingerprint)))
		return VerificationResult{
			Score: body.Score,
			Error: "score below threshold",
		}
	}

	return VerificationResult{Success: true, Score: body.Score}
}
