// Package spam scores contact submissions with a fixed-precedence chain of
// detectors. Earlier detectors are cheaper and higher-confidence; the first
// positive signal short-circuits the rest.
package spam

import (
	"context"
	"log/slog"
	"time"

	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/models"
)

// Input is everything a detector may inspect. Detectors are pure functions
// of this value (the duplicate check additionally consults its store).
type Input struct {
	// Fields holds every raw form field by name, including decoys.
	Fields map[string]string

	Name    string
	Email   string
	Phone   string
	Message string
	Subject string

	// Client-reported timestamps in unix milliseconds; zero when absent.
	FormLoadAt  int64
	SubmittedAt int64

	UserAgent      string
	AcceptLanguage string
	Referer        string

	Now time.Time
}

// Detector is one named check in the precedence chain. A nil result means
// the detector found nothing.
type Detector struct {
	Name  string
	Check func(ctx context.Context, in Input) *models.SpamSignal
}

// Config holds classifier thresholds.
type Config struct {
	MinFillTime     time.Duration
	MaxFillTime     time.Duration
	MaxNameLen      int
	MaxEmailLen     int
	MaxMessageLen   int
	MaxFieldCount   int
	AllowedReferers []string
}

// DefaultConfig mirrors the production policy: sub-2s fills are bot-speed,
// over-30m fills are stale replays.
func DefaultConfig() Config {
	return Config{
		MinFillTime:   2 * time.Second,
		MaxFillTime:   30 * time.Minute,
		MaxNameLen:    100,
		MaxEmailLen:   254,
		MaxMessageLen: 5000,
		MaxFieldCount: 20,
		AllowedReferers: []string{
			"saraivavision.com.br",
			"localhost",
		},
	}
}

// Classifier evaluates the detector chain in order.
type Classifier struct {
	detectors []Detector
	logger    *slog.Logger
}

// NewClassifier builds the chain. The order is policy: honeypot, timing,
// user-agent, browser headers, content patterns, duplicate content, field
// shape.
func NewClassifier(cfg Config, duplicates DuplicateStore, logger *slog.Logger) *Classifier {
	return &Classifier{
		logger: logger,
		detectors: []Detector{
			{Name: "honeypot", Check: detectHoneypot},
			{Name: "timing", Check: detectTiming(cfg)},
			{Name: "user_agent", Check: detectUserAgent},
			{Name: "browser_headers", Check: detectBrowserHeaders},
			{Name: "content_patterns", Check: detectContentPatterns},
			{Name: "duplicate_content", Check: detectDuplicate(duplicates, logger)},
			{Name: "field_shape", Check: detectFieldShape(cfg)},
		},
	}
}

// Classify runs the chain and returns the first positive signal, or a clean
// signal when nothing fires.
func (c *Classifier) Classify(ctx context.Context, in Input) models.SpamSignal {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}

	for _, d := range c.detectors {
		if signal := d.Check(ctx, in); signal != nil {
			c.logger.Info("spam detected",
				slog.String("detector", d.Name),
				slog.String("reason", string(signal.Reason)),
				slog.Float64("confidence", signal.Confidence),
				slog.String("evidence", signal.Evidence))
			return *signal
		}
	}

	return models.Clean
}
