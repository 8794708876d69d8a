package spam

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func newTestClassifier() *Classifier {
	return NewClassifier(DefaultConfig(), NewMemoryDuplicateStore(), testLogger())
}

// cleanInput is a submission that passes every detector.
func cleanInput() Input {
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	loadAt := now.Add(-1 * time.Minute)
	return Input{
		Fields: map[string]string{
			"name":    "Maria Silva",
			"email":   "maria@example.com",
			"message": "Gostaria de agendar uma consulta para a próxima semana.",
		},
		Name:           "Maria Silva",
		Email:          "maria@example.com",
		Message:        "Gostaria de agendar uma consulta para a próxima semana.",
		FormLoadAt:     loadAt.UnixMilli(),
		SubmittedAt:    now.UnixMilli(),
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		AcceptLanguage: "pt-BR,pt;q=0.9",
		Referer:        "https://saraivavision.com.br/contato",
		Now:            now,
	}
}

func TestClassify_CleanSubmissionPasses(t *testing.T) {
	classifier := newTestClassifier()

	signal := classifier.Classify(context.Background(), cleanInput())

	assert.False(t, signal.IsSpam)
	assert.Empty(t, signal.Reason)
}

func TestClassify_HoneypotFilled(t *testing.T) {
	classifier := newTestClassifier()

	for _, field := range []string{"website", "url", "honeypot", "bot_field", "email_confirm", "phone_confirm"} {
		in := cleanInput()
		in.Fields[field] = "http://spam.example"

		signal := classifier.Classify(context.Background(), in)

		assert.True(t, signal.IsSpam, field)
		assert.Equal(t, models.ReasonHoneypotFilled, signal.Reason, field)
		assert.Equal(t, 0.95, signal.Confidence, field)
		assert.Equal(t, field, signal.Evidence)
	}
}

func TestClassify_WhitespaceOnlyHoneypotIgnored(t *testing.T) {
	classifier := newTestClassifier()
	in := cleanInput()
	in.Fields["website"] = "   "

	signal := classifier.Classify(context.Background(), in)

	assert.False(t, signal.IsSpam)
}

func TestClassify_SubmissionTooFast(t *testing.T) {
	classifier := newTestClassifier()
	in := cleanInput()
	in.FormLoadAt = in.SubmittedAt - 500 // half a second

	signal := classifier.Classify(context.Background(), in)

	assert.True(t, signal.IsSpam)
	assert.Equal(t, models.ReasonSubmissionTooFast, signal.Reason)
	assert.Equal(t, 0.9, signal.Confidence)
}

func TestClassify_FormExpired(t *testing.T) {
	classifier := newTestClassifier()
	in := cleanInput()
	in.FormLoadAt = in.SubmittedAt - (45 * time.Minute).Milliseconds()

	signal := classifier.Classify(context.Background(), in)

	assert.True(t, signal.IsSpam)
	assert.Equal(t, models.ReasonFormExpired, signal.Reason)
	assert.Equal(t, 0.7, signal.Confidence)
}

func TestClassify_MissingTimestampsSkipTimingCheck(t *testing.T) {
	classifier := newTestClassifier()
	in := cleanInput()
	in.FormLoadAt = 0
	in.SubmittedAt = 0

	signal := classifier.Classify(context.Background(), in)

	assert.False(t, signal.IsSpam)
}

func TestClassify_SuspiciousUserAgent(t *testing.T) {
	classifier := newTestClassifier()

	tests := []struct {
		name       string
		userAgent  string
		confidence float64
	}{
		{"empty", "", 0.8},
		{"curl", "curl/8.4.0", 0.85},
		{"python", "python-requests/2.31", 0.85},
		{"headless", "Mozilla/5.0 HeadlessChrome/120", 0.85},
		{"crawler", "MyCrawler/1.0", 0.85},
		{"postman", "PostmanRuntime/7.36", 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := cleanInput()
			in.UserAgent = tt.userAgent

			signal := classifier.Classify(context.Background(), in)

			assert.True(t, signal.IsSpam)
			assert.Equal(t, models.ReasonSuspiciousUserAgent, signal.Reason)
			assert.Equal(t, tt.confidence, signal.Confidence)
		})
	}
}

func TestClassify_MissingAcceptLanguage(t *testing.T) {
	classifier := newTestClassifier()
	in := cleanInput()
	in.AcceptLanguage = ""

	signal := classifier.Classify(context.Background(), in)

	assert.True(t, signal.IsSpam)
	assert.Equal(t, models.ReasonMissingBrowserHeaders, signal.Reason)
	assert.Equal(t, 0.8, signal.Confidence)
}

func TestClassify_SuspiciousContent(t *testing.T) {
	classifier := newTestClassifier()

	messages := []string{
		"Buy viagra online now",
		"Ganhe dinheiro rápido, clique aqui agora",
		"Check http://a.com and http://b.com and http://c.com today",
		"Visit bit.ly/xyz for details",
		"AAAAAAAAAAAAAAAAAAAA great deal",
		"We offer backlinks and link building services",
		"Get your loan approved instantly",
	}

	for _, msg := range messages {
		in := cleanInput()
		in.Message = msg

		signal := classifier.Classify(context.Background(), in)

		assert.True(t, signal.IsSpam, msg)
		assert.Equal(t, models.ReasonSuspiciousContent, signal.Reason, msg)
		assert.Equal(t, 0.85, signal.Confidence, msg)
	}
}

func TestClassify_DisposableEmailDomain(t *testing.T) {
	classifier := newTestClassifier()
	in := cleanInput()
	in.Email = "bot@mailinator.com"
	in.Fields["email"] = in.Email

	signal := classifier.Classify(context.Background(), in)

	assert.True(t, signal.IsSpam)
	assert.Equal(t, models.ReasonSuspiciousContent, signal.Reason)
}

func TestClassify_DuplicateContentWithinWindow(t *testing.T) {
	classifier := newTestClassifier()
	ctx := context.Background()

	first := cleanInput()
	signal := classifier.Classify(ctx, first)
	assert.False(t, signal.IsSpam)

	// Identical content two minutes later is a repeat
	second := cleanInput()
	second.Now = first.Now.Add(2 * time.Minute)
	signal = classifier.Classify(ctx, second)

	assert.True(t, signal.IsSpam)
	assert.Equal(t, models.ReasonDuplicateContent, signal.Reason)
	assert.Equal(t, 0.9, signal.Confidence)
}

func TestClassify_DuplicateContentAfterWindowAllowed(t *testing.T) {
	classifier := newTestClassifier()
	ctx := context.Background()

	first := cleanInput()
	signal := classifier.Classify(ctx, first)
	assert.False(t, signal.IsSpam)

	second := cleanInput()
	second.Now = first.Now.Add(DuplicateWindow + time.Minute)
	signal = classifier.Classify(ctx, second)

	assert.False(t, signal.IsSpam)
}

func TestClassify_FieldTooLong(t *testing.T) {
	classifier := newTestClassifier()
	in := cleanInput()
	in.Message = ""
	for len(in.Message) <= 5000 {
		in.Message += "mensagem legítima mas interminável "
	}

	signal := classifier.Classify(context.Background(), in)

	assert.True(t, signal.IsSpam)
	assert.Equal(t, models.ReasonFieldTooLong, signal.Reason)
	assert.Equal(t, 0.8, signal.Confidence)
}

func TestClassify_SuspiciousName(t *testing.T) {
	tests := []struct {
		name   string
		isSpam bool
	}{
		{"Maria Silva", false},
		{"José D'Ávila-Souza Jr.", false},
		{"user123456789", true},
		{"<b>bold</b>", true},
		{"name@domain", true},
	}

	for _, tt := range tests {
		// Fresh classifier per case so the duplicate detector never fires
		classifier := newTestClassifier()
		in := cleanInput()
		in.Name = tt.name

		signal := classifier.Classify(context.Background(), in)

		assert.Equal(t, tt.isSpam, signal.IsSpam, tt.name)
		if tt.isSpam {
			assert.Equal(t, models.ReasonSuspiciousName, signal.Reason, tt.name)
		}
	}
}

func TestClassify_TooManyFields(t *testing.T) {
	classifier := newTestClassifier()
	in := cleanInput()
	for i := 0; i < 25; i++ {
		in.Fields[string(rune('a'+i))+"_extra"] = "x"
	}

	signal := classifier.Classify(context.Background(), in)

	assert.True(t, signal.IsSpam)
	assert.Equal(t, models.ReasonTooManyFields, signal.Reason)
}

func TestClassify_ForeignReferrer(t *testing.T) {
	classifier := newTestClassifier()
	in := cleanInput()
	in.Referer = "https://spam-farm.example.net/links"

	signal := classifier.Classify(context.Background(), in)

	assert.True(t, signal.IsSpam)
	assert.Equal(t, models.ReasonSuspiciousReferrer, signal.Reason)
	assert.Equal(t, 0.6, signal.Confidence)
}

func TestClassify_EmptyReferrerAllowed(t *testing.T) {
	classifier := newTestClassifier()
	in := cleanInput()
	in.Referer = ""

	signal := classifier.Classify(context.Background(), in)

	assert.False(t, signal.IsSpam)
}

func TestClassify_HoneypotTakesPrecedence(t *testing.T) {
	classifier := newTestClassifier()
	in := cleanInput()
	in.Fields["website"] = "http://spam.example"
	in.UserAgent = "curl/8.4.0"
	in.Message = "Buy viagra now"

	signal := classifier.Classify(context.Background(), in)

	assert.Equal(t, models.ReasonHoneypotFilled, signal.Reason)
}

func TestClassify_FailsOpenWhenDuplicateStoreDown(t *testing.T) {
	classifier := NewClassifier(DefaultConfig(), failingDuplicateStore{}, testLogger())

	signal := classifier.Classify(context.Background(), cleanInput())

	assert.False(t, signal.IsSpam)
}
