package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notificationFixture() ContactNotification {
	return ContactNotification{
		ContactID:   "contact-1",
		Name:        "Maria Silva",
		Email:       "maria@example.com",
		Phone:       "+55 33 99999-1234",
		Message:     "Gostaria de agendar uma consulta.",
		SubmittedAt: time.Date(2026, 1, 15, 14, 30, 0, 0, time.UTC),
	}
}

func TestHTMLTemplate_RendersAllFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, htmlTemplate.Execute(&buf, notificationFixture()))
	body := buf.String()

	assert.Contains(t, body, "Novo Contato - Saraiva Vision")
	assert.Contains(t, body, "Maria Silva")
	assert.Contains(t, body, "maria@example.com")
	assert.Contains(t, body, "+55 33 99999-1234")
	assert.Contains(t, body, "15/01/2026 14:30")
	assert.Contains(t, body, "Gostaria de agendar uma consulta.")
	assert.Contains(t, body, "Protocolo: contact-1")
}

func TestHTMLTemplate_OmitsEmptyPhone(t *testing.T) {
	data := notificationFixture()
	data.Phone = ""

	var buf bytes.Buffer
	require.NoError(t, htmlTemplate.Execute(&buf, data))

	assert.NotContains(t, buf.String(), "Telefone:")
}

func TestHTMLTemplate_EscapesMarkupInFields(t *testing.T) {
	data := notificationFixture()
	data.Message = `<script>alert("x")</script>`

	var buf bytes.Buffer
	require.NoError(t, htmlTemplate.Execute(&buf, data))

	assert.NotContains(t, buf.String(), "<script>")
}

func TestTextTemplate_RendersAllFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, textTemplate.Execute(&buf, notificationFixture()))
	body := buf.String()

	assert.Contains(t, body, "Nome: Maria Silva")
	assert.Contains(t, body, "Email: maria@example.com")
	assert.Contains(t, body, "Telefone: +55 33 99999-1234")
	assert.Contains(t, body, "Protocolo: contact-1")
}
