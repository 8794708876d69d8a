package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	texttemplate "text/template"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	pkglogger "github.com/Sudo-psc/saraiva-vision-site-sub012/pkg/logger"
)

// ContactNotification carries the rendered fields of an operator
// notification email.
type ContactNotification struct {
	ContactID   string
	Name        string
	Email       string
	Phone       string
	Message     string
	SubmittedAt time.Time
}

// EmailService defines the interface for sending operator notifications
type EmailService interface {
	SendContactNotification(ctx context.Context, recipient string, data ContactNotification) (messageID string, err error)
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

// htmlTemplate renders the operator notification. Submission fields are
// user-controlled, so rendering goes through html/template for escaping even
// though inputs were sanitized upstream.
var htmlTemplate = template.Must(template.New("contact").Parse(`
<!DOCTYPE html>
<html lang="pt-BR">
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #0A1628; color: white; padding: 20px; text-align: center; border-radius: 4px; }
        .content { padding: 20px 0; }
        .info-label { font-weight: 600; color: #6c757d; }
        .message-box { background-color: #f8f9fa; border-left: 4px solid #0A1628; padding: 20px; border-radius: 4px; margin-top: 20px; white-space: pre-wrap; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Novo Contato - Saraiva Vision</h1>
        </div>
        <div class="content">
            <p><span class="info-label">Nome:</span> {{.Name}}</p>
            <p><span class="info-label">Email:</span> {{.Email}}</p>
            {{if .Phone}}<p><span class="info-label">Telefone:</span> {{.Phone}}</p>{{end}}
            <p><span class="info-label">Recebido em:</span> {{.SubmittedAt.Format "02/01/2006 15:04"}}</p>
            <div class="message-box">{{.Message}}</div>
        </div>
        <div class="footer">
            <p>Protocolo: {{.ContactID}}</p>
            <p>Mensagem enviada pelo formul&aacute;rio de contato com consentimento LGPD.</p>
            <p>Esta &eacute; uma mensagem autom&aacute;tica. Responda diretamente ao email do paciente.</p>
        </div>
    </div>
</body>
</html>
`))

// The plain-text part renders without escaping.
var textTemplate = texttemplate.Must(texttemplate.New("contact_text").Parse(`Novo Contato - Saraiva Vision

Nome: {{.Name}}
Email: {{.Email}}
{{if .Phone}}Telefone: {{.Phone}}
{{end}}Recebido em: {{.SubmittedAt.Format "02/01/2006 15:04"}}

Mensagem:
{{.Message}}

Protocolo: {{.ContactID}}
Mensagem enviada pelo formulário de contato com consentimento LGPD.
`))

// SendContactNotification delivers the operator notification and returns
// the provider's message id.
func (s *AWSSESEmailService) SendContactNotification(ctx context.Context, recipient string, data ContactNotification) (string, error) {
	var htmlBody, textBody bytes.Buffer

	if err := htmlTemplate.Execute(&htmlBody, data); err != nil {
		return "", fmt.Errorf("failed to render html body: %w", err)
	}
	if err := textTemplate.Execute(&textBody, data); err != nil {
		return "", fmt.Errorf("failed to render text body: %w", err)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{recipient},
		},
		ReplyToAddresses: []string{data.Email},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(fmt.Sprintf("Novo contato de %s", data.Name)),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody.String()),
				},
				Text: &types.Content{
					Data: aws.String(textBody.String()),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send contact notification via SES",
			slog.String("recipient", pkglogger.RedactEmail(recipient)),
			slog.Any("error", err))
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("contact notification sent",
		slog.String("recipient", pkglogger.RedactEmail(recipient)),
		slog.String("message_id", *result.MessageId))

	return *result.MessageId, nil
}
