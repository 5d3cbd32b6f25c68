package email

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender delivers notification emails via SendGrid.
type Sender struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

// NewSender creates a new email sender
func NewSender(apiKey, fromName, fromEmail string) *Sender {
	return &Sender{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// SendNotification sends an email copy of an in-app notification.
func (s *Sender) SendNotification(toEmail, toName, message string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	subject := "GreenLoop update"
	to := mail.NewEmail(toName, toEmail)

	plainText := fmt.Sprintf(`Hello %s,

%s

Open the app to see the details.

Best regards,
The GreenLoop Team`, toName, message)

	htmlContent := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>GreenLoop update</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #4CAF50; color: white; padding: 20px; border-radius: 5px 5px 0 0; text-align: center; }
        .content { background-color: #f9f9f9; padding: 30px; border: 1px solid #ddd; }
        .footer { padding: 20px; text-align: center; font-size: 0.9em; color: #666; }
    </style>
</head>
<body>
    <div class="header"><h1>GreenLoop</h1></div>
    <div class="content">
        <p>Hello %s,</p>
        <p>%s</p>
        <p>Open the app to see the details.</p>
    </div>
    <div class="footer">The GreenLoop Team</div>
</body>
</html>`, toName, message)

	m := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	response, err := s.client.Send(m)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("email send failed with status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}
