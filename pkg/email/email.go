// Package email sends transactional mail through Resend.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"

	"github.com/resend/resend-go/v3"
)

// Sender is what services depend on; the Resend client stays in here.
type Sender interface {
	SendPasswordReset(ctx context.Context, toEmail, token string) error
	SendEnrollmentConfirmation(ctx context.Context, toEmail, courseTitle, courseURL string) error
}

var (
	resetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:24px;font-family:Arial,Helvetica,sans-serif;">
  <h1 style="font-size:22px;">lectern</h1>
  <h2 style="font-size:18px;">Password reset</h2>
  <p>We received a request to reset your password. Follow the link below to choose a new one.</p>
  <p><a href="{{.Link}}">Reset password</a></p>
  <p style="color:#64748b;font-size:13px;">The link expires in 20 minutes. If you did not ask for a reset you can ignore this email.</p>
  <p style="color:#64748b;font-size:13px;word-break:break-all;">{{.Link}}</p>
</body>
</html>`))

	enrollTemplate = template.Must(template.New("enroll").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:24px;font-family:Arial,Helvetica,sans-serif;">
  <h1 style="font-size:22px;">lectern</h1>
  <p>You are now enrolled in <strong>{{.Title}}</strong>.</p>
  <p><a href="{{.Link}}">Start learning</a></p>
</body>
</html>`))
)

type resendSender struct {
	client    *resend.Client
	fromEmail string
	appURL    string
}

// NewResendSender builds a Sender for the given API key and verified
// sender address. appURL is the public base URL links point at.
func NewResendSender(apiKey, fromEmail, appURL string) Sender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		appURL:    appURL,
	}
}

func (s *resendSender) SendPasswordReset(ctx context.Context, toEmail, token string) error {
	body, err := renderPasswordReset(s.appURL, token)
	if err != nil {
		return err
	}
	if err := s.send(ctx, toEmail, "Reset your password", body); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

func (s *resendSender) SendEnrollmentConfirmation(ctx context.Context, toEmail, courseTitle, courseURL string) error {
	body, err := renderEnrollment(s.appURL, courseTitle, courseURL)
	if err != nil {
		return err
	}
	if err := s.send(ctx, toEmail, "Enrolled: "+courseTitle, body); err != nil {
		return fmt.Errorf("failed to send enrollment email: %w", err)
	}
	return nil
}

func (s *resendSender) send(ctx context.Context, to, subject, html string) error {
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    fmt.Sprintf("lectern <%s>", s.fromEmail),
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	return err
}

func renderPasswordReset(appURL, token string) (string, error) {
	link := fmt.Sprintf("%s/reset-password?token=%s", appURL, url.QueryEscape(token))

	var buf bytes.Buffer
	if err := resetTemplate.Execute(&buf, struct{ Link string }{link}); err != nil {
		return "", fmt.Errorf("failed to render password reset email: %w", err)
	}
	return buf.String(), nil
}

func renderEnrollment(appURL, title, path string) (string, error) {
	var buf bytes.Buffer
	data := struct{ Title, Link string }{title, appURL + path}
	if err := enrollTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render enrollment email: %w", err)
	}
	return buf.String(), nil
}

// Noop drops every message. It stands in when no API key is configured.
type Noop struct{}

func (Noop) SendPasswordReset(context.Context, string, string) error { return nil }

func (Noop) SendEnrollmentConfirmation(context.Context, string, string, string) error { return nil }
