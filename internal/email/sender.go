package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/galva-ai/backend/internal/logging"
)

// The verification email keeps the German copy the product shipped with; the
// reset email is the short form. Verification links point at the backend
// verify route, reset links at the frontend reset page.
const verificationTemplate = `<p>Hallo {{.FirstName}},<br>
Herzlich willkommen bei GALVA.AI! Wir freuen uns, Sie als neues Mitglied begr&uuml;&szlig;en zu d&uuml;rfen.<br><br>
Um Ihre Registrierung abzuschlie&szlig;en und alle Funktionen von GALVA.AI nutzen zu k&ouml;nnen, bitten wir
Sie, Ihre E-Mail-Adresse zu best&auml;tigen. Klicken Sie dazu einfach auf den folgenden Link:<br><br>
<a href="{{.Link}}">Verification Link</a><br><br>
Nach Best&auml;tigung Ihrer E-Mail erhalten Sie vollen Zugriff auf alle Funktionen unserer Plattform.<br><br>
Bei Fragen stehen wir Ihnen gerne zur Verf&uuml;gung.<br><br><br>
Freundliche Gr&uuml;&szlig;e,<br><br>
Patrick Boehm<br>
Founder GALVA.AI<br><br></p>`

// A requested resend uses the short copy, not the signup welcome letter.
const resendVerificationTemplate = `<p>Hi {{.FirstName}}. Please verify your email.</p>
<a href="{{.Link}}">Click Here</a>`

const passwordResetTemplate = `<p>Hi {{.FirstName}}. Please use the link to reset password.</p>
<a href="{{.Link}}">Click here</a>`

// Sender renders token emails and delivers them over SMTP.
type Sender struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromAddress  string
	frontendURL  string
	backendURL   string

	verification       *template.Template
	resendVerification *template.Template
	passwordReset      *template.Template
}

func NewSender(smtpHost, smtpPort, smtpUser, smtpPassword, fromAddress, frontendURL, backendURL string) (*Sender, error) {
	verification, err := template.New("verification").Parse(verificationTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse verification template: %w", err)
	}

	resendVerification, err := template.New("resendVerification").Parse(resendVerificationTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse resend verification template: %w", err)
	}

	passwordReset, err := template.New("passwordReset").Parse(passwordResetTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse password reset template: %w", err)
	}

	return &Sender{
		smtpHost:           smtpHost,
		smtpPort:           smtpPort,
		smtpUser:           smtpUser,
		smtpPassword:       smtpPassword,
		fromAddress:        fromAddress,
		frontendURL:        frontendURL,
		backendURL:         backendURL,
		verification:       verification,
		resendVerification: resendVerification,
		passwordReset:      passwordReset,
	}, nil
}

// Send renders the message and delivers it. Called by the dispatcher, never
// directly from a request handler.
func (s *Sender) Send(ctx context.Context, msg *Message) error {
	logger := logging.GetLoggerFromContext(ctx)

	var subject, body string
	var err error

	switch msg.Kind {
	case KindVerification:
		subject = "Email Verification"
		body, err = s.render(s.verification, msg.FirstName, s.verificationLink(msg.Token))
	case KindVerificationResend:
		subject = "Email Verification"
		body, err = s.render(s.resendVerification, msg.FirstName, s.verificationLink(msg.Token))
	case KindPasswordReset:
		subject = "Reset Password"
		body, err = s.render(s.passwordReset, msg.FirstName, s.resetLink(msg.Token))
	default:
		return fmt.Errorf("unknown message kind %q", msg.Kind)
	}
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendMail(msg.To, subject, body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("email sent", "kind", msg.Kind, "email", msg.To)
	return nil
}

// verificationLink builds the backend verify URL; the trailing slash on
// BACKEND_URL is part of the legacy configuration convention.
func (s *Sender) verificationLink(token string) string {
	return fmt.Sprintf("%sv1/user/verify/%s", s.backendURL, token)
}

func (s *Sender) resetLink(token string) string {
	return fmt.Sprintf("%sreset/%s", s.frontendURL, token)
}

func (s *Sender) render(tmpl *template.Template, firstName, link string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		FirstName string
		Link      string
	}{
		FirstName: firstName,
		Link:      link,
	}

	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

func (s *Sender) sendMail(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: \"Galva AI\" <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromAddress, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return smtp.SendMail(addr, auth, s.fromAddress, []string{to}, msg)
}
