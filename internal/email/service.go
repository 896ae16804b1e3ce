package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/gloriaconnect/gloria-connect-api/internal/logging"
)

type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromAddress  string
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword, fromAddress string) *Service {
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromAddress:  fromAddress,
	}
}

// magicLinkCopy holds the localized strings of the sign-in email
type magicLinkCopy struct {
	Subject   string
	Heading   string
	Intro     string
	Button    string
	CopyPaste string
	Ignore    string
	Expiry    string
}

var magicLinkCopyByLocale = map[string]magicLinkCopy{
	"en": {
		Subject:   "Sign in to Gloria Local Connect",
		Heading:   "Sign in to your account",
		Intro:     "Click the button below to sign in. No password needed.",
		Button:    "Sign In",
		CopyPaste: "Or copy and paste this link into your browser:",
		Ignore:    "If you didn't request this link, you can safely ignore this email.",
		Expiry:    "This link will expire in 20 minutes.",
	},
	"fil": {
		Subject:   "Mag-sign in sa Gloria Local Connect",
		Heading:   "Mag-sign in sa iyong account",
		Intro:     "I-click ang button sa ibaba para mag-sign in. Hindi kailangan ng password.",
		Button:    "Mag-sign In",
		CopyPaste: "O kopyahin at i-paste ang link na ito sa iyong browser:",
		Ignore:    "Kung hindi ikaw ang humiling ng link na ito, maaari mong balewalain ang email na ito.",
		Expiry:    "Mag-e-expire ang link na ito sa loob ng 20 minuto.",
	},
}

// SendMagicLinkEmail sends a one-time sign-in link to the user in their locale
// This method is designed to be called in a goroutine
func (s *Service) SendMagicLinkEmail(ctx context.Context, toEmail, link, locale string) error {
	logger := logging.GetLoggerFromContext(ctx)

	loc, ok := magicLinkCopyByLocale[locale]
	if !ok {
		loc = magicLinkCopyByLocale["en"]
	}

	body, err := s.renderMagicLinkTemplate(link, loc)
	if err != nil {
		logger.Error("failed to render magic link email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, loc.Subject, body); err != nil {
		logger.Error("failed to send magic link email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("magic link email sent", "email", toEmail, "locale", locale)
	return nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromAddress, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return smtp.SendMail(addr, auth, s.smtpUser, []string{to}, msg)
}

func (s *Service) renderMagicLinkTemplate(link string, loc magicLinkCopy) (string, error) {
	tmpl := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .header {
            background-color: #0F766E;
            color: white;
            padding: 20px;
            text-align: center;
            border-radius: 5px 5px 0 0;
        }
        .content {
            background-color: #f9f9f9;
            padding: 30px;
            border-radius: 0 0 5px 5px;
        }
        .button {
            display: inline-block;
            background-color: #0F766E;
            color: white !important;
            padding: 12px 30px;
            text-decoration: none;
            border-radius: 5px;
            margin: 20px 0;
        }
        .footer {
            margin-top: 30px;
            font-size: 12px;
            color: #666;
            text-align: center;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>Gloria Local Connect</h1>
    </div>
    <div class="content">
        <h2>{{.Heading}}</h2>
        <p>{{.Intro}}</p>

        <a href="{{.Link}}" class="button" style="color: white !important;">{{.Button}}</a>

        <p>{{.CopyPaste}}</p>
        <p style="word-break: break-all; color: #0F766E;">{{.Link}}</p>

        <p style="margin-top: 30px;">{{.Ignore}}</p>
    </div>
    <div class="footer">
        <p>{{.Expiry}}</p>
        <p>&copy; 2026 Gloria Local Connect. All rights reserved.</p>
    </div>
</body>
</html>
`

	t, err := template.New("magicLink").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	data := struct {
		Link string
		magicLinkCopy
	}{
		Link:          link,
		magicLinkCopy: loc,
	}

	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
