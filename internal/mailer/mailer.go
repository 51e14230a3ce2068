package mailer

import (
	"context"
	"fmt"
	"net/url"

	"example.com/backstage/services/inventory/config"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Mailer sends account related mail
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, username, token string) error
}

// Message is a rendered mail
type Message struct {
	From     string
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// New returns an SMTP mailer, or one that only logs when no host is configured
func New(cfg config.MailConfig, log *logrus.Logger) Mailer {
	if cfg.Host == "" {
		return &logMailer{cfg: cfg, log: log}
	}
	return &smtpMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

type smtpMailer struct {
	cfg    config.MailConfig
	dialer *gomail.Dialer
}

func (m *smtpMailer) SendPasswordReset(ctx context.Context, to, username, token string) error {
	msg := PasswordResetMessage(m.cfg, to, username, token)

	gm := gomail.NewMessage()
	gm.SetHeader("From", msg.From)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.TextBody)
	gm.AddAlternative("text/html", msg.HTMLBody)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(gm); err != nil {
		return errors.Wrap(err, "failed to send password reset mail")
	}
	return nil
}

type logMailer struct {
	cfg config.MailConfig
	log *logrus.Logger
}

func (m *logMailer) SendPasswordReset(_ context.Context, to, username, token string) error {
	msg := PasswordResetMessage(m.cfg, to, username, token)
	m.log.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Mail not sent, no SMTP host configured")
	return nil
}

// PasswordResetMessage renders the reset mail for a user
func PasswordResetMessage(cfg config.MailConfig, to, username, token string) Message {
	link := cfg.ResetURL + "?token=" + url.QueryEscape(token)
	return Message{
		From:    cfg.From,
		To:      to,
		Subject: "Reset Your Password",
		TextBody: fmt.Sprintf("Dear %s,\n\nTo reset your password open the following link:\n\n%s\n\n"+
			"If you have not requested a password reset simply ignore this message.\n", username, link),
		HTMLBody: fmt.Sprintf("<p>Dear %s,</p><p>To reset your password <a href=\"%s\">click here</a>.</p>"+
			"<p>If you have not requested a password reset simply ignore this message.</p>", username, link),
	}
}
