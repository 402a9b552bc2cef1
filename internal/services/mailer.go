package services

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer sends notification email over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	log    *zap.Logger
}

func NewMailer(host string, port int, username, password, from string, log *zap.Logger) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		log:    log,
	}
}

// Send delivers one HTML message. Each call opens its own SMTP connection;
// share issuance is rare enough that pooling isn't worth it.
func (m *Mailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, "File Sharing App")
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	m.log.Info("mail sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
