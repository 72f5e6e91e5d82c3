package messaging

import (
	"context"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// SMTPEmailSender dispatches plain-text email over SMTP.
type SMTPEmailSender struct {
	host     string
	port     int
	user     string
	password string
	from     string
	logger   *zap.Logger

	// send is swappable for tests.
	send func(m *gomail.Message) error
}

func NewSMTPEmailSender(host string, port int, user, password, from string, logger *zap.Logger) *SMTPEmailSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SMTPEmailSender{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		from:     from,
		logger:   logger,
	}
	s.send = func(m *gomail.Message) error {
		d := gomail.NewDialer(s.host, s.port, s.user, s.password)
		return d.DialAndSend(m)
	}
	return s
}

// SendEmail sends one plain-text message. Without a configured host it logs
// the message instead, mirroring the SMS dry-run behavior.
func (s *SMTPEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	if s.host == "" {
		s.logger.Info("email dry-run: no smtp host configured",
			zap.String("to", to),
			zap.String("subject", subject),
		)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	return s.send(m)
}
