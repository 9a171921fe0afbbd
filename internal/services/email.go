package services

import (
	"context"
	"time"

	"infocripto/internal/config"
	"infocripto/internal/utils/helpers"

	"github.com/samber/oops"
	"github.com/wneessen/go-mail"
)

// EmailService delivers HTML mail over SMTP.
type EmailService struct {
	host     string
	port     int
	user     string
	password string
	from     string
	startTLS bool
	timeout  time.Duration
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.SenderEmail,
		startTLS: cfg.SMTPTLS,
		timeout:  cfg.EmailTimeout,
	}
}

func (s *EmailService) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return oops.Code("EMAIL_BAD_SENDER").Wrap(err)
	}
	if err := msg.To(to); err != nil {
		return oops.Code("EMAIL_BAD_RECIPIENT").With("to", helpers.MaskEmail(to)).Wrap(err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(s.host, s.clientOptions()...)
	if err != nil {
		return oops.Code("EMAIL_CLIENT_FAILED").Wrap(err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return oops.Code("EMAIL_SEND_FAILED").With("to", helpers.MaskEmail(to)).Wrap(err)
	}
	return nil
}

type smtpSecurity int

const (
	smtpStartTLS smtpSecurity = iota
	smtpImplicitTLS
)

// security: port 465 or SMTP_TLS=false means implicit TLS, otherwise mandatory STARTTLS.
func (s *EmailService) security() smtpSecurity {
	if s.port == 465 || !s.startTLS {
		return smtpImplicitTLS
	}
	return smtpStartTLS
}

func (s *EmailService) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTimeout(s.timeout),
	}
	if s.user != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.user),
			mail.WithPassword(s.password),
		)
	}
	if s.security() == smtpImplicitTLS {
		return append(opts, mail.WithSSL())
	}
	return append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
}
