package notify

import (
	"context"
	"time"

	"github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Email sends plain-text mail over SMTP with mandatory STARTTLS.
type Email struct {
	cfg       SMTPConfig
	newClient func(cfg SMTPConfig) (mailSender, error)
}

func NewEmail(cfg SMTPConfig) *Email {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &Email{cfg: cfg, newClient: dialSMTP}
}

func dialSMTP(cfg SMTPConfig) (mailSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	return mail.NewClient(cfg.Host, opts...)
}

func (e *Email) Configured() bool {
	return e.cfg.Host != "" && e.cfg.Username != "" && e.cfg.Password != ""
}

func (e *Email) Send(ctx context.Context, to, subject, body string) bool {
	if !e.Configured() {
		log.Warn().Msg("SMTP credentials not set, skipping email")
		return false
	}

	msg := mail.NewMsg()
	if err := msg.From(e.cfg.From); err != nil {
		log.Error().Err(err).Str("from", e.cfg.From).Msg("invalid sender address")
		return false
	}
	if err := msg.To(to); err != nil {
		log.Error().Err(err).Str("to", to).Msg("invalid recipient address")
		return false
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := e.newClient(e.cfg)
	if err != nil {
		log.Error().Err(err).Msg("smtp client")
		return false
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		log.Error().Err(err).Str("to", to).Msg("failed to send email")
		return false
	}

	log.Info().Str("to", to).Str("subject", subject).Msg("email sent")
	return true
}
