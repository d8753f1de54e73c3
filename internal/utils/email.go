package utils

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/wneessen/go-mail"

	"rise_local_back_end/internal/config"
)

type Attachment struct {
	Name string
	Data []byte
}

// Mailer sends HTML e-mail over SMTP. Without a configured host every send
// is logged and dropped.
type Mailer struct {
	cfg config.SMTPConfig
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) Enabled() bool {
	return m != nil && m.cfg.Host != ""
}

func (m *Mailer) Send(to, subject, htmlBody string, attachments ...Attachment) error {
	if !m.Enabled() {
		log.Debug().Str("to", to).Str("subject", subject).Msg("📭 SMTP not configured, e-mail skipped")
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return errors.Wrap(err, "mail from")
	}
	if err := msg.To(to); err != nil {
		return errors.Wrap(err, "mail to")
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	for _, a := range attachments {
		if err := msg.AttachReader(a.Name, bytes.NewReader(a.Data)); err != nil {
			return errors.Wrap(err, "mail attachment")
		}
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return errors.Wrap(err, "mail client")
	}

	log.Info().Str("to", to).Str("subject", subject).Msg("📤 Sending e-mail")
	return errors.Wrap(client.DialAndSend(msg), "mail send")
}
