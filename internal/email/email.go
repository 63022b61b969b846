// Package email sends transactional mail over SMTP.
package email

import (
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/clinicore/clinic-api/config"
	"github.com/clinicore/clinic-api/internal/model"
)

// Sender delivers invitation mail. Implementations must be safe for
// concurrent use.
type Sender interface {
	SendInvitation(inv *model.Invitation, clinicName string) error
}

type smtpSender struct {
	dialer  *gomail.Dialer
	from    string
	baseURL string
	logger  zerolog.Logger
}

func NewSMTPSender(cfg config.SMTPConfig, logger zerolog.Logger) Sender {
	return &smtpSender{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		baseURL: cfg.BaseURL,
		logger:  logger,
	}
}

func (s *smtpSender) SendInvitation(inv *model.Invitation, clinicName string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", inv.Email)
	m.SetHeader("Subject", fmt.Sprintf("You have been invited to join %s", clinicName))
	m.SetBody("text/html", fmt.Sprintf(
		`<p>You have been invited to join <strong>%s</strong> as %s.</p>
<p><a href="%s/invitations/accept?token=%s">Accept invitation</a></p>
<p>This invitation expires on %s.</p>`,
		clinicName, inv.Role, s.baseURL, inv.Token, inv.ExpiresAt.Format("January 2, 2006"),
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send invitation email: %w", err)
	}

	s.logger.Info().Str("invitation_id", inv.ID.String()).Msg("invitation email sent")
	return nil
}
