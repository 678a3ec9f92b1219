package mailer

import (
	"fmt"
	"net/smtp"
	"strconv"

	"github.com/rs/zerolog"

	"matchmaker/internal/model"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer e-mails notifications. Without a host it only logs what it would send.
type Mailer struct {
	cfg  Config
	log  *zerolog.Logger
	send sendFunc
}

func New(cfg Config, log *zerolog.Logger) *Mailer {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &Mailer{cfg: cfg, log: log, send: smtp.SendMail}
}

func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

// Subject returns the e-mail subject line for a notification type.
func Subject(t model.NotificationType) string {
	switch t {
	case model.NotificationReminder:
		return "Event reminder"
	case model.NotificationCancellation:
		return "Event cancelled"
	case model.NotificationThankYou:
		return "Thank you for volunteering"
	case model.NotificationVolunteerApproved:
		return "Volunteer application approved"
	case model.NotificationVolunteerDenied:
		return "Volunteer application update"
	}
	return "ConnectHub notification"
}

func Compose(from, to string, n model.Notification) []byte {
	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\nHello!\n\n%s\n",
		from, to, Subject(n.Type), n.Message,
	))
}

func (m *Mailer) SendNotification(recipient string, n model.Notification) error {
	if !m.Enabled() {
		m.log.Info().
			Str("email", recipient).
			Str("type", string(n.Type)).
			Msg("smtp not configured, skipping e-mail")
		return nil
	}

	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(addr, auth, m.cfg.From, []string{recipient}, Compose(m.cfg.From, recipient, n)); err != nil {
		m.log.Warn().Err(err).Str("email", recipient).Msg("failed to send e-mail")
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Str("email", recipient).Str("type", string(n.Type)).Msg("notification e-mail sent")
	return nil
}
