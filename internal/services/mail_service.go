package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog/log"

	"ecoloop/internal/models"
)

// SMTPConfig holds the outgoing mail settings. Mail is disabled unless every
// field is set.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type MailService struct {
	cfg     SMTPConfig
	Enabled bool
	send    func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailService(cfg SMTPConfig) *MailService {
	enabled := cfg.Host != "" && cfg.Port != "" && cfg.Username != "" && cfg.Password != "" && cfg.From != ""
	if !enabled {
		log.Info().Msg("MailService disabled: missing SMTP settings")
	}
	return &MailService{cfg: cfg, Enabled: enabled, send: smtp.SendMail}
}

var notificationTmpl = template.Must(template.New("notification").Parse(`<p>Hi {{.Name}},</p>
<p>{{.Message}}</p>
<p style="color:#888">You received this because of activity on your ecoloop account ({{.Type}}).</p>
`))

var notificationSubjects = map[models.NotificationType]string{
	models.NotificationTypePickup:      "Pickup update",
	models.NotificationTypeApplication: "New supporter for your initiative",
	models.NotificationTypeMessage:     "New message",
	models.NotificationTypeComment:     "New comment on your post",
	models.NotificationTypeBadge:       "You earned a new badge",
	models.NotificationTypeAlert:       "Alert",
}

func (s *MailService) render(u *models.User, n models.Notification) (string, string, error) {
	var buf bytes.Buffer
	err := notificationTmpl.Execute(&buf, map[string]string{
		"Name":    u.Name,
		"Message": n.Message,
		"Type":    string(n.Type),
	})
	if err != nil {
		return "", "", fmt.Errorf("render notification email: %w", err)
	}
	subject := notificationSubjects[n.Type]
	if subject == "" {
		subject = "Notification"
	}
	return "[ecoloop] " + subject, buf.String(), nil
}

// SendNotification mails n to u synchronously; the queue worker calls it.
func (s *MailService) SendNotification(u *models.User, n models.Notification) {
	if !s.Enabled {
		return
	}
	subject, body, err := s.render(u, n)
	if err != nil {
		log.Error().Err(err).Msg("Error rendering notification email")
		return
	}
	if err := s.deliver([]string{u.Email}, subject, body); err != nil {
		log.Error().Err(err).Strs("to", []string{u.Email}).Msg("Failed to send email")
		return
	}
	log.Info().Strs("to", []string{u.Email}).Str("subject", subject).Msg("Email sent")
}

func (s *MailService) deliver(to []string, subject, body string) error {
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"From: ecoloop <%s>\r\n"+
		"Subject: %s\r\n"+
		"%s\r\n%s", strings.Join(to, ","), s.cfg.From, subject, mime, body))

	return s.send(addr, auth, s.cfg.From, to, msg)
}
