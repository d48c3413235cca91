package mail

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	gomail "gopkg.in/mail.v2"
)

//go:embed templates/*.html
var templateFiles embed.FS

type Config struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Message is rendered from one of the embedded templates. From falls back to
// the configured sender. To is a bare address; ToName is the display name and
// is encoded as needed.
type Message struct {
	From     string
	To       string
	ToName   string
	Subject  string
	Template string
	Data     any
}

// Sender is satisfied by *gomail.Dialer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	sender    Sender
	from      string
	templates *template.Template
	log       *slog.Logger
}

func NewDialer(cfg Config) *gomail.Dialer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	d.StartTLSPolicy = gomail.OpportunisticStartTLS
	return d
}

func New(sender Sender, from string, log *slog.Logger) (*Mailer, error) {
	if log == nil {
		log = slog.Default()
	}
	if sender == nil {
		return nil, errors.New("mail sender is required")
	}
	tmpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Mailer{
		sender:    sender,
		from:      from,
		templates: tmpl,
		log:       log.With(slog.String("component", "mail")),
	}, nil
}

func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("mail recipient is required")
	}

	var body bytes.Buffer
	if err := m.templates.ExecuteTemplate(&body, msg.Template+".html", msg.Data); err != nil {
		return fmt.Errorf("render %s: %w", msg.Template, err)
	}

	from := msg.From
	if from == "" {
		from = m.from
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", from)
	gm.SetAddressHeader("To", strings.TrimSpace(msg.To), msg.ToName)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", body.String())

	if err := m.sender.DialAndSend(gm); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	m.log.Info("mail sent", slog.String("template", msg.Template), slog.String("subject", msg.Subject))
	return nil
}
