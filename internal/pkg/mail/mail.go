package mail

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/smtp"
	"strings"
	"time"
)

// ErrNoSender is returned when neither from, user nor notify_to is configured.
var ErrNoSender = errors.New("mail: no sender address configured")

// Config holds SMTP settings.
type Config struct {
	Enable   bool
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	NotifyTo string
}

// Message is a single email to send.
type Message struct {
	To      []string
	Subject string
	HTML    string
	ReplyTo string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Sender sends emails via SMTP.
type Sender struct {
	cfg  Config
	send sendFunc
}

func New(cfg Config) *Sender {
	return &Sender{cfg: cfg, send: smtp.SendMail}
}

// Enabled reports whether mail delivery is configured.
func (s *Sender) Enabled() bool {
	return s != nil && s.cfg.Enable && strings.TrimSpace(s.cfg.Host) != ""
}

// Send dispatches an email. It is a no-op when mail is disabled.
func (s *Sender) Send(msg Message) error {
	if !s.Enabled() {
		return nil
	}
	port := s.cfg.Port
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, port)

	from := s.sender()
	if from == "" {
		return ErrNoSender
	}

	var body bytes.Buffer
	body.WriteString("MIME-Version: 1.0\r\n")
	body.WriteString(fmt.Sprintf("From: %s\r\n", headerValue(from)))
	body.WriteString(fmt.Sprintf("To: %s\r\n", headerValue(strings.Join(msg.To, ", "))))
	body.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerValue(msg.Subject))))
	body.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	if replyTo := headerValue(msg.ReplyTo); replyTo != "" {
		body.WriteString(fmt.Sprintf("Reply-To: %s\r\n", replyTo))
	}
	body.WriteString("\r\n")
	body.WriteString(msg.HTML)

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}
	return s.send(addr, auth, from, msg.To, body.Bytes())
}

// sender picks the envelope sender: from, then the SMTP user, then notify_to.
func (s *Sender) sender() string {
	for _, v := range []string{s.cfg.From, s.cfg.User, s.cfg.NotifyTo} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// headerValue folds control characters to spaces so a value stays on one
// header line.
func headerValue(v string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, v))
}

const contactNotifyTpl = `<!DOCTYPE html>
<html lang="pt-BR">
<body style="font-family:sans-serif;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
  <h2 style="color:#333">Nova mensagem de contato</h2>
  <p><strong>{{.Name}}</strong> &lt;{{.Email}}&gt; escreveu:</p>
  <div style="background:#f3f4f6;border-radius:8px;padding:12px;white-space:pre-wrap">{{.Message}}</div>
  <p style="color:#999;font-size:12px">Recebida em {{.ReceivedAt.Format "02/01/2006 15:04"}}</p>
</div>
</body>
</html>`

// ContactNotifyData is the data for the new contact message email.
type ContactNotifyData struct {
	Name       string
	Email      string
	Message    string
	ReceivedAt time.Time
}

var contactNotify = template.Must(template.New("contact").Parse(contactNotifyTpl))

// SendContactNotify tells the site owner about a new contact message.
func (s *Sender) SendContactNotify(data ContactNotifyData) error {
	if !s.Enabled() || strings.TrimSpace(s.cfg.NotifyTo) == "" {
		return nil
	}
	var buf bytes.Buffer
	if err := contactNotify.Execute(&buf, data); err != nil {
		return err
	}
	return s.Send(Message{
		To:      []string{s.cfg.NotifyTo},
		Subject: fmt.Sprintf("[Portfólio] Mensagem de %s", data.Name),
		HTML:    buf.String(),
		ReplyTo: data.Email,
	})
}
