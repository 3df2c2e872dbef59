package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SMTPConfig addresses the outgoing mail relay.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// MailNotifier sends plain-text email over SMTP. Port 465 uses implicit TLS;
// other ports use STARTTLS when the server offers it.
type MailNotifier struct {
	cfg  SMTPConfig
	dial func(ctx context.Context, addr string) (net.Conn, error)
}

func NewMail(cfg SMTPConfig) *MailNotifier {
	return &MailNotifier{cfg: cfg}
}

func (n *MailNotifier) Channel() string { return "mail" }

func (n *MailNotifier) Send(ctx context.Context, m Message) error {
	if m.To.Email == "" {
		return ErrNoAddress
	}
	addr := net.JoinHostPort(n.cfg.Host, n.cfg.Port)

	conn, err := n.connect(ctx, addr)
	if err != nil {
		return fmt.Errorf("notification/mail: dial %s: %w", addr, err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	} else {
		_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	}

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("notification/mail: handshake: %w", err)
	}
	defer client.Close()

	if n.cfg.Port != "465" {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: n.cfg.Host}); err != nil {
				return fmt.Errorf("notification/mail: starttls: %w", err)
			}
		}
	}
	if n.cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)); err != nil {
			return fmt.Errorf("notification/mail: auth: %w", err)
		}
	}
	if err := client.Mail(n.cfg.From); err != nil {
		return fmt.Errorf("notification/mail: MAIL FROM: %w", err)
	}
	if err := client.Rcpt(m.To.Email); err != nil {
		return fmt.Errorf("notification/mail: RCPT TO: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("notification/mail: DATA: %w", err)
	}
	if _, err := w.Write(buildRaw(n.cfg.From, m)); err != nil {
		w.Close()
		return fmt.Errorf("notification/mail: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("notification/mail: finish: %w", err)
	}
	return client.Quit()
}

func (n *MailNotifier) connect(ctx context.Context, addr string) (net.Conn, error) {
	if n.dial != nil {
		return n.dial(ctx, addr)
	}
	d := &net.Dialer{Timeout: 10 * time.Second}
	if n.cfg.Port == "465" {
		return (&tls.Dialer{NetDialer: d, Config: &tls.Config{ServerName: n.cfg.Host}}).DialContext(ctx, "tcp", addr)
	}
	return d.DialContext(ctx, "tcp", addr)
}

func buildRaw(from string, m Message) []byte {
	to := m.To.Email
	if m.To.Name != "" {
		to = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", m.To.Name), m.To.Email)
	}
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", m.Subject) + "\r\n")
	b.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return []byte(b.String())
}
