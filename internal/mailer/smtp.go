// Package mailer delivers contact form notifications over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"union-site/internal/inquiry"
)

var ErrNotConfigured = errors.New("smtp credentials not configured")

type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	AdminEmail string
	SiteName   string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier mails the site owner about a new inquiry and sends the
// visitor a confirmation. smtp.SendMail upgrades to STARTTLS when offered.
type SMTPNotifier struct {
	cfg  Config
	send sendFunc
	now  func() time.Time
}

func NewSMTPNotifier(cfg Config) *SMTPNotifier {
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = cfg.Username
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "Programmers Union"
	}

	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail, now: time.Now}
}

func (n *SMTPNotifier) Configured() bool {
	return n.cfg.Username != "" && n.cfg.Password != ""
}

func (n *SMTPNotifier) Notify(ctx context.Context, inq inquiry.Inquiry) error {
	if !n.Configured() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)

	adminMsg := n.compose(n.cfg.AdminEmail, "New Contact Form Submission: "+inq.Subject, n.adminBody(inq))
	if err := n.send(addr, auth, n.cfg.Username, []string{n.cfg.AdminEmail}, adminMsg); err != nil {
		return fmt.Errorf("send admin notification: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	customerMsg := n.compose(inq.Email, "Thank you for contacting "+n.cfg.SiteName, n.customerBody(inq))
	if err := n.send(addr, auth, n.cfg.Username, []string{inq.Email}, customerMsg); err != nil {
		return fmt.Errorf("send customer confirmation: %w", err)
	}

	return nil
}

func (n *SMTPNotifier) compose(to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + n.cfg.Username + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + headerSafe(subject) + "\r\n")
	b.WriteString("Date: " + n.now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

func (n *SMTPNotifier) adminBody(inq inquiry.Inquiry) string {
	return fmt.Sprintf(`New contact form submission from the %s website:

Name: %s
Email: %s
Subject: %s

Message:
%s

---
This email was sent automatically from the %s contact form.
`, n.cfg.SiteName, inq.Name, inq.Email, inq.Subject, inq.Message, n.cfg.SiteName)
}

func (n *SMTPNotifier) customerBody(inq inquiry.Inquiry) string {
	return fmt.Sprintf(`Dear %s,

Thank you for contacting %s! We have received your message and will get back to you within 24 hours.

Your message details:
Subject: %s
Message: %s

Best regards,
The %s Team

---
This is an automated confirmation email. Please do not reply to this email.
`, inq.Name, n.cfg.SiteName, inq.Subject, inq.Message, n.cfg.SiteName)
}

// headerSafe removes line breaks so user input cannot inject headers.
func headerSafe(value string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
}
