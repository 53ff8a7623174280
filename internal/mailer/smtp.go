package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// SMTPMailer sends through the provider's SMTP endpoint. The Message-ID is
// generated locally and set on the outgoing message so replies can be
// correlated against the mapping rows.
type SMTPMailer struct {
	Addr    string // host:port
	Auth    smtp.Auth
	Domain  string // Message-ID domain
	ReplyTo string
}

func NewSMTPMailer(host, port, username, password, domain, replyTo string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{
		Addr:    host + ":" + port,
		Auth:    auth,
		Domain:  domain,
		ReplyTo: replyTo,
	}
}

func (m *SMTPMailer) Send(e Email) (string, error) {
	id := NewMessageID(m.Domain)
	msg := m.buildMessage(id, e.From, []string{e.To}, e.Subject, e.HTMLBody)
	if err := smtp.SendMail(m.Addr, m.Auth, e.From, []string{e.To}, msg); err != nil {
		return "", err
	}
	return id, nil
}

// SendBulk delivers the shared content to every recipient in one provider
// call. All recipients of the batch share one message ID, mirroring how the
// bulk operation reports a single send.
func (m *SMTPMailer) SendBulk(b BulkEmail) (string, error) {
	id := NewMessageID(m.Domain)
	msg := m.buildMessage(id, b.From, b.Recipients, b.Subject, b.HTMLBody)
	if err := smtp.SendMail(m.Addr, m.Auth, b.From, b.Recipients, msg); err != nil {
		return "", err
	}
	return id, nil
}

func (m *SMTPMailer) buildMessage(messageID, from string, to []string, subject, htmlBody string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	fmt.Fprintf(&sb, "Message-ID: <%s>\r\n", messageID)
	if m.ReplyTo != "" {
		fmt.Fprintf(&sb, "Reply-To: %s\r\n", m.ReplyTo)
	}
	fmt.Fprintf(&sb, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(htmlBody)
	sb.WriteString("\r\n")
	return []byte(sb.String())
}

var _ Mailer = (*SMTPMailer)(nil)
