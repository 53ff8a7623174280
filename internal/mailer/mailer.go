package mailer

import (
	"fmt"
	"log"

	"github.com/google/uuid"
)

// Email is a single-recipient outbound message.
type Email struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
}

// BulkEmail fans shared content out to many recipients in one provider
// call. Callers chunk Recipients below the provider's destination limit.
type BulkEmail struct {
	From       string
	Subject    string
	HTMLBody   string
	Recipients []string
}

// Mailer is the outbound mail collaborator. Both operations return the
// provider message ID recorded in the mapping rows.
type Mailer interface {
	Send(e Email) (messageID string, err error)
	SendBulk(b BulkEmail) (messageID string, err error)
}

// NewMessageID generates the Message-ID recorded for a send. Stored without
// angle brackets; the header form adds them.
func NewMessageID(domain string) string {
	return fmt.Sprintf("%s@%s", uuid.NewString(), domain)
}

// LogMailer logs instead of sending. Stands in for the real provider in
// development when no SMTP endpoint is configured.
type LogMailer struct {
	Domain string
}

func (m *LogMailer) Send(e Email) (string, error) {
	id := NewMessageID(m.Domain)
	log.Printf("📧 [dry-run] send to %s subject %q messageId %s\n", e.To, e.Subject, id)
	return id, nil
}

func (m *LogMailer) SendBulk(b BulkEmail) (string, error) {
	id := NewMessageID(m.Domain)
	log.Printf("📧 [dry-run] bulk send to %d recipients subject %q messageId %s\n", len(b.Recipients), b.Subject, id)
	return id, nil
}

var _ Mailer = (*LogMailer)(nil)
