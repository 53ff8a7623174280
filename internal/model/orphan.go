// internal/model/orphan.go
package model

import "time"

// MailHeader is a single raw header from an inbound notification.
type MailHeader struct {
    Name  string `json:"name"`
    Value string `json:"value"`
}

// OrphanedReply is an inbound reply that could not be correlated to any
// campaign. Stored standalone for manual reconciliation and never read
// back by the engine.
type OrphanedReply struct {
    ID                string       `db:"id" json:"id"`
    From              string       `db:"from_address" json:"from"`
    To                string       `db:"to_address" json:"to"`
    Subject           string       `db:"subject" json:"subject"`
    Content           string       `db:"content" json:"content"`
    ReceivedAt        time.Time    `db:"received_at" json:"received_at"`
    Headers           []MailHeader `db:"headers" json:"headers"`
    MessageID         string       `db:"message_id" json:"message_id"`
    OriginalMessageID string       `db:"original_message_id" json:"original_message_id"`
    RawMessageSummary string       `db:"raw_message_summary" json:"raw_message_summary"`
}
