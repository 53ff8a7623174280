// internal/model/mapping.go
package model

import "time"

// MessageMapping links a dispatched provider message ID back to its
// campaign, one row per recipient per send. Rows are immutable after
// creation and live as long as their campaign.
type MessageMapping struct {
    ID         string    `db:"id" json:"id"`
    MessageID  string    `db:"message_id" json:"message_id"`
    CampaignID string    `db:"campaign_id" json:"campaign_id"`
    Recipient  string    `db:"recipient" json:"recipient"`
    Sender     string    `db:"sender" json:"sender"`
    SentAt     time.Time `db:"sent_at" json:"sent_at"`
}
