// internal/model/campaign.go
package model

import "time"

// Campaign is one bulk-send operation and its aggregate tracking state.
// Counters and membership sets are only ever mutated through the atomic
// statements in the campaign repository.
type Campaign struct {
    ID                string     `db:"campaign_id" json:"campaign_id"`
    Sender            string     `db:"sender" json:"sender"`
    Subject           string     `db:"subject" json:"subject"`
    MessageID         string     `db:"message_id" json:"message_id"`
    SentCount         int        `db:"sent_count" json:"sent_count"`
    UnreadCount       int        `db:"unread_count" json:"unread_count"`
    OpenedCount       int        `db:"opened_count" json:"opened_count"`
    BouncedCount      int        `db:"bounced_count" json:"bounced_count"`
    SpamCount         int        `db:"spam_count" json:"spam_count"`
    RepliedCount      int        `db:"replied_count" json:"replied_count"`
    OpenedBy          []string   `db:"opened_by" json:"opened_by"`
    RepliedBy         []string   `db:"replied_by" json:"replied_by"`
    BouncedRecipients []string   `db:"bounced_recipients" json:"bounced_recipients"`
    SpamRecipients    []string   `db:"spam_recipients" json:"spam_recipients"`
    SentAt            time.Time  `db:"sent_at" json:"sent_at"`
    LastOpened        *time.Time `db:"last_opened" json:"last_opened,omitempty"`
    LastUpdated       *time.Time `db:"last_updated" json:"last_updated,omitempty"`
}
