// internal/model/reply.go
package model

import "time"

// Reply is an inbound reply correlated to a campaign. Appended once on
// successful correlation, never updated.
type Reply struct {
    ID         string    `db:"id" json:"id"`
    CampaignID string    `db:"campaign_id" json:"campaign_id"`
    From       string    `db:"from_address" json:"from"`
    Subject    string    `db:"subject" json:"subject"`
    Date       time.Time `db:"date" json:"date"`
    Body       string    `db:"body" json:"body"`
}
