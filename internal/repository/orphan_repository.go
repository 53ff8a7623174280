package repository

import (
    "database/sql"
    "encoding/json"

    "github.com/blackleoventure/email-campaign-backend/internal/model"
)

// OrphanRepositoryInterface is write-only from the engine's perspective;
// orphaned replies are reviewed out-of-band.
type OrphanRepositoryInterface interface {
    Create(o *model.OrphanedReply) error
}

type OrphanRepository struct {
    DB *sql.DB
}

func (r *OrphanRepository) Create(o *model.OrphanedReply) error {
    headers, err := json.Marshal(o.Headers)
    if err != nil {
        return err
    }
    query := `
        INSERT INTO orphaned_replies
            (id, from_address, to_address, subject, content, received_at,
             headers, message_id, original_message_id, raw_message_summary)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
    _, err = r.DB.Exec(query,
        o.ID, o.From, o.To, o.Subject, o.Content, o.ReceivedAt,
        headers, o.MessageID, o.OriginalMessageID, o.RawMessageSummary,
    )
    return err
}

var _ OrphanRepositoryInterface = (*OrphanRepository)(nil)
