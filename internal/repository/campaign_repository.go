package repository

import (
    "database/sql"
    "time"

    "github.com/lib/pq"

    appErrors "github.com/blackleoventure/email-campaign-backend/internal/errors"
    "github.com/blackleoventure/email-campaign-backend/internal/model"
)

type CampaignRepositoryInterface interface {
    // Lookups
    GetByID(id string) (*model.Campaign, error)
    ListRecent(limit int) ([]*model.Campaign, error)
    ListStats(limit, offset int) ([]*model.Campaign, int, error)

    // Counter aggregation. Every mutation is a single atomic statement (or
    // one transaction for replies); callers never read-modify-write.
    MergeSendStats(id, sender, subject, messageID string, sentAt time.Time, recipients int) error
    RecordOpen(id, recipient string) (bool, error)
    AddReply(id string, reply *model.Reply) error
    RecordBounce(id string, recipients []string) (bool, error)
    RecordComplaint(id string, recipients []string) (bool, error)

    Delete(id string) error
}

type CampaignRepository struct {
    DB *sql.DB
}

// deleteChunkSize keeps each cascade batch under the store's per-transaction
// write limit.
const deleteChunkSize = 500

// ====================== Lookups ======================

func (r *CampaignRepository) GetByID(id string) (*model.Campaign, error) {
    query := `
        SELECT campaign_id, sender, subject, message_id,
               sent_count, unread_count, opened_count, bounced_count, spam_count, replied_count,
               opened_by, replied_by, bounced_recipients, spam_recipients,
               sent_at, last_opened, last_updated
        FROM email_tracking WHERE campaign_id=$1
    `
    var c model.Campaign
    err := r.DB.QueryRow(query, id).Scan(
        &c.ID, &c.Sender, &c.Subject, &c.MessageID,
        &c.SentCount, &c.UnreadCount, &c.OpenedCount, &c.BouncedCount, &c.SpamCount, &c.RepliedCount,
        pq.Array(&c.OpenedBy), pq.Array(&c.RepliedBy), pq.Array(&c.BouncedRecipients), pq.Array(&c.SpamRecipients),
        &c.SentAt, &c.LastOpened, &c.LastUpdated,
    )
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, appErrors.NewCampaignNotFound(id)
        }
        return nil, err
    }
    return &c, nil
}

// ListRecent returns the most recently sent campaigns with their repliedBy
// sets, newest first. Used by the last-resort correlation heuristic.
func (r *CampaignRepository) ListRecent(limit int) ([]*model.Campaign, error) {
    query := `
        SELECT campaign_id, sender, replied_by, sent_at
        FROM email_tracking
        ORDER BY sent_at DESC
        LIMIT $1
    `
    rows, err := r.DB.Query(query, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    campaigns := []*model.Campaign{}
    for rows.Next() {
        c := &model.Campaign{}
        if err := rows.Scan(&c.ID, &c.Sender, pq.Array(&c.RepliedBy), &c.SentAt); err != nil {
            return nil, err
        }
        campaigns = append(campaigns, c)
    }
    return campaigns, rows.Err()
}

func (r *CampaignRepository) ListStats(limit, offset int) ([]*model.Campaign, int, error) {
    query := `
        SELECT campaign_id, sender, subject, message_id,
               sent_count, unread_count, opened_count, bounced_count, spam_count, replied_count,
               opened_by, replied_by, bounced_recipients, spam_recipients,
               sent_at, last_opened, last_updated
        FROM email_tracking
        ORDER BY sent_at DESC
        LIMIT $1 OFFSET $2
    `
    rows, err := r.DB.Query(query, limit, offset)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()

    campaigns := []*model.Campaign{}
    for rows.Next() {
        c := &model.Campaign{}
        if err := rows.Scan(
            &c.ID, &c.Sender, &c.Subject, &c.MessageID,
            &c.SentCount, &c.UnreadCount, &c.OpenedCount, &c.BouncedCount, &c.SpamCount, &c.RepliedCount,
            pq.Array(&c.OpenedBy), pq.Array(&c.RepliedBy), pq.Array(&c.BouncedRecipients), pq.Array(&c.SpamRecipients),
            &c.SentAt, &c.LastOpened, &c.LastUpdated,
        ); err != nil {
            return nil, 0, err
        }
        campaigns = append(campaigns, c)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }

    var total int
    if err := r.DB.QueryRow(`SELECT COUNT(*) FROM email_tracking`).Scan(&total); err != nil {
        return nil, 0, err
    }
    return campaigns, total, nil
}

// ====================== Counter aggregation ======================

// MergeSendStats upserts the campaign row, adding to sentCount/unreadCount
// rather than overwriting so batched sends for the same campaign stack up.
func (r *CampaignRepository) MergeSendStats(id, sender, subject, messageID string, sentAt time.Time, recipients int) error {
    query := `
        INSERT INTO email_tracking
            (campaign_id, sender, subject, message_id, sent_count, unread_count, sent_at, last_updated)
        VALUES ($1, $2, $3, $4, $5, $5, $6, NOW())
        ON CONFLICT (campaign_id) DO UPDATE SET
            sender       = EXCLUDED.sender,
            subject      = EXCLUDED.subject,
            message_id   = EXCLUDED.message_id,
            sent_count   = email_tracking.sent_count + EXCLUDED.sent_count,
            unread_count = email_tracking.unread_count + EXCLUDED.unread_count,
            sent_at      = EXCLUDED.sent_at,
            last_updated = NOW()
    `
    _, err := r.DB.Exec(query, id, sender, subject, messageID, recipients, sentAt)
    return err
}

// RecordOpen counts an open exactly once per recipient: the membership test
// and the increments are one statement, so redelivered opens are no-ops.
// Returns false when the recipient was already counted (or the campaign
// does not exist).
func (r *CampaignRepository) RecordOpen(id, recipient string) (bool, error) {
    query := `
        UPDATE email_tracking SET
            opened_count = opened_count + 1,
            unread_count = GREATEST(unread_count - 1, 0),
            opened_by    = array_append(opened_by, $2),
            last_opened  = NOW(),
            last_updated = NOW()
        WHERE campaign_id = $1 AND NOT ($2 = ANY(opened_by))
    `
    res, err := r.DB.Exec(query, id, recipient)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    return n > 0, err
}

// AddReply appends the reply row and bumps the counters in one transaction.
// repliedCount increments on every reply; repliedBy is a set and only grows
// on the first reply from a sender.
func (r *CampaignRepository) AddReply(id string, reply *model.Reply) error {
    tx, err := r.DB.Begin()
    if err != nil {
        return err
    }
    defer tx.Rollback()

    _, err = tx.Exec(`
        INSERT INTO replies (id, campaign_id, from_address, subject, date, body)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, reply.ID, id, reply.From, reply.Subject, reply.Date, reply.Body)
    if err != nil {
        return err
    }

    res, err := tx.Exec(`
        UPDATE email_tracking SET
            replied_count = replied_count + 1,
            replied_by    = CASE WHEN $2 = ANY(replied_by) THEN replied_by
                                 ELSE array_append(replied_by, $2) END,
            last_updated  = NOW()
        WHERE campaign_id = $1
    `, id, reply.From)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return appErrors.NewCampaignNotFound(id)
    }
    return tx.Commit()
}

// RecordBounce adds every reported recipient to the count and unions them
// into the set. The count grows on redelivery of the same event; the set
// does not. Returns false when the tagged campaign does not exist.
func (r *CampaignRepository) RecordBounce(id string, recipients []string) (bool, error) {
    return r.recordDeliveryEvent(id, recipients, "bounced_count", "bounced_recipients")
}

func (r *CampaignRepository) RecordComplaint(id string, recipients []string) (bool, error) {
    return r.recordDeliveryEvent(id, recipients, "spam_count", "spam_recipients")
}

func (r *CampaignRepository) recordDeliveryEvent(id string, recipients []string, countCol, setCol string) (bool, error) {
    if len(recipients) == 0 {
        return false, nil
    }
    query := `
        UPDATE email_tracking SET
            ` + countCol + ` = ` + countCol + ` + $2,
            ` + setCol + `   = ARRAY(SELECT DISTINCT e FROM unnest(` + setCol + ` || $3::text[]) AS e),
            last_updated     = NOW()
        WHERE campaign_id = $1
    `
    res, err := r.DB.Exec(query, id, len(recipients), pq.Array(recipients))
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    return n > 0, err
}

// ====================== Deletion ======================

// Delete cascades to mapping rows and replies in chunks below the
// per-transaction write limit, then removes the campaign row. Atomicity
// holds within each chunk only.
func (r *CampaignRepository) Delete(id string) error {
    if err := r.deleteChunked("message_id_mapping", id); err != nil {
        return err
    }
    if err := r.deleteChunked("replies", id); err != nil {
        return err
    }
    _, err := r.DB.Exec(`DELETE FROM email_tracking WHERE campaign_id=$1`, id)
    return err
}

func (r *CampaignRepository) deleteChunked(table, campaignID string) error {
    query := `
        DELETE FROM ` + table + `
        WHERE id IN (SELECT id FROM ` + table + ` WHERE campaign_id=$1 LIMIT $2)
    `
    for {
        res, err := r.DB.Exec(query, campaignID, deleteChunkSize)
        if err != nil {
            return err
        }
        n, err := res.RowsAffected()
        if err != nil {
            return err
        }
        if n < deleteChunkSize {
            return nil
        }
    }
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
