package repository

import (
    "database/sql"
    "fmt"
    "strings"

    "github.com/blackleoventure/email-campaign-backend/internal/model"
)

type MappingRepositoryInterface interface {
    // CreateBatch inserts one row per recipient, chunked below the store's
    // per-transaction write limit. Dispatch is the only caller.
    CreateBatch(mappings []*model.MessageMapping) error

    // FindByMessageID returns nil, nil when no row matches.
    FindByMessageID(messageID string) (*model.MessageMapping, error)

    // FindLatestByPair returns the most recent mapping for a
    // (recipient, sender) pair, or nil, nil.
    FindLatestByPair(recipient, sender string) (*model.MessageMapping, error)

    // ListAll loads every mapping row. Only the substring-match fallback
    // uses this; it is deliberately expensive.
    ListAll() ([]*model.MessageMapping, error)
}

type MappingRepository struct {
    DB *sql.DB
}

const insertChunkSize = 500

func (r *MappingRepository) CreateBatch(mappings []*model.MessageMapping) error {
    for start := 0; start < len(mappings); start += insertChunkSize {
        end := start + insertChunkSize
        if end > len(mappings) {
            end = len(mappings)
        }
        if err := r.insertChunk(mappings[start:end]); err != nil {
            return err
        }
    }
    return nil
}

func (r *MappingRepository) insertChunk(chunk []*model.MessageMapping) error {
    if len(chunk) == 0 {
        return nil
    }
    placeholders := make([]string, 0, len(chunk))
    args := make([]interface{}, 0, len(chunk)*6)
    for i, m := range chunk {
        base := i * 6
        placeholders = append(placeholders, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d)",
            base+1, base+2, base+3, base+4, base+5, base+6))
        args = append(args, m.ID, m.MessageID, m.CampaignID, m.Recipient, m.Sender, m.SentAt)
    }
    query := `
        INSERT INTO message_id_mapping (id, message_id, campaign_id, recipient, sender, sent_at)
        VALUES ` + strings.Join(placeholders, ",")
    _, err := r.DB.Exec(query, args...)
    return err
}

func (r *MappingRepository) FindByMessageID(messageID string) (*model.MessageMapping, error) {
    query := `
        SELECT id, message_id, campaign_id, recipient, sender, sent_at
        FROM message_id_mapping
        WHERE message_id=$1
        LIMIT 1
    `
    return r.scanOne(r.DB.QueryRow(query, messageID))
}

func (r *MappingRepository) FindLatestByPair(recipient, sender string) (*model.MessageMapping, error) {
    query := `
        SELECT id, message_id, campaign_id, recipient, sender, sent_at
        FROM message_id_mapping
        WHERE recipient=$1 AND sender=$2
        ORDER BY sent_at DESC
        LIMIT 1
    `
    return r.scanOne(r.DB.QueryRow(query, recipient, sender))
}

func (r *MappingRepository) ListAll() ([]*model.MessageMapping, error) {
    rows, err := r.DB.Query(`SELECT id, message_id, campaign_id, recipient, sender, sent_at FROM message_id_mapping`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    mappings := []*model.MessageMapping{}
    for rows.Next() {
        m := &model.MessageMapping{}
        if err := rows.Scan(&m.ID, &m.MessageID, &m.CampaignID, &m.Recipient, &m.Sender, &m.SentAt); err != nil {
            return nil, err
        }
        mappings = append(mappings, m)
    }
    return mappings, rows.Err()
}

func (r *MappingRepository) scanOne(row *sql.Row) (*model.MessageMapping, error) {
    var m model.MessageMapping
    err := row.Scan(&m.ID, &m.MessageID, &m.CampaignID, &m.Recipient, &m.Sender, &m.SentAt)
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, nil
        }
        return nil, err
    }
    return &m, nil
}

var _ MappingRepositoryInterface = (*MappingRepository)(nil)
