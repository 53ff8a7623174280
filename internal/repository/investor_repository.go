package repository

import (
    "database/sql"

    "github.com/lib/pq"
)

// InvestorRepositoryInterface exposes the one lookup dispatch needs:
// resolving contact-list IDs to deliverable addresses.
type InvestorRepositoryInterface interface {
    EmailsByListIDs(listIDs []string) ([]string, error)
}

type InvestorRepository struct {
    DB *sql.DB
}

// listIDChunkSize keeps each IN query under the store's membership limit.
const listIDChunkSize = 10

func (r *InvestorRepository) EmailsByListIDs(listIDs []string) ([]string, error) {
    emails := []string{}
    for start := 0; start < len(listIDs); start += listIDChunkSize {
        end := start + listIDChunkSize
        if end > len(listIDs) {
            end = len(listIDs)
        }
        rows, err := r.DB.Query(`
            SELECT partner_email FROM investors
            WHERE list_id = ANY($1) AND partner_email <> ''
        `, pq.Array(listIDs[start:end]))
        if err != nil {
            return nil, err
        }
        for rows.Next() {
            var email string
            if err := rows.Scan(&email); err != nil {
                rows.Close()
                return nil, err
            }
            emails = append(emails, email)
        }
        if err := rows.Err(); err != nil {
            rows.Close()
            return nil, err
        }
        rows.Close()
    }
    return emails, nil
}

var _ InvestorRepositoryInterface = (*InvestorRepository)(nil)

// DirectoryRepositoryInterface supplies the overall-stats endpoint with the
// raw collection sizes it aggregates.
type DirectoryRepositoryInterface interface {
    Counts() (clients, investorLists, contacts int, err error)
}

type DirectoryRepository struct {
    DB *sql.DB
}

func (r *DirectoryRepository) Counts() (int, int, int, error) {
    var clients, investorLists, contacts int
    if err := r.DB.QueryRow(`SELECT COUNT(*) FROM clients`).Scan(&clients); err != nil {
        return 0, 0, 0, err
    }
    if err := r.DB.QueryRow(`SELECT COUNT(DISTINCT list_id) FROM investors`).Scan(&investorLists); err != nil {
        return 0, 0, 0, err
    }
    if err := r.DB.QueryRow(`SELECT COUNT(*) FROM investors`).Scan(&contacts); err != nil {
        return 0, 0, 0, err
    }
    return clients, investorLists, contacts, nil
}

var _ DirectoryRepositoryInterface = (*DirectoryRepository)(nil)
