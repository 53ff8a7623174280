// internal/service/dispatch_service.go
package service

import (
    "fmt"
    "log"
    "net/url"
    "strings"
    "time"

    "github.com/google/uuid"

    appErrors "github.com/blackleoventure/email-campaign-backend/internal/errors"
    "github.com/blackleoventure/email-campaign-backend/internal/mailer"
    "github.com/blackleoventure/email-campaign-backend/internal/model"
    "github.com/blackleoventure/email-campaign-backend/internal/repository"
)

// destinationBatchSize stays under the mail provider's per-request
// destination limit.
const destinationBatchSize = 50

// DispatchService sends a campaign and records everything the correlation
// engine needs later: one mapping row per recipient and the merged
// campaign counters. It is the only writer of mapping rows.
type DispatchService struct {
    Campaigns repository.CampaignRepositoryInterface
    Mappings  repository.MappingRepositoryInterface
    Investors repository.InvestorRepositoryInterface
    Mailer    mailer.Mailer
    BaseURL   string
}

type DispatchRequest struct {
    CampaignID string
    Sender     string
    Subject    string
    HTML       string
    // Recipients is a comma-separated list of contact-list IDs.
    Recipients string
}

type DispatchResult struct {
    CampaignID     string `json:"campaignId"`
    RecipientCount int    `json:"recipientCount"`
    BatchCount     int    `json:"batchCount"`
}

func (s *DispatchService) SendCampaign(req DispatchRequest) (*DispatchResult, error) {
    if req.CampaignID == "" || req.HTML == "" || req.Recipients == "" || req.Subject == "" {
        return nil, appErrors.NewValidation("Missing required fields")
    }

    emails, err := s.Investors.EmailsByListIDs(splitListIDs(req.Recipients))
    if err != nil {
        return nil, err
    }
    if len(emails) == 0 {
        return nil, appErrors.NewValidation("No valid recipient emails found")
    }

    batches := chunkRecipients(emails, destinationBatchSize)
    for _, batch := range batches {
        if len(batch) > 1 {
            if err := s.sendBulk(req, batch); err != nil {
                return nil, err
            }
        } else {
            if err := s.sendIndividual(req, batch[0]); err != nil {
                return nil, err
            }
        }
    }

    return &DispatchResult{
        CampaignID:     req.CampaignID,
        RecipientCount: len(emails),
        BatchCount:     len(batches),
    }, nil
}

// sendBulk dispatches one chunk in a single provider call. On failure it
// falls back to one send per recipient in the chunk, each independently
// recorded.
func (s *DispatchService) sendBulk(req DispatchRequest, batch []string) error {
    bulk := mailer.BulkEmail{
        From:       req.Sender,
        Subject:    req.Subject,
        HTMLBody:   req.HTML + s.trackingPixel(req.CampaignID, ""),
        Recipients: batch,
    }
    messageID, err := s.Mailer.SendBulk(bulk)
    if err != nil {
        log.Println("⚠️ Bulk send failed, falling back to individual sends:", err)
        for _, recipient := range batch {
            if err := s.sendIndividual(req, recipient); err != nil {
                return err
            }
        }
        return nil
    }
    return s.recordSend(req, messageID, batch)
}

func (s *DispatchService) sendIndividual(req DispatchRequest, recipient string) error {
    email := mailer.Email{
        From:     req.Sender,
        To:       recipient,
        Subject:  req.Subject,
        HTMLBody: req.HTML + s.trackingPixel(req.CampaignID, recipient),
    }
    messageID, err := s.Mailer.Send(email)
    if err != nil {
        return fmt.Errorf("sending to %s: %w", recipient, err)
    }
    return s.recordSend(req, messageID, []string{recipient})
}

// recordSend merges the campaign counters and writes one mapping row per
// recipient dispatched in this call.
func (s *DispatchService) recordSend(req DispatchRequest, messageID string, recipients []string) error {
    sentAt := time.Now().UTC()
    if err := s.Campaigns.MergeSendStats(req.CampaignID, req.Sender, req.Subject, messageID, sentAt, len(recipients)); err != nil {
        return err
    }

    mappings := make([]*model.MessageMapping, len(recipients))
    for i, recipient := range recipients {
        mappings[i] = &model.MessageMapping{
            ID:         uuid.NewString(),
            MessageID:  messageID,
            CampaignID: req.CampaignID,
            Recipient:  recipient,
            Sender:     req.Sender,
            SentAt:     sentAt,
        }
    }
    return s.Mappings.CreateBatch(mappings)
}

// trackingPixel embeds the open-tracking image. Bulk sends share content,
// so their pixel carries only the campaign ID.
func (s *DispatchService) trackingPixel(campaignID, recipient string) string {
    src := fmt.Sprintf("%s/track-open?campaignId=%s", s.BaseURL, url.QueryEscape(campaignID))
    if recipient != "" {
        src += "&recipient=" + url.QueryEscape(recipient)
    }
    return fmt.Sprintf(`<img src="%s" width="1" height="1" style="display:none;" />`, src)
}

func splitListIDs(recipients string) []string {
    parts := strings.Split(recipients, ",")
    ids := make([]string, 0, len(parts))
    for _, p := range parts {
        if id := strings.TrimSpace(p); id != "" {
            ids = append(ids, id)
        }
    }
    return ids
}

func chunkRecipients(emails []string, size int) [][]string {
    chunks := [][]string{}
    for start := 0; start < len(emails); start += size {
        end := start + size
        if end > len(emails) {
            end = len(emails)
        }
        chunks = append(chunks, emails[start:end])
    }
    return chunks
}
