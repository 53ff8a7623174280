// internal/service/processor.go
package service

import (
    "encoding/json"
    "log"
    "time"

    "github.com/google/uuid"

    "github.com/blackleoventure/email-campaign-backend/internal/intake"
    "github.com/blackleoventure/email-campaign-backend/internal/model"
    "github.com/blackleoventure/email-campaign-backend/internal/repository"
)

// Processor runs the background continuation of a webhook: correlation,
// counter aggregation, and the orphan fallback. The provider ack has
// already been sent by the time Handle runs, so failures here are logged
// and swallowed rather than surfaced.
type Processor struct {
    Campaigns repository.CampaignRepositoryInterface
    Orphans   repository.OrphanRepositoryInterface
    Engine    *CorrelationEngine
}

// Handle consumes one queued event.
func (p *Processor) Handle(payload []byte) error {
    var evt intake.Event
    if err := json.Unmarshal(payload, &evt); err != nil {
        log.Println("⚠️ Dropping malformed event payload:", err)
        return nil
    }

    switch evt.Kind {
    case intake.KindReply:
        p.ProcessReply(evt.Notification)
    case intake.KindBounce, intake.KindComplaint:
        p.ProcessEvent(evt.Notification)
    case intake.KindOpen:
        p.ProcessOpen(evt.CampaignID, evt.Recipient)
    default:
        log.Println("⚠️ Dropping event of unknown kind:", evt.Kind)
    }
    return nil
}

// ProcessReply correlates an inbound reply and either appends it to its
// campaign or stores it as an orphan. No campaign is mutated on a miss.
func (p *Processor) ProcessReply(n *intake.Notification) {
    if n == nil || n.NotificationType != "Received" {
        return
    }

    replyFrom := n.Mail.Source
    toAddress := ""
    if len(n.Mail.Destination) > 0 {
        toAddress = n.Mail.Destination[0]
    }
    if replyFrom == "" || toAddress == "" {
        log.Println("⚠️ Reply notification missing source or destination, dropping")
        return
    }

    subject := n.Mail.CommonHeaders.Subject
    if subject == "" {
        subject = "No Subject"
    }
    originalMessageID := intake.OriginalMessageID(n)

    campaignID, err := p.Engine.FindCampaign(originalMessageID, replyFrom, toAddress)
    if err != nil {
        log.Println("⚠️ Correlation lookup failed:", err)
    }
    if campaignID == "" {
        p.storeOrphan(replyFrom, toAddress, subject, originalMessageID, n)
        return
    }

    reply := &model.Reply{
        ID:         uuid.NewString(),
        CampaignID: campaignID,
        From:       replyFrom,
        Subject:    subject,
        Date:       intake.Timestamp(n),
        Body:       intake.ExtractContent(n),
    }
    if err := p.Campaigns.AddReply(campaignID, reply); err != nil {
        log.Println("⚠️ Failed to record reply for campaign", campaignID, ":", err)
        return
    }
    log.Println("✅ Recorded reply from", replyFrom, "for campaign", campaignID)
}

// ProcessEvent applies a bounce or complaint. These carry the campaign tag
// attached at send time, so there is no fallback chain: an unknown tag is
// dropped silently.
func (p *Processor) ProcessEvent(n *intake.Notification) {
    if n == nil {
        return
    }
    campaignID := intake.CampaignTag(n)
    if campaignID == "" {
        return
    }

    var (
        matched bool
        err     error
    )
    switch n.EventType {
    case "Bounce":
        if n.Bounce == nil {
            return
        }
        matched, err = p.Campaigns.RecordBounce(campaignID, recipientAddresses(n.Bounce.BouncedRecipients))
    case "Complaint":
        if n.Complaint == nil {
            return
        }
        matched, err = p.Campaigns.RecordComplaint(campaignID, recipientAddresses(n.Complaint.ComplainedRecipients))
    default:
        return
    }
    if err != nil {
        log.Println("⚠️ Failed to record", n.EventType, "for campaign", campaignID, ":", err)
        return
    }
    if !matched {
        log.Println("Dropping", n.EventType, "for unknown campaign", campaignID)
    }
}

// ProcessOpen counts a tracking-pixel hit. Repeated opens from the same
// recipient are no-ops.
func (p *Processor) ProcessOpen(campaignID, recipient string) {
    if campaignID == "" || recipient == "" {
        return
    }
    counted, err := p.Campaigns.RecordOpen(campaignID, recipient)
    if err != nil {
        log.Println("⚠️ Failed to record open for campaign", campaignID, ":", err)
        return
    }
    if counted {
        log.Println("✅ Recorded open by", recipient, "for campaign", campaignID)
    }
}

// storeOrphan persists an unmatched reply for manual reconciliation. A
// write failure here is swallowed; the webhook ack went out long ago.
func (p *Processor) storeOrphan(from, to, subject, originalMessageID string, n *intake.Notification) {
    if originalMessageID == "" {
        originalMessageID = "unknown"
    }
    messageID := n.Mail.MessageID
    if messageID == "" {
        messageID = "unknown"
    }

    summary, err := json.Marshal(map[string]interface{}{
        "notificationType": n.NotificationType,
        "mail": map[string]interface{}{
            "source":      n.Mail.Source,
            "destination": n.Mail.Destination,
            "timestamp":   n.Mail.Timestamp,
            "messageId":   n.Mail.MessageID,
        },
    })
    if err != nil {
        summary = []byte("{}")
    }

    orphan := &model.OrphanedReply{
        ID:                uuid.NewString(),
        From:              from,
        To:                to,
        Subject:           subject,
        Content:           intake.ExtractContent(n),
        ReceivedAt:        time.Now().UTC(),
        Headers:           n.Mail.Headers,
        MessageID:         messageID,
        OriginalMessageID: originalMessageID,
        RawMessageSummary: string(summary),
    }
    if err := p.Orphans.Create(orphan); err != nil {
        log.Println("⚠️ Failed to store orphaned reply:", err)
        return
    }
    log.Println("Stored orphaned reply from", from)
}

func recipientAddresses(recipients []intake.Recipient) []string {
    addrs := make([]string, 0, len(recipients))
    for _, r := range recipients {
        if r.EmailAddress != "" {
            addrs = append(addrs, r.EmailAddress)
        }
    }
    return addrs
}
