// internal/service/correlation.go
package service

import (
    "log"
    "strings"

    "github.com/blackleoventure/email-campaign-backend/internal/model"
    "github.com/blackleoventure/email-campaign-backend/internal/repository"
)

// recentCampaignWindow bounds the last-resort heuristic to the most
// recently sent campaigns.
const recentCampaignWindow = 10

// CorrelationEngine resolves an inbound reply to the campaign that produced
// the original message. Strategies run precision-first: an identifier match
// is never overridden by the weaker pair or recency heuristics, even when
// they would disagree.
type CorrelationEngine struct {
    Mappings  repository.MappingRepositoryInterface
    Campaigns repository.CampaignRepositoryInterface
}

// FindCampaign returns the campaign ID for a reply, or "" when no strategy
// matches. messageID is the reply's best-effort reference to the original
// message; replyFrom/toAddress are the inbound From and declared To.
func (e *CorrelationEngine) FindCampaign(messageID, replyFrom, toAddress string) (string, error) {
    cleaned := normalizeMessageID(messageID)

    if messageID != "" {
        // 1. Exact identifier match.
        m, err := e.Mappings.FindByMessageID(messageID)
        if err != nil {
            return "", err
        }
        if m != nil {
            return m.CampaignID, nil
        }

        // 2. Identifier headers often arrive wrapped in angle brackets;
        // retry with the normalized form.
        if cleaned != "" && cleaned != messageID {
            m, err = e.Mappings.FindByMessageID(cleaned)
            if err != nil {
                return "", err
            }
            if m != nil {
                return m.CampaignID, nil
            }
        }

        // 3. Substring fallback over every mapping row. Expensive full
        // scan, kept because identifier encoding varies across providers.
        id, err := e.partialMatch(messageID, cleaned)
        if err != nil {
            return "", err
        }
        if id != "" {
            return id, nil
        }
    }

    // 4. The inbound From was our recipient and the inbound To our sender;
    // take the most recent send for that pair.
    if replyFrom != "" && toAddress != "" {
        m, err := e.Mappings.FindLatestByPair(replyFrom, toAddress)
        if err != nil {
            return "", err
        }
        if m != nil {
            return m.CampaignID, nil
        }
    }

    // 5. Weakest signal: the sender already replied to a recent campaign.
    return e.recentCampaignMatch(replyFrom)
}

func (e *CorrelationEngine) partialMatch(messageID, cleaned string) (string, error) {
    mappings, err := e.Mappings.ListAll()
    if err != nil {
        return "", err
    }
    for _, m := range mappings {
        if m.MessageID == "" {
            continue
        }
        if strings.Contains(messageID, m.MessageID) || (cleaned != "" && strings.Contains(m.MessageID, cleaned)) {
            log.Printf("Partial message-id match: %s -> campaign %s\n", m.MessageID, m.CampaignID)
            return m.CampaignID, nil
        }
    }
    return "", nil
}

func (e *CorrelationEngine) recentCampaignMatch(replyFrom string) (string, error) {
    if replyFrom == "" {
        return "", nil
    }
    campaigns, err := e.Campaigns.ListRecent(recentCampaignWindow)
    if err != nil {
        return "", err
    }
    for _, c := range campaigns {
        if model.NewStringSet(c.RepliedBy...).Has(replyFrom) {
            log.Printf("Matched %s via repliedBy of recent campaign %s\n", replyFrom, c.ID)
            return c.ID, nil
        }
    }
    return "", nil
}

// normalizeMessageID strips angle brackets and surrounding whitespace.
func normalizeMessageID(id string) string {
    return strings.TrimSpace(strings.NewReplacer("<", "", ">", "").Replace(id))
}
