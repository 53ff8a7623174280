// internal/service/stats_service.go
package service

import (
    "sync"
    "time"

    "github.com/blackleoventure/email-campaign-backend/internal/model"
    "github.com/blackleoventure/email-campaign-backend/internal/repository"
)

const overallStatsTTL = 5 * time.Minute

// OverallStats summarizes the directory collections for the dashboard.
type OverallStats struct {
    Clients       int `json:"clients"`
    InvestorLists int `json:"investorLists"`
    TotalContacts int `json:"totalContacts"`
}

// CampaignStats is the read model for one campaign's counters.
type CampaignStats struct {
    CampaignID string         `json:"campaignId"`
    Sender     string         `json:"sender"`
    Subject    string         `json:"subject"`
    SentAt     time.Time      `json:"sentAt"`
    MessageID  string         `json:"messageId"`
    Stats      map[string]int `json:"stats"`
    RepliedBy  []string       `json:"repliedBy,omitempty"`
}

// statsCache is an explicit cache value: data plus the time it was fetched.
type statsCache struct {
    data      *OverallStats
    fetchedAt time.Time
}

type StatsService struct {
    Campaigns repository.CampaignRepositoryInterface
    Directory repository.DirectoryRepositoryInterface

    mu    sync.Mutex
    cache statsCache
    ttl   time.Duration
}

func NewStatsService(campaigns repository.CampaignRepositoryInterface, directory repository.DirectoryRepositoryInterface) *StatsService {
    return &StatsService{
        Campaigns: campaigns,
        Directory: directory,
        ttl:       overallStatsTTL,
    }
}

// Overall returns the directory counts, served from the cache while it is
// fresh. The cache lives on the service, not in package state.
func (s *StatsService) Overall() (*OverallStats, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    if s.cache.data != nil && time.Since(s.cache.fetchedAt) < s.ttl {
        return s.cache.data, nil
    }

    clients, investorLists, contacts, err := s.Directory.Counts()
    if err != nil {
        return nil, err
    }
    stats := &OverallStats{
        Clients:       clients,
        InvestorLists: investorLists,
        TotalContacts: contacts,
    }
    s.cache = statsCache{data: stats, fetchedAt: time.Now()}
    return stats, nil
}

// CampaignStats returns one campaign's counters.
func (s *StatsService) CampaignStats(campaignID string) (*CampaignStats, error) {
    c, err := s.Campaigns.GetByID(campaignID)
    if err != nil {
        return nil, err
    }
    return campaignStatsView(c, true), nil
}

// AllCampaignStats pages through campaigns most-recent-first. RepliedBy is
// omitted from list views to keep responses small.
func (s *StatsService) AllCampaignStats(limit, offset int) ([]*CampaignStats, int, error) {
    if limit < 1 {
        limit = 20
    }
    if limit > 100 {
        limit = 100
    }
    if offset < 0 {
        offset = 0
    }

    campaigns, total, err := s.Campaigns.ListStats(limit, offset)
    if err != nil {
        return nil, 0, err
    }
    views := make([]*CampaignStats, len(campaigns))
    for i, c := range campaigns {
        views[i] = campaignStatsView(c, false)
    }
    return views, total, nil
}

func campaignStatsView(c *model.Campaign, includeRepliedBy bool) *CampaignStats {
    view := &CampaignStats{
        CampaignID: c.ID,
        Sender:     c.Sender,
        Subject:    c.Subject,
        SentAt:     c.SentAt,
        MessageID:  c.MessageID,
        Stats: map[string]int{
            "sent":    c.SentCount,
            "opened":  c.OpenedCount,
            "bounced": c.BouncedCount,
            "spammed": c.SpamCount,
            "unread":  c.UnreadCount,
            "replied": c.RepliedCount,
        },
    }
    if includeRepliedBy {
        view.RepliedBy = c.RepliedBy
    }
    return view
}
