package service_test

import (
	"errors"
	"testing"
	"time"

	appErrors "github.com/blackleoventure/email-campaign-backend/internal/errors"
	"github.com/blackleoventure/email-campaign-backend/internal/model"
	"github.com/blackleoventure/email-campaign-backend/internal/service"
)

func TestOverallStatsServedFromCache(t *testing.T) {
	directory := &memDirectoryRepo{clients: 2, investorLists: 3, contacts: 40}
	svc := service.NewStatsService(newMemCampaignRepo(), directory)

	first, err := svc.Overall()
	if err != nil {
		t.Fatal(err)
	}
	if first.Clients != 2 || first.InvestorLists != 3 || first.TotalContacts != 40 {
		t.Errorf("stats = %+v", first)
	}

	// Second call inside the TTL must not hit the directory again.
	if _, err := svc.Overall(); err != nil {
		t.Fatal(err)
	}
	if directory.calls != 1 {
		t.Errorf("directory queried %d times, want 1", directory.calls)
	}
}

func TestCampaignStatsView(t *testing.T) {
	campaigns := newMemCampaignRepo(&model.Campaign{
		ID:           "C1",
		Sender:       "us@co.com",
		Subject:      "Q3",
		SentCount:    10,
		UnreadCount:  7,
		OpenedCount:  3,
		BouncedCount: 1,
		RepliedCount: 2,
		RepliedBy:    []string{"a@x.com", "b@x.com"},
		SentAt:       time.Now(),
	})
	svc := service.NewStatsService(campaigns, &memDirectoryRepo{})

	stats, err := svc.CampaignStats("C1")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Stats["sent"] != 10 || stats.Stats["opened"] != 3 || stats.Stats["unread"] != 7 {
		t.Errorf("stats = %+v", stats.Stats)
	}
	if len(stats.RepliedBy) != 2 {
		t.Errorf("repliedBy = %v", stats.RepliedBy)
	}

	_, err = svc.CampaignStats("missing")
	var notFound *appErrors.ErrCampaignNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
}
