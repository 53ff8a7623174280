package service_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/blackleoventure/email-campaign-backend/internal/intake"
	"github.com/blackleoventure/email-campaign-backend/internal/model"
	"github.com/blackleoventure/email-campaign-backend/internal/service"
)

func newProcessor(campaigns *memCampaignRepo, mappings *memMappingRepo, orphans *memOrphanRepo) *service.Processor {
	return &service.Processor{
		Campaigns: campaigns,
		Orphans:   orphans,
		Engine:    &service.CorrelationEngine{Mappings: mappings, Campaigns: campaigns},
	}
}

func replyNotification(from, to, inReplyTo string) *intake.Notification {
	n := &intake.Notification{
		NotificationType: "Received",
		Text:             "Thanks, interested!",
	}
	n.Mail.Source = from
	n.Mail.Destination = []string{to}
	n.Mail.MessageID = "inbound-1"
	n.Mail.Timestamp = time.Now().Format(time.RFC3339)
	n.Mail.CommonHeaders.Subject = "Re: Q3 update"
	n.Mail.CommonHeaders.InReplyTo = inReplyTo
	return n
}

func TestReplyCorrelatedByMessageID(t *testing.T) {
	campaigns := newMemCampaignRepo(&model.Campaign{ID: "C1", SentCount: 2, UnreadCount: 2, SentAt: time.Now()})
	mappings := &memMappingRepo{rows: []*model.MessageMapping{
		{MessageID: "M1", CampaignID: "C1", Recipient: "b@x.com", Sender: "us@co.com", SentAt: time.Now()},
	}}
	orphans := &memOrphanRepo{}
	p := newProcessor(campaigns, mappings, orphans)

	p.ProcessReply(replyNotification("b@x.com", "us@co.com", "M1"))

	c, _ := campaigns.GetByID("C1")
	if c.RepliedCount != 1 {
		t.Errorf("repliedCount = %d, want 1", c.RepliedCount)
	}
	if len(c.RepliedBy) != 1 || c.RepliedBy[0] != "b@x.com" {
		t.Errorf("repliedBy = %v, want [b@x.com]", c.RepliedBy)
	}
	if len(campaigns.replies) != 1 {
		t.Fatalf("expected 1 reply record, got %d", len(campaigns.replies))
	}
	if campaigns.replies[0].Body != "Thanks, interested!" {
		t.Errorf("reply body = %q", campaigns.replies[0].Body)
	}
	if len(orphans.created) != 0 {
		t.Errorf("expected no orphans, got %d", len(orphans.created))
	}
}

func TestUnmatchedReplyBecomesOrphan(t *testing.T) {
	campaigns := newMemCampaignRepo(&model.Campaign{ID: "C1", SentCount: 2, UnreadCount: 2, SentAt: time.Now()})
	orphans := &memOrphanRepo{}
	p := newProcessor(campaigns, &memMappingRepo{}, orphans)

	p.ProcessReply(replyNotification("stranger@z.com", "someone@else.com", "<unknown-id>"))

	if len(orphans.created) != 1 {
		t.Fatalf("expected exactly 1 orphaned reply, got %d", len(orphans.created))
	}
	o := orphans.created[0]
	if o.From != "stranger@z.com" || o.To != "someone@else.com" {
		t.Errorf("orphan addressed %s -> %s", o.From, o.To)
	}
	if o.OriginalMessageID != "<unknown-id>" {
		t.Errorf("originalMessageId = %q", o.OriginalMessageID)
	}

	c, _ := campaigns.GetByID("C1")
	if c.RepliedCount != 0 || len(campaigns.replies) != 0 {
		t.Error("campaign must not be mutated on a correlation miss")
	}
}

func TestRepeatedRepliesIncrementCountNotSet(t *testing.T) {
	campaigns := newMemCampaignRepo(&model.Campaign{ID: "C1", SentAt: time.Now()})
	mappings := &memMappingRepo{rows: []*model.MessageMapping{
		{MessageID: "M1", CampaignID: "C1", Recipient: "b@x.com", Sender: "us@co.com", SentAt: time.Now()},
	}}
	p := newProcessor(campaigns, mappings, &memOrphanRepo{})

	p.ProcessReply(replyNotification("b@x.com", "us@co.com", "M1"))
	p.ProcessReply(replyNotification("b@x.com", "us@co.com", "M1"))

	c, _ := campaigns.GetByID("C1")
	if c.RepliedCount != 2 {
		t.Errorf("repliedCount = %d, want 2 (count increments every event)", c.RepliedCount)
	}
	if len(c.RepliedBy) != 1 {
		t.Errorf("repliedBy = %v, want a single entry", c.RepliedBy)
	}
}

func bounceNotification(campaignID string, recipients ...string) *intake.Notification {
	n := &intake.Notification{EventType: "Bounce", Bounce: &intake.Bounce{}}
	for _, r := range recipients {
		n.Bounce.BouncedRecipients = append(n.Bounce.BouncedRecipients, intake.Recipient{EmailAddress: r})
	}
	if campaignID != "" {
		n.Mail.Tags = map[string][]string{"campaignId": {campaignID}}
	}
	return n
}

func TestBounceAccounting(t *testing.T) {
	campaigns := newMemCampaignRepo(&model.Campaign{ID: "C1", SentAt: time.Now()})
	p := newProcessor(campaigns, &memMappingRepo{}, &memOrphanRepo{})

	evt := bounceNotification("C1", "a@x.com", "b@x.com")
	p.ProcessEvent(evt)

	c, _ := campaigns.GetByID("C1")
	if c.BouncedCount != 2 {
		t.Errorf("bouncedCount = %d, want 2", c.BouncedCount)
	}
	if len(c.BouncedRecipients) != 2 {
		t.Errorf("bouncedRecipients = %v, want two entries", c.BouncedRecipients)
	}

	// Redelivery of the identical event: count grows again, set does not.
	p.ProcessEvent(evt)
	c, _ = campaigns.GetByID("C1")
	if c.BouncedCount != 4 {
		t.Errorf("bouncedCount after redelivery = %d, want 4", c.BouncedCount)
	}
	if len(c.BouncedRecipients) != 2 {
		t.Errorf("bouncedRecipients after redelivery = %v, want two entries", c.BouncedRecipients)
	}
}

func TestBounceForUnknownCampaignDroppedSilently(t *testing.T) {
	campaigns := newMemCampaignRepo()
	orphans := &memOrphanRepo{}
	p := newProcessor(campaigns, &memMappingRepo{}, orphans)

	p.ProcessEvent(bounceNotification("nope", "a@x.com"))

	if len(orphans.created) != 0 {
		t.Error("bounces for unknown campaigns are dropped, not orphaned")
	}
}

func TestBounceWithoutCampaignTagIgnored(t *testing.T) {
	campaigns := newMemCampaignRepo(&model.Campaign{ID: "C1", SentAt: time.Now()})
	p := newProcessor(campaigns, &memMappingRepo{}, &memOrphanRepo{})

	p.ProcessEvent(bounceNotification("", "a@x.com"))

	c, _ := campaigns.GetByID("C1")
	if c.BouncedCount != 0 {
		t.Errorf("bouncedCount = %d, want 0", c.BouncedCount)
	}
}

func TestComplaintAccounting(t *testing.T) {
	campaigns := newMemCampaignRepo(&model.Campaign{ID: "C1", SentAt: time.Now()})
	p := newProcessor(campaigns, &memMappingRepo{}, &memOrphanRepo{})

	n := &intake.Notification{
		EventType: "Complaint",
		Complaint: &intake.Complaint{ComplainedRecipients: []intake.Recipient{{EmailAddress: "a@x.com"}}},
	}
	n.Mail.Tags = map[string][]string{"campaignId": {"C1"}}
	p.ProcessEvent(n)

	c, _ := campaigns.GetByID("C1")
	if c.SpamCount != 1 || len(c.SpamRecipients) != 1 {
		t.Errorf("spamCount = %d, spamRecipients = %v", c.SpamCount, c.SpamRecipients)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	campaigns := newMemCampaignRepo(&model.Campaign{ID: "C1", SentCount: 2, UnreadCount: 2, SentAt: time.Now()})
	p := newProcessor(campaigns, &memMappingRepo{}, &memOrphanRepo{})

	p.ProcessOpen("C1", "a@x.com")
	p.ProcessOpen("C1", "a@x.com")

	c, _ := campaigns.GetByID("C1")
	if c.OpenedCount != 1 {
		t.Errorf("openedCount = %d, want 1", c.OpenedCount)
	}
	if c.UnreadCount != 1 {
		t.Errorf("unreadCount = %d, want 1", c.UnreadCount)
	}
	if len(c.OpenedBy) != 1 {
		t.Errorf("openedBy = %v, want single entry", c.OpenedBy)
	}
}

func TestHandleRoutesQueuedEvents(t *testing.T) {
	campaigns := newMemCampaignRepo(&model.Campaign{ID: "C1", SentCount: 1, UnreadCount: 1, SentAt: time.Now()})
	p := newProcessor(campaigns, &memMappingRepo{}, &memOrphanRepo{})

	payload, err := json.Marshal(intake.Event{
		Kind:       intake.KindOpen,
		CampaignID: "C1",
		Recipient:  "a@x.com",
		ReceivedAt: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Handle(payload); err != nil {
		t.Fatal(err)
	}

	c, _ := campaigns.GetByID("C1")
	if c.OpenedCount != 1 {
		t.Errorf("openedCount = %d, want 1", c.OpenedCount)
	}

	// Malformed payloads are logged and dropped, never retried.
	if err := p.Handle([]byte("not json")); err != nil {
		t.Errorf("malformed payload should not error, got %v", err)
	}
}
