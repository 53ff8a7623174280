package service_test

import (
	"fmt"
	"sort"
	"sync"
	"time"

	appErrors "github.com/blackleoventure/email-campaign-backend/internal/errors"
	"github.com/blackleoventure/email-campaign-backend/internal/mailer"
	"github.com/blackleoventure/email-campaign-backend/internal/model"
)

// --- Mock repositories ---

// memCampaignRepo implements the campaign repository contract in memory:
// additive merges, set-guarded opens, always-incrementing reply counts.
type memCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[string]*model.Campaign
	replies   []*model.Reply
}

func newMemCampaignRepo(campaigns ...*model.Campaign) *memCampaignRepo {
	r := &memCampaignRepo{campaigns: map[string]*model.Campaign{}}
	for _, c := range campaigns {
		r.campaigns[c.ID] = c
	}
	return r
}

func (r *memCampaignRepo) GetByID(id string) (*model.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	copied := *c
	return &copied, nil
}

func (r *memCampaignRepo) ListRecent(limit int) ([]*model.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*model.Campaign, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SentAt.After(all[j].SentAt) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *memCampaignRepo) ListStats(limit, offset int) ([]*model.Campaign, int, error) {
	all, err := r.ListRecent(len(r.campaigns))
	if err != nil {
		return nil, 0, err
	}
	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *memCampaignRepo) MergeSendStats(id, sender, subject, messageID string, sentAt time.Time, recipients int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		c = &model.Campaign{ID: id}
		r.campaigns[id] = c
	}
	c.Sender = sender
	c.Subject = subject
	c.MessageID = messageID
	c.SentAt = sentAt
	c.SentCount += recipients
	c.UnreadCount += recipients
	return nil
}

func (r *memCampaignRepo) RecordOpen(id, recipient string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return false, nil
	}
	if model.NewStringSet(c.OpenedBy...).Has(recipient) {
		return false, nil
	}
	c.OpenedBy = append(c.OpenedBy, recipient)
	c.OpenedCount++
	if c.UnreadCount > 0 {
		c.UnreadCount--
	}
	return true, nil
}

func (r *memCampaignRepo) AddReply(id string, reply *model.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	r.replies = append(r.replies, reply)
	c.RepliedCount++
	if !model.NewStringSet(c.RepliedBy...).Has(reply.From) {
		c.RepliedBy = append(c.RepliedBy, reply.From)
	}
	return nil
}

func (r *memCampaignRepo) RecordBounce(id string, recipients []string) (bool, error) {
	return r.recordEvent(id, recipients, true)
}

func (r *memCampaignRepo) RecordComplaint(id string, recipients []string) (bool, error) {
	return r.recordEvent(id, recipients, false)
}

func (r *memCampaignRepo) recordEvent(id string, recipients []string, bounce bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(recipients) == 0 {
		return false, nil
	}
	c, ok := r.campaigns[id]
	if !ok {
		return false, nil
	}
	if bounce {
		c.BouncedCount += len(recipients)
		c.BouncedRecipients = unionInto(c.BouncedRecipients, recipients)
	} else {
		c.SpamCount += len(recipients)
		c.SpamRecipients = unionInto(c.SpamRecipients, recipients)
	}
	return true, nil
}

func (r *memCampaignRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.campaigns, id)
	return nil
}

func unionInto(set, values []string) []string {
	existing := model.NewStringSet(set...)
	for _, v := range values {
		if !existing.Has(v) {
			set = append(set, v)
			existing.Add(v)
		}
	}
	return set
}

type memMappingRepo struct {
	mu   sync.Mutex
	rows []*model.MessageMapping
}

func (r *memMappingRepo) CreateBatch(mappings []*model.MessageMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, mappings...)
	return nil
}

func (r *memMappingRepo) FindByMessageID(messageID string) (*model.MessageMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rows {
		if m.MessageID == messageID {
			return m, nil
		}
	}
	return nil, nil
}

func (r *memMappingRepo) FindLatestByPair(recipient, sender string) (*model.MessageMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.MessageMapping
	for _, m := range r.rows {
		if m.Recipient != recipient || m.Sender != sender {
			continue
		}
		if latest == nil || m.SentAt.After(latest.SentAt) {
			latest = m
		}
	}
	return latest, nil
}

func (r *memMappingRepo) ListAll() ([]*model.MessageMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.MessageMapping{}, r.rows...), nil
}

type memOrphanRepo struct {
	mu      sync.Mutex
	created []*model.OrphanedReply
	failErr error
}

func (r *memOrphanRepo) Create(o *model.OrphanedReply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	r.created = append(r.created, o)
	return nil
}

type memInvestorRepo struct {
	lists map[string][]string
}

func (r *memInvestorRepo) EmailsByListIDs(listIDs []string) ([]string, error) {
	emails := []string{}
	for _, id := range listIDs {
		emails = append(emails, r.lists[id]...)
	}
	return emails, nil
}

type memDirectoryRepo struct {
	clients, investorLists, contacts int
	calls                            int
}

func (r *memDirectoryRepo) Counts() (int, int, int, error) {
	r.calls++
	return r.clients, r.investorLists, r.contacts, nil
}

// --- Mock mailer ---

type sentMail struct {
	to   []string
	html string
	bulk bool
}

type mockMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	failBulk bool
	nextID   int
}

func (m *mockMailer) Send(e mailer.Email) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.sent = append(m.sent, sentMail{to: []string{e.To}, html: e.HTMLBody})
	return fmt.Sprintf("msg-%d", m.nextID), nil
}

func (m *mockMailer) SendBulk(b mailer.BulkEmail) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failBulk {
		return "", fmt.Errorf("bulk send rejected")
	}
	m.nextID++
	m.sent = append(m.sent, sentMail{to: b.Recipients, html: b.HTMLBody, bulk: true})
	return fmt.Sprintf("msg-%d", m.nextID), nil
}

func (m *mockMailer) bulkCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if s.bulk {
			n++
		}
	}
	return n
}

func (m *mockMailer) individualCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if !s.bulk {
			n++
		}
	}
	return n
}
