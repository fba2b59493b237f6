package inbound_test

import (
	"time"

	appErrors "github.com/susanpikesquare/keepswell-sub001/internal/errors"
	"github.com/susanpikesquare/keepswell-sub001/internal/gateway"
	"github.com/susanpikesquare/keepswell-sub001/internal/model"
)

// MemParticipantRepo keeps memberships in memory
type MemParticipantRepo struct {
	participants []*model.Participant
	nextID       int
}

func (m *MemParticipantRepo) GetByID(id int) (*model.Participant, error) {
	for _, p := range m.participants {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (m *MemParticipantRepo) ListEligible(journalID int) ([]*model.Participant, error) {
	out := []*model.Participant{}
	for _, p := range m.participants {
		if p.JournalID == journalID && p.Status == model.ParticipantActive && p.OptedIn {
			out = append(out, p)
		}
	}
	return out, nil
}

func matchesPhone(p *model.Participant, variants []string) bool {
	for _, v := range variants {
		if p.PhoneNumber == v {
			return true
		}
	}
	return false
}

func (m *MemParticipantRepo) ListByPhone(variants []string) ([]*model.Participant, error) {
	out := []*model.Participant{}
	for _, p := range m.participants {
		if p.Status != model.ParticipantRemoved && matchesPhone(p, variants) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemParticipantRepo) ListActiveByPhone(variants []string) ([]*model.Participant, error) {
	out := []*model.Participant{}
	for _, p := range m.participants {
		if p.Status == model.ParticipantActive && matchesPhone(p, variants) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemParticipantRepo) GetByPhoneAndJournal(variants []string, journalID int) (*model.Participant, error) {
	for _, p := range m.participants {
		if p.JournalID == journalID && matchesPhone(p, variants) {
			return p, nil
		}
	}
	return nil, nil
}

func (m *MemParticipantRepo) Create(p *model.Participant) error {
	m.nextID++
	p.ID = 1000 + m.nextID
	m.participants = append(m.participants, p)
	return nil
}

func (m *MemParticipantRepo) UpdateStatus(id int, status string, optedIn bool) error {
	for _, p := range m.participants {
		if p.ID == id {
			p.Status = status
			p.OptedIn = optedIn
		}
	}
	return nil
}

// MemJournalRepo serves a fixed journal set
type MemJournalRepo struct {
	journals []*model.Journal
	keywords map[string]int // join keyword -> journal ID
}

func (m *MemJournalRepo) ListActive() ([]*model.Journal, error) { return m.journals, nil }

func (m *MemJournalRepo) GetByID(id int) (*model.Journal, error) {
	for _, j := range m.journals {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, appErrors.NewJournalNotFound(id)
}

func (m *MemJournalRepo) GetByJoinKeyword(keyword string) (*model.Journal, error) {
	id, ok := m.keywords[keyword]
	if !ok {
		return nil, nil
	}
	return m.GetByID(id)
}

// MemDeliveryRepo records deliveries and serves recency lookups
type MemDeliveryRepo struct {
	records []*model.DeliveryRecord
}

func (m *MemDeliveryRepo) Create(d *model.DeliveryRecord) error {
	m.records = append(m.records, d)
	return nil
}

func (m *MemDeliveryRepo) GetByID(id string) (*model.DeliveryRecord, error) {
	for _, d := range m.records {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, nil
}

func (m *MemDeliveryRepo) MarkSent(id string, at time.Time, externalMessageID string) error {
	for _, d := range m.records {
		if d.ID == id {
			d.Status = model.DeliverySent
			d.SentAt = &at
			d.ExternalMessageID = externalMessageID
		}
	}
	return nil
}

func (m *MemDeliveryRepo) MarkFailed(id, errorMessage string) error {
	for _, d := range m.records {
		if d.ID == id {
			d.Status = model.DeliveryFailed
			d.ErrorMessage = errorMessage
		}
	}
	return nil
}

func (m *MemDeliveryRepo) LatestSentForParticipants(participantIDs []int, since time.Time) (*model.DeliveryRecord, error) {
	var latest *model.DeliveryRecord
	for _, d := range m.records {
		if d.Status != model.DeliverySent || d.SentAt == nil || d.SentAt.Before(since) {
			continue
		}
		for _, id := range participantIDs {
			if d.ParticipantID == id {
				if latest == nil || d.SentAt.After(*latest.SentAt) {
					latest = d
				}
			}
		}
	}
	return latest, nil
}

func (m *MemDeliveryRepo) ListByFiring(firingID string) ([]*model.DeliveryRecord, error) {
	out := []*model.DeliveryRecord{}
	for _, d := range m.records {
		if d.ScheduledFiringID == firingID {
			out = append(out, d)
		}
	}
	return out, nil
}

// MemUsageRepo records ledger mutations
type MemUsageRepo struct {
	entries   []*model.UsageLogEntry
	responded []respondedCall
}

type respondedCall struct {
	participantID int
	entryID       string
}

func (m *MemUsageRepo) Append(entry *model.UsageLogEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MemUsageRepo) RecentPromptIDs(journalID, participantID int, since time.Time) ([]int, error) {
	return nil, nil
}

func (m *MemUsageRepo) RecentCategories(journalID, limit int) ([]string, error) { return nil, nil }

func (m *MemUsageRepo) CountResponses(participantID int) (int, error) { return 0, nil }

func (m *MemUsageRepo) MarkResponded(participantID int, entryID string, at time.Time) error {
	m.responded = append(m.responded, respondedCall{participantID, entryID})
	return nil
}

func (m *MemUsageRepo) JournalStats(journalID int) (map[string]int, error) {
	return map[string]int{}, nil
}

// MemEntries records created entries
type MemEntries struct {
	entries []*model.JournalEntry
}

func (m *MemEntries) Create(e *model.JournalEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

// FakeGateway records every outbound send
type FakeGateway struct {
	sends []sentMessage
	fail  bool
}

type sentMessage struct {
	to   string
	body string
}

func (g *FakeGateway) Send(to, body string) (*gateway.SendResult, error) {
	g.sends = append(g.sends, sentMessage{to, body})
	if g.fail {
		return &gateway.SendResult{Success: false, Error: "simulated failure"}, nil
	}
	return &gateway.SendResult{Success: true, ExternalMessageID: "ext-1"}, nil
}
