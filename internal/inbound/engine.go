// internal/inbound/engine.go
package inbound

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/susanpikesquare/keepswell-sub001/internal/config"
	"github.com/susanpikesquare/keepswell-sub001/internal/gateway"
	"github.com/susanpikesquare/keepswell-sub001/internal/model"
	"github.com/susanpikesquare/keepswell-sub001/internal/pending"
	"github.com/susanpikesquare/keepswell-sub001/internal/repository"
)

// EntryCreator is the entry-creation collaborator a resolved message is
// handed to.
type EntryCreator interface {
	Create(e *model.JournalEntry) error
}

// Engine runs the inbound pipeline. Handlers are tried in strict
// priority order — help, opt-in/out, join, selection digit, ordinary
// message — and the first match wins.
type Engine struct {
	Vocabulary   config.Vocabulary
	Participants repository.ParticipantRepositoryInterface
	Journals     repository.JournalRepositoryInterface
	Usage        repository.UsageLogRepositoryInterface
	Pending      pending.Store
	Entries      EntryCreator
	Gateway      gateway.MessageGateway
	Resolver     *Resolver
	Now          func() time.Time
}

// HandleInbound processes one canonical inbound message. It never
// returns an error: every failure is logged here, because webhook
// correctness failures are operational, not protocol-level.
func (e *Engine) HandleInbound(ctx context.Context, msg *model.InboundMessage) {
	text := strings.TrimSpace(msg.Text)

	switch {
	case e.Vocabulary.MatchHelp(text):
		e.reply(msg.From, helpReply)

	case e.Vocabulary.MatchOptIn(text):
		e.handleOptIn(msg)

	case e.Vocabulary.MatchOptOut(text):
		e.handleOptOut(msg)

	default:
		if keyword, ok := e.Vocabulary.MatchJoin(text); ok {
			e.handleJoin(msg, keyword)
			return
		}
		if idx, ok := selectionDigit(text); ok {
			if e.handleSelection(ctx, msg, idx) {
				return
			}
			// No pending record: fall through, it's an ordinary message.
		}
		e.handleOrdinary(ctx, msg)
	}
}

// selectionDigit matches a bare single digit 1-9.
func selectionDigit(text string) (int, bool) {
	if len(text) != 1 || text[0] < '1' || text[0] > '9' {
		return 0, false
	}
	return int(text[0] - '0'), true
}

// ====================== Keyword handlers ======================

func (e *Engine) handleOptIn(msg *model.InboundMessage) {
	memberships, err := e.Participants.ListByPhone(PhoneVariants(msg.From))
	if err != nil {
		log.Println("⚠️ opt-in lookup failed:", err)
		return
	}

	for _, m := range memberships {
		if m.Status != model.ParticipantPending {
			continue
		}
		if err := e.Participants.UpdateStatus(m.ID, model.ParticipantActive, true); err != nil {
			log.Println("⚠️ failed to activate membership", m.ID, ":", err)
			continue
		}
		journal, err := e.Journals.GetByID(m.JournalID)
		if err != nil {
			log.Println("⚠️ failed to load journal", m.JournalID, ":", err)
			continue
		}
		e.reply(msg.From, welcomeReply(journal.Title))
	}
}

func (e *Engine) handleOptOut(msg *model.InboundMessage) {
	memberships, err := e.Participants.ListByPhone(PhoneVariants(msg.From))
	if err != nil {
		log.Println("⚠️ opt-out lookup failed:", err)
		return
	}

	for _, m := range memberships {
		if m.Status != model.ParticipantActive && m.Status != model.ParticipantPending {
			continue
		}
		if err := e.Participants.UpdateStatus(m.ID, model.ParticipantPaused, false); err != nil {
			log.Println("⚠️ failed to pause membership", m.ID, ":", err)
		}
	}

	// One combined confirmation, no matter how many journals paused.
	e.reply(msg.From, optOutReply)
}

func (e *Engine) handleJoin(msg *model.InboundMessage, keyword string) {
	journal, err := e.Journals.GetByJoinKeyword(keyword)
	if err != nil {
		log.Println("⚠️ join keyword lookup failed:", err)
		return
	}
	if journal == nil {
		e.reply(msg.From, joinUnknownReply(keyword))
		return
	}

	variants := PhoneVariants(msg.From)
	existing, err := e.Participants.GetByPhoneAndJournal(variants, journal.ID)
	if err != nil {
		log.Println("⚠️ membership lookup failed:", err)
		return
	}

	if existing != nil {
		switch existing.Status {
		case model.ParticipantActive:
			e.reply(msg.From, joinActiveReply(journal.Title))
		case model.ParticipantPending:
			e.reply(msg.From, joinPendingReply(journal.Title))
		default:
			// Paused or removed: start the approval flow over.
			if err := e.Participants.UpdateStatus(existing.ID, model.ParticipantPending, false); err != nil {
				log.Println("⚠️ failed to reset membership", existing.ID, ":", err)
				return
			}
			e.reply(msg.From, joinRequestedReply(journal.Title))
			e.notifyOwner(journal, existing.Name, msg.From)
		}
		return
	}

	// The one path where the engine creates a membership.
	participant := &model.Participant{
		JournalID:   journal.ID,
		PhoneNumber: msg.From,
		Status:      model.ParticipantPending,
		OptedIn:     false,
	}
	if err := e.Participants.Create(participant); err != nil {
		log.Println("⚠️ failed to create membership:", err)
		return
	}
	e.reply(msg.From, joinRequestedReply(journal.Title))
	e.notifyOwner(journal, "", msg.From)
}

func (e *Engine) notifyOwner(journal *model.Journal, name, phone string) {
	if journal.OwnerPhone == "" {
		return
	}
	e.reply(journal.OwnerPhone, ownerApprovalNotice(name, phone, journal.Title))
}

// ====================== Disambiguation answer ======================

// handleSelection resolves a numeric disambiguation answer. Returns
// false when the number has no pending record, in which case the digit
// is treated as an ordinary message.
func (e *Engine) handleSelection(ctx context.Context, msg *model.InboundMessage, idx int) bool {
	sel, err := e.Pending.Get(ctx, msg.From)
	if err != nil {
		log.Println("⚠️ pending selection lookup failed:", err)
		return true // don't misfile the digit as journal content
	}
	if sel == nil {
		return false
	}

	now := e.now()
	if sel.Expired(now) {
		if err := e.Pending.Delete(ctx, msg.From); err != nil {
			log.Println("⚠️ failed to delete expired selection:", err)
		}
		e.reply(msg.From, resendReply)
		return true
	}

	if idx > len(sel.CandidateParticipants) {
		e.reply(msg.From, selectionRangeReply(len(sel.CandidateParticipants)))
		return true
	}

	participantID := sel.CandidateParticipants[idx-1]
	journalID := sel.CandidateJournalIDs[idx-1]

	media := make([]model.Media, 0, len(sel.MediaURLs))
	for _, u := range sel.MediaURLs {
		media = append(media, model.Media{URL: u})
	}
	if !e.createEntry(participantID, journalID, sel.Content, media) {
		return true
	}

	if err := e.Pending.Delete(ctx, msg.From); err != nil {
		log.Println("⚠️ failed to delete pending selection:", err)
	}

	journal, err := e.Journals.GetByID(journalID)
	if err != nil {
		log.Println("⚠️ failed to load journal", journalID, ":", err)
		return true
	}
	e.reply(msg.From, selectionConfirmReply(journal.Title))
	return true
}

// ====================== Ordinary messages ======================

func (e *Engine) handleOrdinary(ctx context.Context, msg *model.InboundMessage) {
	if strings.TrimSpace(msg.Text) == "" && len(msg.Media) == 0 {
		log.Println("⚠️ empty inbound message, dropping")
		return
	}

	// A new message supersedes any live selection for this number; the
	// resolver recreates one if this message is ambiguous too.
	if err := e.Pending.Delete(ctx, msg.From); err != nil {
		log.Println("⚠️ failed to supersede pending selection:", err)
	}

	participant, err := e.Resolver.Resolve(ctx, msg)
	if err != nil {
		log.Println("⚠️ resolution failed for", msg.From, ":", err)
		return
	}
	if participant == nil {
		return // dropped or parked behind a disambiguation prompt
	}

	e.createEntry(participant.ID, participant.JournalID, msg.Text, msg.Media)
}

// createEntry persists the entry and closes the ledger loop by marking
// the participant's most recent unanswered prompt responded.
func (e *Engine) createEntry(participantID, journalID int, content string, media []model.Media) bool {
	entry := &model.JournalEntry{
		ID:            uuid.NewString(),
		JournalID:     journalID,
		ParticipantID: participantID,
		Content:       content,
	}
	for _, m := range media {
		entry.MediaURLs = append(entry.MediaURLs, m.URL)
	}

	if err := e.Entries.Create(entry); err != nil {
		log.Println("⚠️ failed to create entry for participant", participantID, ":", err)
		return false
	}
	if err := e.Usage.MarkResponded(participantID, entry.ID, e.now()); err != nil {
		log.Println("⚠️ failed to mark prompt responded:", err)
	}
	return true
}

func (e *Engine) reply(to, body string) {
	result, err := e.Gateway.Send(to, body)
	if err != nil {
		log.Println("⚠️ reply send error:", err)
		return
	}
	if !result.Success {
		log.Println("⚠️ reply send failed:", result.Error)
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
