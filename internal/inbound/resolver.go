// internal/inbound/resolver.go
package inbound

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/susanpikesquare/keepswell-sub001/internal/gateway"
	"github.com/susanpikesquare/keepswell-sub001/internal/model"
	"github.com/susanpikesquare/keepswell-sub001/internal/pending"
	"github.com/susanpikesquare/keepswell-sub001/internal/repository"
)

// recentDeliveryWindow is how far back a sent delivery counts as "the
// prompt this reply answers" when a phone number has several active
// memberships.
const recentDeliveryWindow = 24 * time.Hour

// Resolver maps a phone number to the one membership an ordinary
// message belongs to: direct match, recent-context inference, or the
// disambiguation protocol.
type Resolver struct {
	Participants repository.ParticipantRepositoryInterface
	Deliveries   repository.DeliveryRepositoryInterface
	Journals     repository.JournalRepositoryInterface
	Pending      pending.Store
	Gateway      gateway.MessageGateway
	Now          func() time.Time
}

// Resolve returns the owning participant, or nil when the message was
// dropped (no membership) or parked behind a disambiguation prompt.
func (r *Resolver) Resolve(ctx context.Context, msg *model.InboundMessage) (*model.Participant, error) {
	now := r.now()
	variants := PhoneVariants(msg.From)

	candidates, err := r.Participants.ListActiveByPhone(variants)
	if err != nil {
		return nil, err
	}

	switch len(candidates) {
	case 0:
		// No reply: don't leak whether a number has memberships.
		log.Println("⚠️ inbound from unknown number, dropping:", msg.From)
		return nil, nil
	case 1:
		return candidates[0], nil
	}

	// Several memberships: assume the reply answers the most recently
	// received prompt, if any went out in the last day.
	ids := make([]int, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	recent, err := r.Deliveries.LatestSentForParticipants(ids, now.Add(-recentDeliveryWindow))
	if err != nil {
		return nil, err
	}
	if recent != nil {
		for _, c := range candidates {
			if c.ID == recent.ParticipantID {
				return c, nil
			}
		}
	}

	// No recent context: park the message and ask.
	if err := r.askForSelection(ctx, msg, candidates, now); err != nil {
		return nil, err
	}
	return nil, nil
}

// maxSelectionOptions caps the numbered list so every option stays
// reachable by a single-digit reply.
const maxSelectionOptions = 9

// askForSelection stores a PendingSelection (superseding any live one
// for the number) and texts back the numbered journal list.
func (r *Resolver) askForSelection(ctx context.Context, msg *model.InboundMessage, candidates []*model.Participant, now time.Time) error {
	if len(candidates) > maxSelectionOptions {
		candidates = candidates[:maxSelectionOptions]
	}
	labels, err := r.labels(candidates)
	if err != nil {
		return err
	}

	sel := &model.PendingSelection{
		ID:          uuid.NewString(),
		PhoneNumber: msg.From,
		Content:     msg.Text,
		CreatedAt:   now,
		ExpiresAt:   now.Add(pending.TTL),
	}
	for _, m := range msg.Media {
		sel.MediaURLs = append(sel.MediaURLs, m.URL)
	}
	for _, c := range candidates {
		sel.CandidateJournalIDs = append(sel.CandidateJournalIDs, c.JournalID)
		sel.CandidateParticipants = append(sel.CandidateParticipants, c.ID)
	}

	if err := r.Pending.Put(ctx, sel); err != nil {
		return err
	}

	if result, err := r.Gateway.Send(msg.From, selectionPrompt(labels)); err != nil {
		return err
	} else if !result.Success {
		log.Println("⚠️ failed to send disambiguation prompt:", result.Error)
	}
	return nil
}

// labels builds the option list, falling back to the relationship label
// to tell colliding journal titles apart.
func (r *Resolver) labels(candidates []*model.Participant) ([]string, error) {
	titles := make([]string, len(candidates))
	counts := map[string]int{}
	for i, c := range candidates {
		journal, err := r.Journals.GetByID(c.JournalID)
		if err != nil {
			return nil, err
		}
		titles[i] = journal.Title
		counts[journal.Title]++
	}

	labels := make([]string, len(candidates))
	for i, title := range titles {
		if counts[title] > 1 && candidates[i].Relationship != "" {
			labels[i] = title + " (" + candidates[i].Relationship + ")"
		} else {
			labels[i] = title
		}
	}
	return labels, nil
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
