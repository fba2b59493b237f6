// internal/dispatch/dispatcher.go
package dispatch

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/susanpikesquare/keepswell-sub001/internal/model"
	"github.com/susanpikesquare/keepswell-sub001/internal/queue"
	"github.com/susanpikesquare/keepswell-sub001/internal/repository"
	"github.com/susanpikesquare/keepswell-sub001/internal/selector"
)

// Dispatcher fans one due journal out: pick a prompt, record the
// firing, create one delivery record per eligible participant and queue
// the sends.
type Dispatcher struct {
	Selector     *selector.Selector
	Participants repository.ParticipantRepositoryInterface
	Prompts      repository.PromptRepositoryInterface
	Firings      repository.FiringRepositoryInterface
	Deliveries   repository.DeliveryRepositoryInterface
	Usage        repository.UsageLogRepositoryInterface
	Queue        queue.Queue
	Now          func() time.Time
}

// Dispatch performs one firing for the journal. Selection failures
// abort this journal only; per-participant failures are logged and do
// not stop the rest of the batch.
func (d *Dispatcher) Dispatch(journal *model.Journal) (*model.ScheduledFiring, error) {
	now := d.now()

	participants, err := d.Participants.ListEligible(journal.ID)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		log.Println("⚠️ journal", journal.ID, "has no eligible participants, skipping firing")
		return nil, nil
	}

	selection, err := d.Selector.SelectNext(journal, nil, selector.Options{})
	if err != nil {
		return nil, err
	}
	log.Printf("📩 journal %d selected prompt %d (%s)\n", journal.ID, selection.Prompt.ID, selection.Reason)

	firing := &model.ScheduledFiring{
		ID:        uuid.NewString(),
		JournalID: journal.ID,
		PromptID:  selection.Prompt.ID,
		FiredAt:   now,
		Status:    "dispatching",
	}
	if err := d.Firings.Create(firing); err != nil {
		return nil, err
	}

	for _, p := range participants {
		record := &model.DeliveryRecord{
			ID:                uuid.NewString(),
			ScheduledFiringID: firing.ID,
			ParticipantID:     p.ID,
			Status:            model.DeliveryPending,
		}
		if err := d.Deliveries.Create(record); err != nil {
			log.Println("⚠️ failed to create delivery record for participant", p.ID, ":", err)
			continue
		}

		entry := &model.UsageLogEntry{
			JournalID:     journal.ID,
			PromptID:      selection.Prompt.ID,
			ParticipantID: p.ID,
			Category:      selection.Prompt.Category,
			SentAt:        now,
		}
		if err := d.Usage.Append(entry); err != nil {
			log.Println("⚠️ failed to append usage log for participant", p.ID, ":", err)
		}

		if err := d.Queue.Publish(queue.TopicDeliveries, record.ID); err != nil {
			log.Println("⚠️ failed to enqueue delivery", record.ID, ":", err)
			if err := d.Deliveries.MarkFailed(record.ID, "enqueue failed: "+err.Error()); err != nil {
				log.Println("⚠️ failed to mark delivery failed:", err)
			}
		}
	}

	if err := d.Prompts.IncrementUsage(selection.Prompt.ID); err != nil {
		log.Println("⚠️ failed to increment prompt usage:", err)
	}

	// The firing is terminal once the batch is queued; individual send
	// failures land on their delivery records.
	firing.Status = model.DeliverySent
	if err := d.Firings.UpdateStatus(firing.ID, firing.Status); err != nil {
		return firing, err
	}

	return firing, nil
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
