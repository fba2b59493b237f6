package queue

import (
	"fmt"
	"log"
	"time"

	"github.com/susanpikesquare/keepswell-sub001/internal/gateway"
	"github.com/susanpikesquare/keepswell-sub001/internal/model"
	"github.com/susanpikesquare/keepswell-sub001/internal/repository"
)

// StartDeliverySubscriber wires the send side of the delivery pipeline:
// it consumes delivery-record IDs, performs the provider send and owns
// the record's terminal status.
func StartDeliverySubscriber(
	q Queue,
	deliveries repository.DeliveryRepositoryInterface,
	participants repository.ParticipantRepositoryInterface,
	firings repository.FiringRepositoryInterface,
	prompts repository.PromptRepositoryInterface,
	gw gateway.MessageGateway,
) {
	err := q.Subscribe(TopicDeliveries, func(payload string) error {
		return ProcessDelivery(payload, deliveries, participants, firings, prompts, gw)
	})
	if err != nil {
		log.Println("⚠️ failed to start subscriber for", TopicDeliveries, ":", err)
	}
}

// ProcessDelivery sends one pending delivery record. Missing or already
// terminal records are skipped without error so redelivered jobs stay
// harmless.
func ProcessDelivery(
	deliveryID string,
	deliveries repository.DeliveryRepositoryInterface,
	participants repository.ParticipantRepositoryInterface,
	firings repository.FiringRepositoryInterface,
	prompts repository.PromptRepositoryInterface,
	gw gateway.MessageGateway,
) error {
	record, err := deliveries.GetByID(deliveryID)
	if err != nil {
		log.Println("⚠️ failed to fetch delivery record:", err)
		return err
	}
	if record == nil {
		log.Println("⚠️ delivery record not found:", deliveryID)
		return nil // no retry
	}
	if record.Status != model.DeliveryPending {
		return nil // already terminal
	}

	participant, err := participants.GetByID(record.ParticipantID)
	if err != nil {
		return err
	}
	firing, err := firings.GetByID(record.ScheduledFiringID)
	if err != nil {
		return err
	}
	if participant == nil || firing == nil {
		log.Println("⚠️ delivery", deliveryID, "references missing participant or firing")
		return deliveries.MarkFailed(deliveryID, "missing participant or firing")
	}

	prompt, err := prompts.GetByID(firing.PromptID)
	if err != nil {
		return err
	}
	if prompt == nil {
		return deliveries.MarkFailed(deliveryID, fmt.Sprintf("prompt %d not found", firing.PromptID))
	}

	result, err := gw.Send(participant.PhoneNumber, prompt.Text)
	if err != nil {
		log.Println("⚠️ gateway error for delivery", deliveryID, ":", err)
		return deliveries.MarkFailed(deliveryID, err.Error())
	}
	if !result.Success {
		log.Println("⚠️ send failed for delivery", deliveryID, ":", result.Error)
		return deliveries.MarkFailed(deliveryID, result.Error)
	}

	if err := deliveries.MarkSent(deliveryID, time.Now(), result.ExternalMessageID); err != nil {
		log.Println("⚠️ failed to update delivery status:", err)
		return err
	}
	log.Println("✅ delivery sent:", deliveryID)
	return nil
}
