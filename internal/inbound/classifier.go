// internal/inbound/classifier.go
package inbound

import (
	"encoding/json"
	"fmt"

	"github.com/susanpikesquare/keepswell-sub001/internal/model"
)

// The gateway delivers webhooks in two incompatible JSON shapes: the
// legacy flat single-message form and the structured event envelope.
// ParseWebhook sniffs the shape and normalizes both into the canonical
// InboundMessage; nothing downstream ever sees the original payload.

// legacyPayload is the flat single-message shape.
type legacyPayload struct {
	From      string   `json:"from"`
	Body      string   `json:"body"`
	MediaURLs []string `json:"media_urls"`
}

// eventEnvelope is the structured shape.
type eventEnvelope struct {
	EventType string `json:"event_type"`
	Data      struct {
		Sender      string `json:"sender"`
		Content     string `json:"content"`
		Attachments []struct {
			URL         string `json:"url"`
			ContentType string `json:"content_type"`
		} `json:"attachments"`
	} `json:"data"`
}

// ParseWebhook normalizes a raw webhook body. An unrecognized shape is
// an error; the caller logs and drops it without a reply.
func ParseWebhook(body []byte) (*model.InboundMessage, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}

	if _, ok := probe["data"]; ok {
		var env eventEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("malformed event envelope: %w", err)
		}
		if env.EventType != "message.received" {
			return nil, fmt.Errorf("unhandled event type %q", env.EventType)
		}
		if env.Data.Sender == "" {
			return nil, fmt.Errorf("event envelope missing sender")
		}
		msg := &model.InboundMessage{
			From: NormalizePhone(env.Data.Sender),
			Text: env.Data.Content,
		}
		for _, a := range env.Data.Attachments {
			msg.Media = append(msg.Media, model.Media{URL: a.URL, ContentType: a.ContentType})
		}
		return msg, nil
	}

	if _, ok := probe["from"]; ok {
		var legacy legacyPayload
		if err := json.Unmarshal(body, &legacy); err != nil {
			return nil, fmt.Errorf("malformed legacy payload: %w", err)
		}
		if legacy.From == "" {
			return nil, fmt.Errorf("legacy payload missing sender")
		}
		msg := &model.InboundMessage{
			From: NormalizePhone(legacy.From),
			Text: legacy.Body,
		}
		for _, u := range legacy.MediaURLs {
			msg.Media = append(msg.Media, model.Media{URL: u})
		}
		return msg, nil
	}

	return nil, fmt.Errorf("unrecognized webhook shape")
}
