// internal/controller/webhook_controller.go
package controller

import (
	"io"
	"log"
	"net/http"

	"github.com/susanpikesquare/keepswell-sub001/internal/inbound"
)

type WebhookController struct {
	Engine *inbound.Engine
}

// HandleSMS receives provider webhooks. It always answers 200 with
// "OK": the provider retries non-2xx responses, which would cause
// duplicate processing. Every internal failure is logged instead.
func (c *WebhookController) HandleSMS(w http.ResponseWriter, r *http.Request) {
	defer func() {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Println("⚠️ failed to read webhook body:", err)
		return
	}

	msg, err := inbound.ParseWebhook(body)
	if err != nil {
		// Unrecognized shape: log and drop, no reply.
		log.Println("⚠️ dropping webhook:", err)
		return
	}

	c.Engine.HandleInbound(r.Context(), msg)
}
