// internal/gateway/gateway.go
package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// SendResult reports one provider send attempt.
type SendResult struct {
	Success           bool   `json:"success"`
	ExternalMessageID string `json:"external_message_id,omitempty"`
	Error             string `json:"error,omitempty"`
}

// MessageGateway is the consumed messaging interface: prompt delivery,
// disambiguation prompts and every confirmation/help reply go through
// it.
type MessageGateway interface {
	Send(to, body string) (*SendResult, error)
}

// ====================== HTTP provider gateway ======================

// HTTPGateway posts messages to an SMS provider's HTTP API.
type HTTPGateway struct {
	URL    string
	Token  string
	Client *http.Client
}

func NewHTTPGateway(url, token string) *HTTPGateway {
	return &HTTPGateway{
		URL:    url,
		Token:  token,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type providerRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type providerResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

func (g *HTTPGateway) Send(to, body string) (*SendResult, error) {
	payload, err := json.Marshal(providerRequest{To: to, Body: body})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, g.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.Token)

	resp, err := g.Client.Do(req)
	if err != nil {
		return &SendResult{Success: false, Error: err.Error()}, nil
	}
	defer resp.Body.Close()

	var pr providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return &SendResult{Success: false, Error: "bad provider response: " + err.Error()}, nil
	}

	if resp.StatusCode >= 300 || pr.Error != "" {
		msg := pr.Error
		if msg == "" {
			msg = fmt.Sprintf("provider returned %d", resp.StatusCode)
		}
		return &SendResult{Success: false, Error: msg}, nil
	}

	return &SendResult{Success: true, ExternalMessageID: pr.MessageID}, nil
}

var _ MessageGateway = (*HTTPGateway)(nil)

// ====================== Log gateway ======================

// LogGateway is the dev stand-in: it logs instead of sending.
type LogGateway struct{}

func (g *LogGateway) Send(to, body string) (*SendResult, error) {
	log.Printf("📩 [dev gateway] to=%s body=%q\n", to, body)
	return &SendResult{Success: true, ExternalMessageID: "dev"}, nil
}

var _ MessageGateway = (*LogGateway)(nil)
