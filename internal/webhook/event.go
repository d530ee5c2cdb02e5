package webhook

import (
	"fmt"

	"github.com/goccy/go-json"

	"paystack-checkout/internal/models"
)

type envelope struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Status    string `json:"status"`
		Currency  string `json:"currency"`
		Channel   string `json:"channel"`
		Customer  struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

// ParseEvent decodes a gateway notification body into a WebhookEvent.
func ParseEvent(payload []byte) (models.WebhookEvent, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return models.WebhookEvent{}, fmt.Errorf("failed to decode webhook payload: %w", err)
	}
	if env.Event == "" {
		return models.WebhookEvent{}, fmt.Errorf("webhook payload has no event type")
	}

	return models.WebhookEvent{
		EventType:     env.Event,
		Reference:     env.Data.Reference,
		Amount:        env.Data.Amount,
		CustomerEmail: env.Data.Customer.Email,
		Status:        env.Data.Status,
		Currency:      env.Data.Currency,
		Channel:       env.Data.Channel,
	}, nil
}

// EncodeEvent renders ev in the gateway's notification shape.
func EncodeEvent(ev models.WebhookEvent) ([]byte, error) {
	var env envelope
	env.Event = ev.EventType
	env.Data.Reference = ev.Reference
	env.Data.Amount = ev.Amount
	env.Data.Status = ev.Status
	env.Data.Currency = ev.Currency
	env.Data.Channel = ev.Channel
	env.Data.Customer.Email = ev.CustomerEmail
	return json.Marshal(env)
}
