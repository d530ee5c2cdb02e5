package models

import "github.com/shopspring/decimal"

// InitializeRequest is a checkout request as the browser sends it, amount in major units.
type InitializeRequest struct {
	Email       string          `json:"email"`
	Amount      decimal.Decimal `json:"amount"`
	CallbackURL string          `json:"callback_url,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Verification is the client-facing view of a verified transaction.
type Verification struct {
	Status          string          `json:"status"`
	Reference       string          `json:"reference"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	CustomerEmail   string          `json:"customer_email"`
	PaidAt          string          `json:"paid_at"`
	Channel         string          `json:"channel"`
	GatewayResponse string          `json:"gateway_response"`
}
