package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

// WebhookEvent is the part of a gateway notification the service acts on.
// Amount is in the currency's minor unit.
type WebhookEvent struct {
	EventType     string `json:"event_type"`
	Reference     string `json:"reference"`
	Amount        int64  `json:"amount"`
	CustomerEmail string `json:"customer_email"`
	Status        string `json:"status"`
	Currency      string `json:"currency,omitempty"`
	Channel       string `json:"channel,omitempty"`
}

// TransactionRecord is what the service remembers about a successful charge.
// Reference is unique; a later write for the same reference replaces it.
type TransactionRecord struct {
	Reference     string          `json:"reference"`
	Amount        decimal.Decimal `json:"amount"`
	CustomerEmail string          `json:"customer_email"`
	Status        string          `json:"status"`
	Currency      string          `json:"currency,omitempty"`
	Channel       string          `json:"channel,omitempty"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// ToMajor converts a minor-unit amount (kobo, pesewas, cents) to major units.
func ToMajor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// ToMinor converts a major-unit amount to minor units, rounding half away from zero.
// The result is only meaningful when FitsMinor(major) holds.
func ToMinor(major decimal.Decimal) int64 {
	return major.Shift(2).Round(0).IntPart()
}

// FitsMinor reports whether major, once converted to minor units, fits in an int64.
func FitsMinor(major decimal.Decimal) bool {
	return major.Shift(2).Round(0).LessThanOrEqual(maxMinor)
}

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// RecordFromEvent builds the record a successful charge event leaves behind.
func RecordFromEvent(ev WebhookEvent, at time.Time) TransactionRecord {
	return TransactionRecord{
		Reference:     ev.Reference,
		Amount:        ToMajor(ev.Amount),
		CustomerEmail: ev.CustomerEmail,
		Status:        ev.Status,
		Currency:      ev.Currency,
		Channel:       ev.Channel,
		RecordedAt:    at,
	}
}
