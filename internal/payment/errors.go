package payment

import "errors"

var (
	ErrValidation       = errors.New("email and amount are required")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)
