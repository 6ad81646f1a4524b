package service

import "errors"

var (
	ErrValidation          = errors.New("invalid request")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrInvalidNotification = errors.New("notification verification failed")
	ErrInvalidState        = errors.New("invalid session state")
	ErrNoPaymentMethod     = errors.New("no saved payment method")
	ErrUpstreamUnavailable = errors.New("payment provider unavailable")
)
