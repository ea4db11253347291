// Package payment talks to the card payment provider. Services depend on the
// Gateway interface; the Stripe adapter is the production implementation.
package payment

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/storefront/pkg/errs"
)

// Intent statuses and event types used by the checkout flow.
const (
	StatusSucceeded = "succeeded"

	EventIntentSucceeded = "payment_intent.succeeded"
)

// ErrInvalidSignature is returned by ParseEvent when the payload was not
// signed with the configured webhook secret.
var ErrInvalidSignature = errors.New("payment: invalid webhook signature")

// ErrNotConfigured means the adapter lacks a credential the call needs. It
// is a server fault, never the caller's.
var ErrNotConfigured = errors.New("payment: gateway not configured")

// Intent is the provider's record of one attempted payment.
type Intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret,omitempty"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata"`
}

// Succeeded reports whether the provider settled the payment.
func (i *Intent) Succeeded() bool { return i.Status == StatusSucceeded }

// CreateParams describes a new intent. Amount is in minor currency units.
type CreateParams struct {
	Amount         int64
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

// Event is a verified webhook notification.
type Event struct {
	ID   string
	Type string
	// Intent is set for payment_intent.* events.
	Intent *Intent
}

// Gateway is the provider-agnostic interface every payment adapter must implement.
type Gateway interface {
	// CreateIntent asks the provider to open a payment for the client to confirm.
	CreateIntent(ctx context.Context, p CreateParams) (*Intent, error)
	// RetrieveIntent reads the current state of an intent.
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
	// ParseEvent verifies a webhook signature and decodes the event.
	ParseEvent(payload []byte, signature string) (*Event, error)
}

// Unavailable is the Gateway used when no provider key is configured. Checkout
// and verify answer 502; webhooks fail as a server fault so they are logged.
type Unavailable struct{}

func (Unavailable) CreateIntent(context.Context, CreateParams) (*Intent, error) {
	return nil, errs.External("Payments are not available", ErrNotConfigured)
}

func (Unavailable) RetrieveIntent(context.Context, string) (*Intent, error) {
	return nil, errs.External("Payments are not available", ErrNotConfigured)
}

func (Unavailable) ParseEvent([]byte, string) (*Event, error) {
	return nil, errs.Internal(ErrNotConfigured)
}
