package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/shashiranjanraj/storefront/pkg/errs"
)

// StripeGateway adapts the Stripe PaymentIntents API.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway builds a client bound to secretKey. webhookSecret may be
// empty when the webhook endpoint is not used.
func NewStripeGateway(secretKey, webhookSecret string) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("%w: stripe secret key is empty", ErrNotConfigured)
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, webhookSecret: webhookSecret}, nil
}

func (g *StripeGateway) CreateIntent(ctx context.Context, p CreateParams) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(p.Amount),
		Currency:           stripe.String(p.Currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, gatewayErr("create intent", err)
	}
	return fromStripe(pi), nil
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.HTTPStatusCode == 404 {
			return nil, errs.NotFound("Payment intent %s not found", id)
		}
		return nil, gatewayErr("retrieve intent", err)
	}
	return fromStripe(pi), nil
}

func (g *StripeGateway) ParseEvent(payload []byte, signature string) (*Event, error) {
	if g.webhookSecret == "" {
		return nil, errs.Internal(fmt.Errorf("%w: stripe webhook secret is empty", ErrNotConfigured))
	}

	evt, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	if evt.Data != nil && len(evt.Data.Raw) > 0 && isIntentEvent(out.Type) {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("payment: decode %s: %w", out.Type, err)
		}
		out.Intent = fromStripe(&pi)
	}
	return out, nil
}

func isIntentEvent(t string) bool {
	const prefix = "payment_intent."
	return len(t) > len(prefix) && t[:len(prefix)] == prefix
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
	}
}

// gatewayErr surfaces the provider's own message to the caller.
func gatewayErr(op string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		return errs.External(se.Msg, fmt.Errorf("payment: %s: %w", op, err))
	}
	return errs.External("Payment provider unavailable", fmt.Errorf("payment: %s: %w", op, err))
}
