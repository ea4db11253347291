package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/collection"
	"github.com/shashiranjanraj/storefront/pkg/errs"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/payment"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

// EventPaymentSucceeded is fired on the bus once per settled payment.
const EventPaymentSucceeded = "payment.succeeded"

// PaymentSucceeded is the payload of EventPaymentSucceeded.
type PaymentSucceeded struct {
	IntentID string
	UserID   string
	Lines    []StockLine
}

// CheckoutRequest opens a payment. Amount is in minor currency units.
type CheckoutRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Items    []models.CartItem `json:"items" validate:"nullable,dive"`
}

type CheckoutResult struct {
	Success      bool   `json:"success"`
	ClientSecret string `json:"clientSecret"`
}

type VerifyResult struct {
	Success       bool            `json:"success"`
	PaymentIntent *payment.Intent `json:"paymentIntent"`
}

// WebhookResult tells the provider the event was accepted.
type WebhookResult struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
}

// PaymentService opens and verifies payments and turns settlement events
// into stock changes.
type PaymentService struct {
	gateway  payment.Gateway
	ledger   cache.Ledger
	bus      *event.Bus
	currency string
}

// NewPaymentService wires the orchestrator. currency is used when a
// checkout does not name one.
func NewPaymentService(gateway payment.Gateway, ledger cache.Ledger, bus *event.Bus, currency string) *PaymentService {
	return &PaymentService{gateway: gateway, ledger: ledger, bus: bus, currency: strings.ToLower(currency)}
}

// CreateIntent asks the gateway for a payment intent carrying the buyer
// and the purchased items.
func (s *PaymentService) CreateIntent(ctx context.Context, id auth.Identity, in CheckoutRequest) (*CheckoutResult, error) {
	if _, err := requireUser(id); err != nil {
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, errs.Validation("Amount must be greater than zero")
	}
	if fields := validate.Struct(in); validate.HasErrors(fields) {
		return nil, errs.Fields(fields)
	}

	lines := make([]payment.Line, 0, len(in.Items))
	for i, it := range in.Items {
		if _, err := parseID(fmt.Sprintf("items.%d.productId", i), it.ProductID); err != nil {
			return nil, err
		}
		lines = append(lines, payment.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	meta, err := payment.EncodeLines(lines)
	if err != nil {
		return nil, errs.Validation("Too many items for one payment")
	}
	meta["userId"] = id.UserID

	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.currency
	}

	intent, err := s.gateway.CreateIntent(ctx, payment.CreateParams{
		Amount:         in.Amount,
		Currency:       currency,
		Metadata:       meta,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		metrics.PaymentIntents.WithLabelValues("rejected").Inc()
		if errs.KindOf(err) == errs.KindInternal {
			err = errs.External("Payment provider error", err)
		}
		return nil, err
	}

	metrics.PaymentIntents.WithLabelValues("created").Inc()
	logger.WithCtx(ctx).Info("payment intent created", "intent_id", intent.ID, "amount", in.Amount, "currency", currency, "items", len(lines))
	return &CheckoutResult{Success: true, ClientSecret: intent.ClientSecret}, nil
}

// VerifyIntent reports whether the provider settled the intent. It changes
// nothing; stock moves only on the settlement webhook.
func (s *PaymentService) VerifyIntent(ctx context.Context, id auth.Identity, intentID string) (*VerifyResult, error) {
	if _, err := requireUser(id); err != nil {
		return nil, err
	}
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, errs.Fields(map[string]string{"paymentIntentId": "The paymentIntentId field is required."})
	}

	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		if errs.KindOf(err) == errs.KindInternal {
			err = errs.External("Payment provider error", err)
		}
		return nil, err
	}
	if owner := intent.Metadata["userId"]; owner != "" && owner != id.UserID && !id.IsAdmin() {
		return nil, errs.Forbidden("Payment belongs to another user")
	}
	if !intent.Succeeded() {
		return nil, errs.Conflict("Payment unsuccessful")
	}
	intent.ClientSecret = ""
	return &VerifyResult{Success: true, PaymentIntent: intent}, nil
}

// HandleWebhook verifies and applies one provider event. Each event id is
// handled at most once; a failure that a redelivery could fix releases the
// id so the provider's retry is processed.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	log := logger.WithCtx(ctx)

	evt, err := s.gateway.ParseEvent(body, signature)
	switch {
	case errors.Is(err, payment.ErrNotConfigured):
		return nil, fmt.Errorf("services: webhook: %w", err)
	case errors.Is(err, payment.ErrInvalidSignature):
		return nil, errs.Validation("Invalid webhook signature")
	case err != nil:
		return nil, errs.Validation("Malformed webhook payload")
	}

	fresh, err := s.ledger.MarkProcessed(ctx, evt.ID)
	if err != nil {
		return nil, fmt.Errorf("services: webhook ledger: %w", err)
	}
	if !fresh {
		metrics.WebhookEvents.WithLabelValues(evt.Type, "duplicate").Inc()
		log.Info("webhook event already processed", "event_id", evt.ID, "type", evt.Type)
		return &WebhookResult{Received: true, Duplicate: true}, nil
	}

	if evt.Type != payment.EventIntentSucceeded || evt.Intent == nil {
		metrics.WebhookEvents.WithLabelValues(evt.Type, "ignored").Inc()
		return &WebhookResult{Received: true}, nil
	}

	paid, err := settlement(evt.Intent)
	if err != nil {
		// Redelivery carries the same metadata; keep the id marked.
		metrics.WebhookEvents.WithLabelValues(evt.Type, "failed").Inc()
		log.Error("webhook metadata unreadable", "event_id", evt.ID, "intent_id", evt.Intent.ID, "error", err)
		return &WebhookResult{Received: true}, nil
	}

	if err := s.bus.Fire(ctx, EventPaymentSucceeded, paid); err != nil {
		metrics.WebhookEvents.WithLabelValues(evt.Type, "failed").Inc()
		if errs.KindOf(err) == errs.KindInternal {
			if ferr := s.ledger.Forget(ctx, evt.ID); ferr != nil {
				log.Error("webhook ledger release failed", "event_id", evt.ID, "error", ferr)
			}
			return nil, fmt.Errorf("services: fulfil %s: %w", evt.Intent.ID, err)
		}
		// Stock conflicts will not resolve on retry and earlier lines are
		// already applied.
		log.Error("payment fulfilment incomplete", "event_id", evt.ID, "intent_id", evt.Intent.ID, "error", err)
		return &WebhookResult{Received: true}, nil
	}

	metrics.WebhookEvents.WithLabelValues(evt.Type, "processed").Inc()
	log.Info("payment fulfilled", "event_id", evt.ID, "intent_id", evt.Intent.ID, "lines", len(paid.Lines))
	return &WebhookResult{Received: true}, nil
}

func settlement(in *payment.Intent) (PaymentSucceeded, error) {
	lines, err := payment.DecodeLines(in.Metadata)
	if err != nil {
		return PaymentSucceeded{}, err
	}
	return PaymentSucceeded{
		IntentID: in.ID,
		UserID:   in.Metadata["userId"],
		Lines: collection.Map(lines, func(l payment.Line) StockLine {
			return StockLine{ProductID: l.ProductID, Quantity: l.Quantity}
		}),
	}, nil
}

// ListenForPayments runs the Stock Updater for every settled payment. Each
// line is recorded in ledger under "<intent>:line:<n>" before it is applied,
// so a redelivered event skips the lines an earlier attempt already took
// out of stock. The first failure stops the remaining lines.
func ListenForPayments(bus *event.Bus, stock *StockService, ledger cache.Ledger) {
	bus.Listen(EventPaymentSucceeded, func(ctx context.Context, payload any) error {
		paid, ok := payload.(PaymentSucceeded)
		if !ok {
			return fmt.Errorf("services: unexpected %s payload %T", EventPaymentSucceeded, payload)
		}
		log := logger.WithCtx(ctx)

		for i, line := range paid.Lines {
			key := lineKey(paid.IntentID, i)
			fresh, err := ledger.MarkProcessed(ctx, key)
			if err != nil {
				return fmt.Errorf("services: stock ledger: %w", err)
			}
			if !fresh {
				log.Info("stock line already applied", "intent_id", paid.IntentID, "line", i)
				continue
			}

			p, err := stock.applyLine(ctx, i, line)
			if err != nil {
				// Only a failed store call left the line untouched and worth a retry.
				if errs.KindOf(err) == errs.KindInternal {
					if ferr := ledger.Forget(ctx, key); ferr != nil {
						log.Error("stock ledger release failed", "intent_id", paid.IntentID, "line", i, "error", ferr)
					}
				}
				return err
			}
			log.Info("stock decremented", "intent_id", paid.IntentID, "product_id", line.ProductID, "by", line.Quantity, "left", p.Quantity)
		}
		return nil
	})
}

func lineKey(intentID string, i int) string {
	return fmt.Sprintf("%s:line:%d", intentID, i)
}
