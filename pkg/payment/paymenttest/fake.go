// Package paymenttest provides an in-memory payment.Gateway for tests.
package paymenttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/storefront/pkg/errs"
	"github.com/shashiranjanraj/storefront/pkg/payment"
)

// Gateway records created intents and accepts events signed with Signature.
type Gateway struct {
	mu      sync.Mutex
	seq     int
	intents map[string]*payment.Intent
	events  map[string]*payment.Event

	// CreateErr, when set, is returned by CreateIntent.
	CreateErr error
	// Created holds every CreateParams received.
	Created []payment.CreateParams
}

// Signature is the only webhook signature the fake accepts.
const Signature = "valid-signature"

func New() *Gateway {
	return &Gateway{intents: map[string]*payment.Intent{}, events: map[string]*payment.Event{}}
}

func (g *Gateway) CreateIntent(_ context.Context, p payment.CreateParams) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Created = append(g.Created, p)
	if g.CreateErr != nil {
		return nil, g.CreateErr
	}

	g.seq++
	id := fmt.Sprintf("pi_%d", g.seq)
	in := &payment.Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Amount:       p.Amount,
		Currency:     p.Currency,
		Status:       "requires_payment_method",
		Metadata:     p.Metadata,
	}
	g.intents[id] = in
	cp := *in
	return &cp, nil
}

func (g *Gateway) RetrieveIntent(_ context.Context, id string) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	in, ok := g.intents[id]
	if !ok {
		return nil, errs.NotFound("Payment intent %s not found", id)
	}
	cp := *in
	return &cp, nil
}

// SetStatus moves an intent to status, e.g. "succeeded".
func (g *Gateway) SetStatus(id, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if in, ok := g.intents[id]; ok {
		in.Status = status
	}
}

// Queue registers evt as the decoded form of payload.
func (g *Gateway) Queue(payload string, evt *payment.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events[payload] = evt
}

func (g *Gateway) ParseEvent(payload []byte, signature string) (*payment.Event, error) {
	if signature != Signature {
		return nil, payment.ErrInvalidSignature
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	evt, ok := g.events[string(payload)]
	if !ok {
		return nil, fmt.Errorf("paymenttest: no event queued for payload")
	}
	return evt, nil
}
