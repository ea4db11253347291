package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/shashiranjanraj/storefront/pkg/errs"
)

const succeededEvent = `{
  "id": "evt_1",
  "object": "event",
  "type": "payment_intent.succeeded",
  "data": {"object": {"id": "pi_1", "object": "payment_intent", "amount": 2500, "currency": "pkr",
    "status": "succeeded", "metadata": {"userId": "u1", "items": "a1:2"}}}
}`

func TestStripeParseEvent(t *testing.T) {
	gw, err := NewStripeGateway("sk_test_x", "whsec_test")
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(succeededEvent),
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})
	evt, err := gw.ParseEvent(signed.Payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", evt.ID)
	assert.Equal(t, EventIntentSucceeded, evt.Type)
	require.NotNil(t, evt.Intent)
	assert.True(t, evt.Intent.Succeeded())
	assert.Equal(t, "a1:2", evt.Intent.Metadata["items"])

	_, err = gw.ParseEvent([]byte(succeededEvent), "t=1,v1=forged")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripeParseEventWithoutSecret(t *testing.T) {
	gw, err := NewStripeGateway("sk_test_x", "")
	require.NoError(t, err)

	_, err = gw.ParseEvent([]byte(succeededEvent), "t=1,v1=abc")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NotErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, errs.KindInternal, errs.KindOf(err))
}

func TestNewStripeGatewayNeedsKey(t *testing.T) {
	_, err := NewStripeGateway("", "whsec_test")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
