package controllers

import (
	"io"
	"net/http"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/errs"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// signatureHeader carries the gateway's webhook signature.
const signatureHeader = "Stripe-Signature"

// PaymentController serves /payments. Its bodies are flat
// ({"success":…}) rather than enveloped; clients of the payment sheet read
// them directly.
type PaymentController struct {
	payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

func (pc *PaymentController) Checkout(c *ctx.Context) {
	var in services.CheckoutRequest
	if err := c.Bind(&in); err != nil {
		fail(c, err)
		return
	}
	res, err := pc.payments.CreateIntent(c.Context(), c.Identity(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (pc *PaymentController) Verify(c *ctx.Context) {
	var body struct {
		PaymentIntentID string `json:"paymentIntentId"`
	}
	if err := c.Bind(&body); err != nil {
		fail(c, err)
		return
	}
	res, err := pc.payments.VerifyIntent(c.Context(), c.Identity(), body.PaymentIntentID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Webhook receives gateway events. The raw body is needed for the signature
// check, so it is not decoded here.
func (pc *PaymentController) Webhook(c *ctx.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.W, c.R.Body, config.MaxBodyBytes()))
	if err != nil {
		fail(c, errs.Validation("Unreadable webhook body"))
		return
	}
	res, err := pc.payments.HandleWebhook(c.Context(), body, c.Header(signatureHeader))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type failure struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func fail(c *ctx.Context, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.WithCtx(c.Context()).Error("payment request failed", "status", status, "error", err)
	}
	c.JSON(status, failure{Error: errs.PublicMessage(err), Errors: errs.FieldErrors(err)})
}
