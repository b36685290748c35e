package stripe

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/refund"
)

// IntentStatusSucceeded is the processor status for a captured payment.
const IntentStatusSucceeded = string(stripe.PaymentIntentStatusSucceeded)

// CreateIntent raises a payment intent for the given minor-unit amount and
// returns the intent id plus the client secret used by the frontend.
func (c *Client) CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (string, string, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(amountMinorUnits),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: metadata,
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return "", "", fmt.Errorf("creating payment intent: %w", err)
	}
	return intent.ID, intent.ClientSecret, nil
}

// RetrieveIntent returns the current processor status of an intent.
func (c *Client) RetrieveIntent(ctx context.Context, intentID string) (string, error) {
	params := &stripe.PaymentIntentParams{Params: stripe.Params{Context: ctx}}
	intent, err := paymentintent.Get(intentID, params)
	if err != nil {
		return "", fmt.Errorf("retrieving payment intent %s: %w", intentID, err)
	}
	return string(intent.Status), nil
}

// CreateRefund refunds part or all of a captured intent.
func (c *Client) CreateRefund(ctx context.Context, intentID string, amountMinorUnits int64, reason string) (string, error) {
	if reason == "" {
		reason = string(stripe.RefundReasonRequestedByCustomer)
	}
	params := &stripe.RefundParams{
		Params:        stripe.Params{Context: ctx},
		PaymentIntent: stripe.String(intentID),
		Amount:        stripe.Int64(amountMinorUnits),
		Reason:        stripe.String(reason),
	}

	r, err := refund.New(params)
	if err != nil {
		return "", fmt.Errorf("creating refund for intent %s: %w", intentID, err)
	}
	return r.ID, nil
}
