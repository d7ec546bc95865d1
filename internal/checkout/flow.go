// Package checkout runs the card payment flow over the payments
// sub-collection and a payment gateway.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/five82/shopfront/internal/docstore"
	"github.com/five82/shopfront/internal/shop"
	"github.com/five82/shopfront/internal/state"
)

// ErrEmptyCart is returned when paying for a cart with no lines.
var ErrEmptyCart = errors.New("cart is empty")

// StatusSucceeded is the terminal success status of a payment.
const StatusSucceeded = "succeeded"

// Gateway is the payment processor.
type Gateway interface {
	// CreatePaymentMethod turns a card token into a payment method id.
	CreatePaymentMethod(ctx context.Context, cardToken string) (string, error)
	// ConfirmPayment confirms the intent behind clientSecret and returns
	// its resulting status.
	ConfirmPayment(ctx context.Context, clientSecret, paymentMethodID string) (string, error)
}

// Stage names the step of the flow that failed.
type Stage string

const (
	StagePaymentMethod Stage = "payment_method"
	StageInitiate      Stage = "initiate"
	StageConfirm       Stage = "confirm"
	StageServer        Stage = "server"
	StageWatch         Stage = "watch"
)

// PaymentError is a failed payment. Message is safe to show the user.
type PaymentError struct {
	Stage   Stage
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment %s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("payment %s: %s", e.Stage, e.Message)
}

func (e *PaymentError) Unwrap() error { return e.Err }

// Outcome is a finished payment.
type Outcome struct {
	PaymentID string
	Status    string
	Message   string
}

// Flow runs payments. OnSuccess and OnError, when set, are called once per
// Pay with the terminal result.
type Flow struct {
	store   docstore.Store
	gateway Gateway
	log     logrus.FieldLogger
	tracer  trace.Tracer
	now     func() time.Time

	OnSuccess func(Outcome)
	OnError   func(error)
}

// NewFlow returns a flow writing to store and paying through gateway.
func NewFlow(store docstore.Store, gateway Gateway, log logrus.FieldLogger) *Flow {
	return &Flow{
		store:   store,
		gateway: gateway,
		log:     log,
		tracer:  otel.Tracer("shopfront/checkout"),
		now:     time.Now,
	}
}

// Pay charges totals for lines to the card behind cardToken. It writes the
// payment initiation document, then follows it until the server reports a
// client secret to confirm, a terminal status or an error.
func (f *Flow) Pay(ctx context.Context, uid string, lines []shop.CartLine, totals state.Totals, cardToken string) (Outcome, error) {
	ctx, span := f.tracer.Start(ctx, "Pay")
	defer span.End()
	span.SetAttributes(
		attribute.String("app.user_id", uid),
		attribute.Int64("app.amount", totals.MinorUnits()),
		attribute.String("app.currency", totals.Currency),
	)
	log := f.log.WithField("uid", uid)

	if uid == "" {
		return Outcome{}, shop.ErrSignInRequired
	}
	if len(lines) == 0 {
		return Outcome{}, ErrEmptyCart
	}

	out, err := f.pay(ctx, log, uid, lines, totals, cardToken)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		log.WithError(err).Warn("payment failed")
		if f.OnError != nil {
			f.OnError(err)
		}
		return Outcome{}, err
	}
	span.SetAttributes(attribute.String("app.payment_id", out.PaymentID), attribute.String("app.status", out.Status))
	log.WithFields(logrus.Fields{"payment_id": out.PaymentID, "status": out.Status}).Info("payment finished")
	if f.OnSuccess != nil {
		f.OnSuccess(out)
	}
	return out, nil
}

func (f *Flow) pay(ctx context.Context, log logrus.FieldLogger, uid string, lines []shop.CartLine, totals state.Totals, cardToken string) (Outcome, error) {
	if strings.TrimSpace(cardToken) == "" {
		return Outcome{}, &PaymentError{Stage: StagePaymentMethod, Message: "Card details are required."}
	}
	methodID, err := f.gateway.CreatePaymentMethod(ctx, cardToken)
	if err != nil {
		return Outcome{}, &PaymentError{Stage: StagePaymentMethod, Message: gatewayMessage(err, "Failed to create payment method."), Err: err}
	}

	products := make([]any, len(lines))
	for i, l := range lines {
		products[i] = l.Fields()
	}
	path := shop.PaymentsPath(uid)
	paymentID, err := f.store.Add(ctx, path, map[string]any{
		"amount":         totals.MinorUnits(),
		"currency":       totals.Currency,
		"payment_method": methodID,
		"created":        f.now().UTC(),
		"cart_products":  products,
	})
	if err != nil {
		return Outcome{}, &PaymentError{Stage: StageInitiate, Message: "Error initiating payment.", Err: err}
	}
	log.WithField("payment_id", paymentID).Debug("payment initiation written")

	feed := f.store.WatchDoc(ctx, path, paymentID)
	defer feed.Stop()

	for {
		select {
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		case snap, ok := <-feed.Events():
			if !ok {
				if ctx.Err() != nil {
					return Outcome{}, ctx.Err()
				}
				return Outcome{}, &PaymentError{Stage: StageWatch, Message: "Lost track of the payment."}
			}
			if snap.Err != nil {
				return Outcome{}, &PaymentError{Stage: StageWatch, Message: "Lost track of the payment.", Err: snap.Err}
			}
			if len(snap.Docs) == 0 {
				continue
			}
			out, err, done := f.step(ctx, paymentID, methodID, snap.Docs[0].Data)
			if done {
				return out, err
			}
		}
	}
}

// step interprets one version of the payment document. done is false
// while the server has not yet acted on it.
func (f *Flow) step(ctx context.Context, paymentID, methodID string, data map[string]any) (Outcome, error, bool) {
	secret, _ := data["client_secret"].(string)
	status, _ := data["status"].(string)

	switch {
	case secret != "" && status == "":
		confirmed, err := f.gateway.ConfirmPayment(ctx, secret, methodID)
		if err != nil {
			return Outcome{}, &PaymentError{Stage: StageConfirm, Message: gatewayMessage(err, "Payment confirmation failed."), Err: err}, true
		}
		if confirmed == StatusSucceeded {
			return Outcome{PaymentID: paymentID, Status: confirmed, Message: "Payment successful! Thank you for your purchase."}, nil, true
		}
		return Outcome{
			PaymentID: paymentID,
			Status:    confirmed,
			Message:   fmt.Sprintf("Payment status: %s. You might need to refresh or check your orders.", confirmed),
		}, nil, true
	case status == StatusSucceeded:
		return Outcome{PaymentID: paymentID, Status: status, Message: "Payment successful! Thank you for your purchase."}, nil, true
	case data["error"] != nil:
		msg := "Payment failed on the server."
		if e, ok := data["error"].(map[string]any); ok {
			if m, ok := e["message"].(string); ok && m != "" {
				msg = m
			}
		}
		return Outcome{}, &PaymentError{Stage: StageServer, Message: msg}, true
	}
	return Outcome{}, nil, false
}

type messenger interface{ UserMessage() string }

func gatewayMessage(err error, fallback string) string {
	var m messenger
	if errors.As(err, &m) {
		if msg := m.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}
