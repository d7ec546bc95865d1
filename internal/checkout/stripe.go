package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// DefaultTripAfter is the number of consecutive gateway failures that
// opens the breaker.
const DefaultTripAfter = 3

// GatewayError is a failure reported by the payment processor.
type GatewayError struct {
	Op  string
	Msg string
	Err error
}

func (e *GatewayError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("stripe %s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("stripe %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// UserMessage returns the processor's message for display.
func (e *GatewayError) UserMessage() string { return e.Msg }

// StripeOptions configures a StripeGateway.
type StripeOptions struct {
	SecretKey string
	// APIURL overrides the Stripe API base URL.
	APIURL      string
	TripAfter   uint32
	OpenTimeout time.Duration
}

// StripeGateway is a Gateway on the Stripe API behind a circuit breaker.
type StripeGateway struct {
	api     *client.API
	breaker *gobreaker.CircuitBreaker[string]
	log     logrus.FieldLogger
}

// NewStripeGateway returns a gateway using opts.SecretKey.
func NewStripeGateway(opts StripeOptions, log logrus.FieldLogger) (*StripeGateway, error) {
	key := strings.TrimSpace(opts.SecretKey)
	if key == "" {
		return nil, errors.New("stripe secret key not configured")
	}
	if opts.TripAfter == 0 {
		opts.TripAfter = DefaultTripAfter
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	cfg := &stripe.BackendConfig{LeveledLogger: log}
	if opts.APIURL != "" {
		cfg.URL = stripe.String(strings.TrimRight(opts.APIURL, "/"))
	}
	// The breaker is the retry policy.
	cfg.MaxNetworkRetries = stripe.Int64(0)
	api := &client.API{}
	api.Init(key, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, &stripe.BackendConfig{LeveledLogger: log}),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, &stripe.BackendConfig{LeveledLogger: log}),
	})

	trip := opts.TripAfter
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("payment gateway breaker changed state")
		},
		IsSuccessful: func(err error) bool {
			// Card declines are answers, not outages.
			var se *stripe.Error
			if errors.As(err, &se) {
				return se.Type == stripe.ErrorTypeCard || se.Type == stripe.ErrorTypeInvalidRequest
			}
			return err == nil
		},
	})
	return &StripeGateway{api: api, breaker: breaker, log: log}, nil
}

// State reports the breaker state.
func (g *StripeGateway) State() gobreaker.State { return g.breaker.State() }

// CreatePaymentMethod creates a card payment method from a card token.
func (g *StripeGateway) CreatePaymentMethod(ctx context.Context, cardToken string) (string, error) {
	return g.call("create payment method", func() (string, error) {
		params := &stripe.PaymentMethodParams{
			Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
			Card: &stripe.PaymentMethodCardParams{Token: stripe.String(cardToken)},
		}
		params.Context = ctx
		pm, err := g.api.PaymentMethods.New(params)
		if err != nil {
			return "", err
		}
		return pm.ID, nil
	})
}

// ConfirmPayment confirms the payment intent identified by clientSecret.
func (g *StripeGateway) ConfirmPayment(ctx context.Context, clientSecret, paymentMethodID string) (string, error) {
	intentID, err := IntentID(clientSecret)
	if err != nil {
		return "", err
	}
	return g.call("confirm payment", func() (string, error) {
		params := &stripe.PaymentIntentConfirmParams{PaymentMethod: stripe.String(paymentMethodID)}
		params.Context = ctx
		pi, err := g.api.PaymentIntents.Confirm(intentID, params)
		if err != nil {
			return "", err
		}
		return string(pi.Status), nil
	})
}

func (g *StripeGateway) call(op string, fn func() (string, error)) (string, error) {
	out, err := g.breaker.Execute(fn)
	if err == nil {
		return out, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", &GatewayError{Op: op, Msg: "Payments are temporarily unavailable. Try again shortly.", Err: err}
	}
	var se *stripe.Error
	if errors.As(err, &se) {
		return "", &GatewayError{Op: op, Msg: se.Msg, Err: err}
	}
	return "", &GatewayError{Op: op, Err: err}
}

// IntentID extracts the payment intent id from a client secret of the form
// "pi_123_secret_abc".
func IntentID(clientSecret string) (string, error) {
	id, _, ok := strings.Cut(clientSecret, "_secret_")
	if !ok || id == "" {
		return "", fmt.Errorf("malformed client secret")
	}
	return id, nil
}
