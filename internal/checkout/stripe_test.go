package checkout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentID(t *testing.T) {
	id, err := IntentID("pi_123_secret_abc")
	require.NoError(t, err)
	assert.Equal(t, "pi_123", id)

	_, err = IntentID("garbage")
	assert.Error(t, err)
	_, err = IntentID("_secret_abc")
	assert.Error(t, err)
}

func TestNewStripeGatewayRequiresKey(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := NewStripeGateway(StripeOptions{SecretKey: " "}, log)
	assert.Error(t, err)
}

func TestStripeGatewayRoundTrip(t *testing.T) {
	var confirmedWith string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/payment_methods":
			_ = r.ParseForm()
			if r.PostForm.Get("card[token]") == "tok_declined" {
				w.WriteHeader(http.StatusPaymentRequired)
				_, _ = w.Write([]byte(`{"error":{"type":"card_error","message":"Your card was declined."}}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"pm_1","object":"payment_method","type":"card"}`))
		case "/v1/payment_intents/pi_9/confirm":
			_ = r.ParseForm()
			confirmedWith = r.PostForm.Get("payment_method")
			_, _ = w.Write([]byte(`{"id":"pi_9","object":"payment_intent","status":"succeeded"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	log, _ := test.NewNullLogger()
	gw, err := NewStripeGateway(StripeOptions{SecretKey: "sk_test_x", APIURL: srv.URL}, log)
	require.NoError(t, err)
	ctx := context.Background()

	pm, err := gw.CreatePaymentMethod(ctx, "tok_visa")
	require.NoError(t, err)
	assert.Equal(t, "pm_1", pm)

	status, err := gw.ConfirmPayment(ctx, "pi_9_secret_abc", pm)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, status)
	assert.Equal(t, "pm_1", confirmedWith)

	_, err = gw.CreatePaymentMethod(ctx, "tok_declined")
	var ge *GatewayError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "Your card was declined.", ge.UserMessage())
	assert.Equal(t, gobreaker.StateClosed, gw.State())
}

func TestStripeGatewayBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"boom"}}`))
	}))
	t.Cleanup(srv.Close)

	log, _ := test.NewNullLogger()
	gw, err := NewStripeGateway(StripeOptions{SecretKey: "sk_test_x", APIURL: srv.URL, TripAfter: 2}, log)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := gw.CreatePaymentMethod(context.Background(), "tok")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, gw.State())

	_, err = gw.CreatePaymentMethod(context.Background(), "tok")
	var ge *GatewayError
	require.ErrorAs(t, err, &ge)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, ge.UserMessage(), "temporarily unavailable")
	assert.Equal(t, int32(2), hits.Load())
}
