package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func signPayload(secret string, ts int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyWebhookSignature(t *testing.T) {
	client := NewStripeClient("sk_test", "whsec_test", time.Second)
	payload := []byte(`{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_123"}}}`)

	ev, err := client.VerifyWebhookSignature(payload, signPayload("whsec_test", time.Now().Unix(), payload))
	assert.NoError(t, err)
	assert.Equal(t, "payment_intent.succeeded", ev.Type)
	assert.Equal(t, "pi_123", ev.IntentID)
}

func TestVerifyWebhookSignature_WrongSecret(t *testing.T) {
	client := NewStripeClient("sk_test", "whsec_test", time.Second)
	payload := []byte(`{"type":"payment_intent.succeeded"}`)

	_, err := client.VerifyWebhookSignature(payload, signPayload("whsec_other", time.Now().Unix(), payload))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyWebhookSignature_TamperedPayload(t *testing.T) {
	client := NewStripeClient("sk_test", "whsec_test", time.Second)
	payload := []byte(`{"type":"payment_intent.succeeded"}`)
	header := signPayload("whsec_test", time.Now().Unix(), payload)

	_, err := client.VerifyWebhookSignature([]byte(`{"type":"charge.refunded"}`), header)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyWebhookSignature_StaleTimestamp(t *testing.T) {
	client := NewStripeClient("sk_test", "whsec_test", time.Second)
	payload := []byte(`{"type":"payment_intent.succeeded"}`)
	stale := time.Now().Add(-10 * time.Minute).Unix()

	_, err := client.VerifyWebhookSignature(payload, signPayload("whsec_test", stale, payload))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyWebhookSignature_GarbageHeader(t *testing.T) {
	client := NewStripeClient("sk_test", "whsec_test", time.Second)

	_, err := client.VerifyWebhookSignature([]byte(`{}`), "not-a-header")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseEvent_ChargeReferencesIntent(t *testing.T) {
	payload := []byte(`{
		"type":"charge.refunded",
		"data":{"object":{"id":"ch_9","payment_intent":"pi_123"}}
	}`)
	ev, err := parseEvent(payload)
	assert.NoError(t, err)
	assert.Equal(t, "pi_123", ev.IntentID)
}

func TestParseEvent_FailureMessage(t *testing.T) {
	payload := []byte(`{
		"type":"payment_intent.payment_failed",
		"data":{"object":{"id":"pi_123","last_payment_error":{"message":"card declined"}}}
	}`)
	ev, err := parseEvent(payload)
	assert.NoError(t, err)
	assert.Equal(t, "card declined", ev.FailureMessage)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, "20000", minorUnits(decimal.NewFromInt(200)))
	assert.Equal(t, "4550", minorUnits(decimal.RequireFromString("45.50")))
	assert.Equal(t, "100", minorUnits(decimal.RequireFromString("0.999")))
}
