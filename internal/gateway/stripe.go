package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Intent statuses as reported by the gateway.
const (
	IntentSucceeded  = "succeeded"
	IntentProcessing = "processing"
	IntentFailed     = "failed"
)

type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Event is a verified webhook event, reduced to the fields the ledger needs.
type Event struct {
	Type           string
	IntentID       string
	FailureMessage string
}

// StripeClient talks to the Stripe REST API. All calls are bounded by the
// client timeout; a timed-out call means "unknown outcome" and must not
// advance local state.
type StripeClient struct {
	apiKey        string
	webhookSecret string
	baseURL       string
	client        *http.Client

	// signature tolerance for webhook replay protection
	tolerance time.Duration
}

func NewStripeClient(apiKey, webhookSecret string, timeout time.Duration) *StripeClient {
	return &StripeClient{
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		baseURL:       "https://api.stripe.com/v1",
		client:        &http.Client{Timeout: timeout},
		tolerance:     5 * time.Minute,
	}
}

// CreateIntent registers a charge attempt with the gateway. The amount is
// converted to minor units; idempotencyKey makes retries safe.
func (s *StripeClient) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string, idempotencyKey string) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", minorUnits(amount))
	form.Set("currency", strings.ToLower(currency))
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		form.Set("metadata["+k+"]", v)
	}

	var intent Intent
	if err := s.do(ctx, http.MethodPost, "/payment_intents", form, idempotencyKey, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// RetrieveIntent fetches the current gateway-side status of an intent.
func (s *StripeClient) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	var intent Intent
	if err := s.do(ctx, http.MethodGet, "/payment_intents/"+url.PathEscape(intentID), nil, "", &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// CreateRefund refunds amount against an intent. Refunds are idempotent by
// intent id plus amount on the gateway side.
func (s *StripeClient) CreateRefund(ctx context.Context, intentID string, amount decimal.Decimal, idempotencyKey string) (*Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", intentID)
	form.Set("amount", minorUnits(amount))

	var refund Refund
	if err := s.do(ctx, http.MethodPost, "/refunds", form, idempotencyKey, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

// VerifyWebhookSignature checks the Stripe-Signature header against the raw
// payload and returns the parsed event. Nothing may mutate state before this
// check passes.
func (s *StripeClient) VerifyWebhookSignature(payload []byte, sigHeader string) (*Event, error) {
	var ts int64
	var sigs []string
	for _, part := range strings.Split(sigHeader, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, ErrInvalidSignature
			}
			ts = parsed
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return nil, ErrInvalidSignature
	}
	if s.tolerance > 0 && time.Since(time.Unix(ts, 0)) > s.tolerance {
		return nil, ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	valid := false
	for _, sig := range sigs {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrInvalidSignature
	}

	return parseEvent(payload)
}

func parseEvent(payload []byte) (*Event, error) {
	var raw struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID               string `json:"id"`
				PaymentIntent    string `json:"payment_intent"`
				LastPaymentError *struct {
					Message string `json:"message"`
				} `json:"last_payment_error"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}

	ev := &Event{Type: raw.Type}
	// payment_intent.* events carry the intent as the object id;
	// charge.* events reference it through the payment_intent field.
	if strings.HasPrefix(raw.Type, "payment_intent.") {
		ev.IntentID = raw.Data.Object.ID
	} else {
		ev.IntentID = raw.Data.Object.PaymentIntent
	}
	if raw.Data.Object.LastPaymentError != nil {
		ev.FailureMessage = raw.Data.Object.LastPaymentError.Message
	}
	return ev, nil
}

func (s *StripeClient) do(ctx context.Context, method, path string, form url.Values, idempotencyKey string, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway call failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(respBody, &apiErr)
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, apiErr.Error.Message)
	}

	return json.Unmarshal(respBody, out)
}

// minorUnits renders a decimal amount as integer cents.
func minorUnits(amount decimal.Decimal) string {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).String()
}
