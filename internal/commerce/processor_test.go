// ABOUTME: Tests for webhook verification, dispatch, extraction, and notification.
// ABOUTME: Signs payloads the way the provider does to exercise the real verifier.

package commerce

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v80/webhook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test_secret"

type fakeNotifier struct {
	sent    []string
	chatIDs []string
	err     error
}

func (f *fakeNotifier) SendMarkdown(_ context.Context, chatID, text string) error {
	f.chatIDs = append(f.chatIDs, chatID)
	f.sent = append(f.sent, text)
	return f.err
}

// sign produces a valid Stripe-Signature header for payload.
func sign(payload []byte, secret string) string {
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}

func checkoutEvent(id string, sessionJSON string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"type":"checkout.session.completed","data":{"object":%s}}`, id, sessionJSON))
}

func TestProcessor_RejectsWrongBodySignature(t *testing.T) {
	notifier := &fakeNotifier{}
	p := NewProcessor(testSecret, "-100", notifier, nil)

	body := []byte(`{"id":"evt_1"}`)
	// Signature computed over a different body.
	header := sign([]byte(`{"id":"evt_2"}`), testSecret)

	outcome, err := p.HandleEvent(context.Background(), body, header)

	assert.Equal(t, OutcomeRejected, outcome)
	assert.Error(t, err)
	assert.Empty(t, notifier.sent)
}

func TestProcessor_RejectsWrongSecret(t *testing.T) {
	notifier := &fakeNotifier{}
	p := NewProcessor(testSecret, "-100", notifier, nil)

	body := []byte(`{"id":"evt_1"}`)
	header := sign(body, "whsec_other_secret")

	outcome, err := p.HandleEvent(context.Background(), body, header)

	assert.Equal(t, OutcomeRejected, outcome)
	assert.Error(t, err)
}

func TestProcessor_RejectsWhenSecretMissing(t *testing.T) {
	notifier := &fakeNotifier{}
	p := NewProcessor("", "-100", notifier, nil)

	body := []byte(`{"id":"evt_1"}`)
	outcome, err := p.HandleEvent(context.Background(), body, sign(body, testSecret))

	assert.Equal(t, OutcomeRejected, outcome)
	assert.Error(t, err)
	assert.Empty(t, notifier.sent)
}

func TestProcessor_TestEventAcknowledgedWithoutSideEffects(t *testing.T) {
	notifier := &fakeNotifier{}
	p := NewProcessor(testSecret, "-100", notifier, nil)

	body := checkoutEvent("evt_test_abc", `{"id":"cs_1"}`)
	outcome, err := p.HandleEvent(context.Background(), body, sign(body, testSecret))

	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnoredTest, outcome)
	assert.Empty(t, notifier.sent)
}

func TestProcessor_ForeignEventTypeIgnored(t *testing.T) {
	notifier := &fakeNotifier{}
	p := NewProcessor(testSecret, "-100", notifier, nil)

	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{}}}`)
	outcome, err := p.HandleEvent(context.Background(), body, sign(body, testSecret))

	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnoredType, outcome)
	assert.Empty(t, notifier.sent)
}

func TestProcessor_CompletedCheckoutSendsOneNotification(t *testing.T) {
	notifier := &fakeNotifier{}
	p := NewProcessor(testSecret, "-100200300", notifier, nil)

	body := checkoutEvent("evt_1", `{
		"id":"cs_abc",
		"metadata":{"customer_name":"Jane Doe","items_summary":"Widget x2","total_usd":"42.00"}
	}`)
	outcome, err := p.HandleEvent(context.Background(), body, sign(body, testSecret))

	require.NoError(t, err)
	assert.Equal(t, OutcomeNotified, outcome)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, []string{"-100200300"}, notifier.chatIDs)

	text := notifier.sent[0]
	assert.Contains(t, text, "Jane Doe")
	assert.Contains(t, text, "Widget x2")
	// Markdown-reserved "." in the amount must be escaped.
	assert.Contains(t, text, `$42\.00`)
}

func TestProcessor_EscapesUserControlledFields(t *testing.T) {
	notifier := &fakeNotifier{}
	p := NewProcessor(testSecret, "-100", notifier, nil)

	body := checkoutEvent("evt_1", `{
		"id":"cs_abc",
		"metadata":{"customer_name":"Jane_Doe*[admin]","items_summary":"Widget x2","total_usd":"42.00"}
	}`)
	_, err := p.HandleEvent(context.Background(), body, sign(body, testSecret))

	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0], `Jane\_Doe\*\[admin\]`)
	assert.NotContains(t, notifier.sent[0], "Jane_Doe*[admin]")
}

func TestProcessor_FallsBackToSessionFields(t *testing.T) {
	notifier := &fakeNotifier{}
	p := NewProcessor(testSecret, "-100", notifier, nil)

	body := checkoutEvent("evt_1", `{
		"id":"cs_abc",
		"amount_total":4200,
		"customer_details":{"name":"Bob Bobson","email":"bob@example.com"}
	}`)
	outcome, err := p.HandleEvent(context.Background(), body, sign(body, testSecret))

	require.NoError(t, err)
	assert.Equal(t, OutcomeNotified, outcome)
	require.Len(t, notifier.sent, 1)

	text := notifier.sent[0]
	assert.Contains(t, text, "Bob Bobson")
	assert.Contains(t, text, `bob@example\.com`)
	assert.Contains(t, text, `$42\.00`)
	assert.Contains(t, text, `\(no items listed\)`)
}

func TestProcessor_LiteralDefaultsWhenNothingProvided(t *testing.T) {
	notifier := &fakeNotifier{}
	p := NewProcessor(testSecret, "-100", notifier, nil)

	body := checkoutEvent("evt_1", `{"id":"cs_abc"}`)
	outcome, err := p.HandleEvent(context.Background(), body, sign(body, testSecret))

	require.NoError(t, err)
	assert.Equal(t, OutcomeNotified, outcome)
	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0], "Unknown customer")
}

func TestProcessor_MissingDestinationDegradesToSkip(t *testing.T) {
	notifier := &fakeNotifier{}
	p := NewProcessor(testSecret, "", notifier, nil)

	body := checkoutEvent("evt_1", `{"id":"cs_abc","metadata":{"customer_name":"Jane"}}`)
	outcome, err := p.HandleEvent(context.Background(), body, sign(body, testSecret))

	// Still a success acknowledgment: the provider must not retry.
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Empty(t, notifier.sent)
}

func TestProcessor_SendFailureStillAcknowledges(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("bot down")}
	p := NewProcessor(testSecret, "-100", notifier, nil)

	body := checkoutEvent("evt_1", `{"id":"cs_abc"}`)
	outcome, err := p.HandleEvent(context.Background(), body, sign(body, testSecret))

	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "rejected", OutcomeRejected.String())
	assert.Equal(t, "notified", OutcomeNotified.String())
	assert.Equal(t, "unknown", Outcome(99).String())
}
