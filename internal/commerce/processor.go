// ABOUTME: Verifies Stripe webhook events and turns completed checkouts into notifications.
// ABOUTME: Signature check gates everything; test events and foreign types are acked and dropped.

package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/webhook"

	"github.com/peptiva/storefront-gateway/internal/catalog"
	"github.com/peptiva/storefront-gateway/internal/telegram"
)

const (
	// checkoutCompleted is the only event type that triggers a side effect.
	checkoutCompleted = "checkout.session.completed"

	// testEventPrefix tags synthetic events sent by provider connectivity
	// checks; they are acknowledged without side effects.
	testEventPrefix = "evt_test"
)

// Outcome describes how an inbound webhook event was handled.
type Outcome int

const (
	// OutcomeRejected means signature verification failed; the caller must
	// return a non-success status and nothing else happened.
	OutcomeRejected Outcome = iota
	// OutcomeIgnoredTest is a synthetic test event, acknowledged as a no-op.
	OutcomeIgnoredTest
	// OutcomeIgnoredType is a verified event of a type we do not act on.
	OutcomeIgnoredType
	// OutcomeSkipped means a completed checkout was verified but the
	// notification destination is not configured; logged and acknowledged.
	OutcomeSkipped
	// OutcomeNotified means the notification was sent.
	OutcomeNotified
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRejected:
		return "rejected"
	case OutcomeIgnoredTest:
		return "ignored_test"
	case OutcomeIgnoredType:
		return "ignored_type"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeNotified:
		return "notified"
	default:
		return "unknown"
	}
}

// Notifier is what the processor needs to deliver a notification.
type Notifier interface {
	SendMarkdown(ctx context.Context, chatID, text string) error
}

// CheckoutNotice holds the commerce-relevant fields of one completed
// checkout, resolved once at extraction time with a fixed fallback order:
// metadata field, then the session's own recorded value, then a literal
// default.
type CheckoutNotice struct {
	CustomerName  string
	CustomerEmail string
	ItemsSummary  string
	TotalAmount   string
	SessionID     string
}

// Processor handles inbound payment-provider webhook events.
type Processor struct {
	webhookSecret string
	notifyChatID  string
	notifier      Notifier
	logger        *slog.Logger
}

// NewProcessor creates a webhook processor. An empty webhookSecret causes
// every event to be rejected; an empty notifyChatID or nil notifier degrades
// completed checkouts to a logged skip.
func NewProcessor(webhookSecret, notifyChatID string, notifier Notifier, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		webhookSecret: webhookSecret,
		notifyChatID:  notifyChatID,
		notifier:      notifier,
		logger:        logger.With("component", "webhook"),
	}
}

// HandleEvent verifies and dispatches one raw webhook delivery. Only
// OutcomeRejected carries a non-nil error; every other outcome must be
// acknowledged to the provider with success, or it will retry the event and
// duplicate side effects later.
func (p *Processor) HandleEvent(ctx context.Context, rawBody []byte, sigHeader string) (Outcome, error) {
	if p.webhookSecret == "" {
		return OutcomeRejected, fmt.Errorf("webhook signing secret not configured")
	}

	event, err := webhook.ConstructEventWithOptions(rawBody, sigHeader, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return OutcomeRejected, fmt.Errorf("signature verification failed: %w", err)
	}

	if strings.HasPrefix(event.ID, testEventPrefix) {
		p.logger.Info("test event acknowledged", "event_id", event.ID)
		return OutcomeIgnoredTest, nil
	}

	if string(event.Type) != checkoutCompleted {
		p.logger.Debug("event type ignored", "event_id", event.ID, "type", event.Type)
		return OutcomeIgnoredType, nil
	}

	notice, err := extractNotice(event)
	if err != nil {
		// Verified but unreadable payload: log and acknowledge, a retry
		// would fail the same way.
		p.logger.Error("checkout payload unreadable", "event_id", event.ID, "error", err)
		return OutcomeIgnoredType, nil
	}

	if p.notifier == nil || p.notifyChatID == "" {
		p.logger.Warn("notification destination not configured, skipping",
			"event_id", event.ID, "session_id", notice.SessionID)
		return OutcomeSkipped, nil
	}

	text := renderNotification(notice)
	if err := p.notifier.SendMarkdown(ctx, p.notifyChatID, text); err != nil {
		// Delivery is best-effort; the provider still gets its success
		// acknowledgment so it does not retry into a duplicate.
		p.logger.Error("notification send failed", "event_id", event.ID, "error", err)
		return OutcomeSkipped, nil
	}

	p.logger.Info("checkout notification sent", "event_id", event.ID, "session_id", notice.SessionID)
	return OutcomeNotified, nil
}

// extractNotice resolves the notification fields from a verified
// checkout.session.completed event.
func extractNotice(event stripe.Event) (CheckoutNotice, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return CheckoutNotice{}, fmt.Errorf("unmarshal checkout session: %w", err)
	}

	notice := CheckoutNotice{
		CustomerName:  "Unknown customer",
		CustomerEmail: "(no email)",
		ItemsSummary:  "(no items listed)",
		TotalAmount:   "(unknown total)",
		SessionID:     sess.ID,
	}

	if v := sess.Metadata["customer_name"]; v != "" {
		notice.CustomerName = v
	} else if sess.CustomerDetails != nil && sess.CustomerDetails.Name != "" {
		notice.CustomerName = sess.CustomerDetails.Name
	}

	if v := sess.Metadata["customer_email"]; v != "" {
		notice.CustomerEmail = v
	} else if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		notice.CustomerEmail = sess.CustomerDetails.Email
	}

	if v := sess.Metadata["items_summary"]; v != "" {
		notice.ItemsSummary = v
	}

	if v := sess.Metadata["total_usd"]; v != "" {
		notice.TotalAmount = "$" + v
	} else if sess.AmountTotal > 0 {
		notice.TotalAmount = catalog.FormatPrice(sess.AmountTotal)
	}

	return notice, nil
}

// renderNotification formats the group-channel message. Every interpolated
// field is escaped against MarkdownV2 reserved characters.
func renderNotification(n CheckoutNotice) string {
	var b strings.Builder
	b.WriteString("*New order completed* 🛒\n")
	fmt.Fprintf(&b, "Customer: %s\n", telegram.EscapeMarkdown(n.CustomerName))
	fmt.Fprintf(&b, "Email: %s\n", telegram.EscapeMarkdown(n.CustomerEmail))
	fmt.Fprintf(&b, "Items: %s\n", telegram.EscapeMarkdown(n.ItemsSummary))
	fmt.Fprintf(&b, "Total: %s\n", telegram.EscapeMarkdown(n.TotalAmount))
	if n.SessionID != "" {
		fmt.Fprintf(&b, "Session: %s", telegram.EscapeMarkdown(n.SessionID))
	}
	return b.String()
}
