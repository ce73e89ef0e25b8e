// ABOUTME: Creates Stripe checkout sessions for catalog items.
// ABOUTME: Line items are resolved server-side from the catalog, never client prices.

package commerce

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"

	"github.com/peptiva/storefront-gateway/internal/catalog"
)

// ErrInvalidItems marks checkout requests the caller got wrong: unknown
// catalog items, bad quantities, or an empty item list.
var ErrInvalidItems = errors.New("invalid checkout items")

// CheckoutItem is one requested line item, identified by catalog product
// name and dosage. Prices come from the catalog, not the request.
type CheckoutItem struct {
	Product  string `json:"product"`
	Dosage   string `json:"dosage"`
	Quantity int64  `json:"quantity"`
}

// CheckoutService creates provider checkout sessions.
type CheckoutService struct {
	secretKey  string
	successURL string
	cancelURL  string
}

// NewCheckoutService creates the service and installs the account key in
// the provider SDK. An empty secretKey yields an unconfigured service.
func NewCheckoutService(secretKey, successURL, cancelURL string) *CheckoutService {
	if secretKey != "" {
		stripe.Key = secretKey
	}
	return &CheckoutService{
		secretKey:  secretKey,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// Configured reports whether the service has an account secret key.
func (s *CheckoutService) Configured() bool {
	return s.secretKey != ""
}

// Create starts a checkout session for the given items and returns the
// hosted payment page URL.
func (s *CheckoutService) Create(ctx context.Context, items []CheckoutItem) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("commerce: payment provider not configured")
	}

	lineItems, summary, err := buildLineItems(items)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
		LineItems:  lineItems,
	}
	params.Context = ctx
	params.AddMetadata("items_summary", summary)

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("commerce: create checkout session: %w", err)
	}
	return sess.URL, nil
}

// buildLineItems resolves requested items against the catalog and returns
// the provider line items plus a human-readable summary for metadata.
func buildLineItems(items []CheckoutItem) ([]*stripe.CheckoutSessionLineItemParams, string, error) {
	if len(items) == 0 {
		return nil, "", fmt.Errorf("%w: no items requested", ErrInvalidItems)
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	parts := make([]string, 0, len(items))

	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, "", fmt.Errorf("%w: quantity %d for %q", ErrInvalidItems, item.Quantity, item.Product)
		}
		product, variant, ok := catalog.Find(item.Product, item.Dosage)
		if !ok {
			return nil, "", fmt.Errorf("%w: unknown catalog item %q %s", ErrInvalidItems, item.Product, item.Dosage)
		}

		label := fmt.Sprintf("%s %s", product.Name, variant.Dosage)
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("usd"),
				UnitAmount: stripe.Int64(variant.PriceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(label),
				},
			},
		})
		parts = append(parts, fmt.Sprintf("%s x%d", label, item.Quantity))
	}

	return lineItems, strings.Join(parts, ", "), nil
}
