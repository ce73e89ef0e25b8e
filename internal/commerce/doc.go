// Package commerce handles the payment-provider integration: webhook
// verification and dispatch, and checkout session creation.
package commerce
