// ABOUTME: Package documentation for the gateway orchestrator
// ABOUTME: Describes the HTTP surface and component wiring

// Package gateway wires the storefront components behind one HTTP server.
//
// It exposes the Telegram bot webhook, the payment provider webhook, the
// web widget chat endpoint (an SSE token stream), a checkout creation
// endpoint, and a health check. Construction never fails on missing
// credentials; each surface degrades independently instead.
package gateway
