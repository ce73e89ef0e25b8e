// ABOUTME: HTTP handlers for the webhook, widget chat, and checkout endpoints
// ABOUTME: Widget chat re-emits upstream completion deltas as an SSE token stream

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/peptiva/storefront-gateway/internal/catalog"
	"github.com/peptiva/storefront-gateway/internal/commerce"
	"github.com/peptiva/storefront-gateway/internal/llm"
	"github.com/peptiva/storefront-gateway/internal/telegram"
)

// maxBodyBytes caps inbound request bodies on all POST endpoints.
const maxBodyBytes = 1 << 20

// chatRequest is the widget chat payload: the full visible transcript, with
// the newest user message last. The widget holds its own history, so the
// handler is stateless.
type chatRequest struct {
	Messages []llm.Message `json:"messages"`
}

// chatToken is one SSE data payload on the downstream widget stream.
type chatToken struct {
	Content string `json:"content"`
}

type checkoutRequest struct {
	Items []commerce.CheckoutItem `json:"items"`
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleTelegramWebhook acknowledges every delivery with 200 so the Bot API
// does not retry, and processes the update off the request goroutine.
// Malformed payloads are logged and dropped.
func (g *Gateway) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		g.logger.Warn("failed to read telegram update", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	var upd telegram.Update
	if err := json.Unmarshal(body, &upd); err != nil {
		g.logger.Warn("failed to decode telegram update", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	if g.updates.SeenUpdate(upd.UpdateID) {
		g.logger.Debug("dropping redelivered update", "update_id", upd.UpdateID)
		w.WriteHeader(http.StatusOK)
		return
	}

	go g.dispatcher.HandleUpdate(context.WithoutCancel(r.Context()), &upd)
	w.WriteHeader(http.StatusOK)
}

// handleStripeWebhook verifies and processes a payment event. Only a failed
// signature check produces a non-200 response; verified events are always
// acknowledged, whatever happens downstream.
func (g *Gateway) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	outcome, err := g.webhooks.HandleEvent(r.Context(), body, r.Header.Get("Stripe-Signature"))
	if outcome == commerce.OutcomeRejected {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]bool{"received": true})
}

// handleChat serves the web widget. It validates the transcript, opens an
// upstream completion stream, and re-emits each delta as a widget token
// until the upstream finishes or the client disconnects.
func (g *Gateway) handleChat(w http.ResponseWriter, r *http.Request) {
	g.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		g.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	logger := g.logger.With("component", "chat", "request_id", uuid.NewString())

	ip := clientIP(r)
	if !g.chatLimiter.Allow(ip) {
		logger.Warn("chat rate limit exceeded", "ip", ip)
		g.sendJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		g.sendJSONError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}
	if req.Messages[len(req.Messages)-1].Role != llm.RoleUser {
		g.sendJSONError(w, http.StatusBadRequest, "last message must be from the user")
		return
	}

	if !g.completer.Configured() {
		g.sendJSONError(w, http.StatusServiceUnavailable, "assistant is not available right now")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error("streaming not supported")
		g.sendJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	stream, err := g.completer.CompleteStream(r.Context(), g.assembleMessages(req.Messages))
	if err != nil {
		logger.Error("failed to open completion stream", "error", err)
		var reqErr *llm.RequestError
		if errors.As(err, &reqErr) {
			g.sendJSONError(w, http.StatusBadGateway, reqErr.Message)
			return
		}
		g.sendJSONError(w, http.StatusBadGateway, "upstream unavailable")
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	for {
		frame, err := stream.Next()
		if err != nil {
			return
		}
		if frame.Done {
			fmt.Fprintf(w, "data: %s\n\n", llm.TerminationMarker)
			flusher.Flush()
			return
		}

		payload, err := json.Marshal(chatToken{Content: frame.Content})
		if err != nil {
			logger.Error("failed to marshal chat token", "error", err)
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
}

// handleCheckout creates a hosted checkout session for the requested items
// and returns its URL.
func (g *Gateway) handleCheckout(w http.ResponseWriter, r *http.Request) {
	g.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		g.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !g.checkout.Configured() {
		g.sendJSONError(w, http.StatusServiceUnavailable, "checkout is not available right now")
		return
	}

	url, err := g.checkout.Create(r.Context(), req.Items)
	if err != nil {
		if errors.Is(err, commerce.ErrInvalidItems) {
			g.sendJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		g.logger.Error("failed to create checkout session", "error", err)
		g.sendJSONError(w, http.StatusBadGateway, "failed to create checkout session")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"url": url})
}

// assembleMessages prepends the storefront system prompt when the widget
// transcript does not already carry one, and bounds the history the same
// way the bot path does.
func (g *Gateway) assembleMessages(messages []llm.Message) []llm.Message {
	if messages[0].Role == llm.RoleSystem {
		return messages
	}
	last := messages[len(messages)-1]
	history := messages[:len(messages)-1]
	return catalog.BuildMessages(history, last.Content, g.config.Session.MaxTurns)
}

func (g *Gateway) setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
