// ABOUTME: Gateway orchestrator wiring sessions, LLM, Telegram, and commerce together
// ABOUTME: Owns the HTTP server and its graceful startup/shutdown lifecycle

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/peptiva/storefront-gateway/internal/commerce"
	"github.com/peptiva/storefront-gateway/internal/config"
	"github.com/peptiva/storefront-gateway/internal/dedupe"
	"github.com/peptiva/storefront-gateway/internal/llm"
	"github.com/peptiva/storefront-gateway/internal/session"
	"github.com/peptiva/storefront-gateway/internal/telegram"
)

// chatRatePerMinute bounds how many widget chat requests a single IP may
// open per minute; chatBurst allows short bursts above the sustained rate.
const (
	chatRatePerMinute = 20
	chatBurst         = 5
)

// Redelivered updates carry the same update_id; remembering recent IDs for
// a few minutes is enough to absorb Bot API retries.
const (
	updateDedupeTTL  = 10 * time.Minute
	updateDedupeSize = 4096
)

// Gateway coordinates the storefront components behind a single HTTP server:
// the Telegram webhook, the widget chat stream, checkout creation, and the
// payment webhook.
type Gateway struct {
	config     *config.Config
	logger     *slog.Logger
	sessions   *session.Store
	completer  *llm.Client
	bot        *telegram.Client
	dispatcher *telegram.Dispatcher
	webhooks   *commerce.Processor
	checkout   *commerce.CheckoutService
	httpServer *http.Server

	chatLimiter *ipRateLimiter
	updates     *dedupe.Cache
}

// New assembles a Gateway from configuration. Missing credentials degrade
// the corresponding surface rather than failing construction: an empty LLM
// key yields unavailability notices, an empty webhook secret rejects
// deliveries, an empty bot token disables outbound Telegram traffic.
func New(cfg *config.Config, logger *slog.Logger) *Gateway {
	var llmOpts []llm.Option
	if cfg.LLM.BaseURL != "" {
		llmOpts = append(llmOpts, llm.WithBaseURL(cfg.LLM.BaseURL))
	}
	if cfg.LLM.Model != "" {
		llmOpts = append(llmOpts, llm.WithModel(cfg.LLM.Model))
	}
	completer := llm.New(cfg.LLM.APIKey, llmOpts...)

	sessions := session.New(cfg.Session.TTL, cfg.Session.MaxTurns)
	bot := telegram.NewClient(cfg.Telegram.BotToken)
	dispatcher := telegram.NewDispatcher(sessions, completer, bot, cfg.Session.MaxTurns, logger)

	// A processor with a nil notifier verifies and logs but never sends.
	var notifier commerce.Notifier
	if bot.Configured() {
		notifier = bot
	}
	webhooks := commerce.NewProcessor(cfg.Stripe.WebhookSecret, cfg.Telegram.NotifyChatID,
		notifier, logger)

	checkout := commerce.NewCheckoutService(cfg.Stripe.SecretKey,
		cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL)

	g := &Gateway{
		config:      cfg,
		logger:      logger,
		sessions:    sessions,
		completer:   completer,
		bot:         bot,
		dispatcher:  dispatcher,
		webhooks:    webhooks,
		checkout:    checkout,
		chatLimiter: newIPRateLimiter(rate.Every(time.Minute/chatRatePerMinute), chatBurst),
		updates:     dedupe.New(updateDedupeTTL, updateDedupeSize),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("POST /webhook/telegram", g.handleTelegramWebhook)
	mux.HandleFunc("POST /webhook/stripe", g.handleStripeWebhook)
	mux.HandleFunc("/api/chat", g.handleChat)
	mux.HandleFunc("/api/checkout", g.handleCheckout)

	g.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g
}

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails. A canceled context triggers a bounded graceful shutdown.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", g.httpServer.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := g.Shutdown(shutdownCtx)

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// Shutdown stops accepting new connections and waits for in-flight
// requests, including open chat streams, to finish or the context to expire.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")
	g.updates.Close()
	if err := g.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}
