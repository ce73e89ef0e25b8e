// ABOUTME: Routes inbound bot messages: commands, unavailability notice, LLM relay.
// ABOUTME: All side effects are best-effort; failures are logged, never propagated.

package telegram

import (
	"context"
	"log/slog"

	"github.com/peptiva/storefront-gateway/internal/catalog"
	"github.com/peptiva/storefront-gateway/internal/llm"
	"github.com/peptiva/storefront-gateway/internal/session"
)

const (
	cmdStart    = "/start"
	cmdProducts = "/products"
	cmdHelp     = "/help"

	startReply = "Welcome to the Peptiva research storefront. Ask me anything about " +
		"our catalog, or use /products to see everything we carry. All products " +
		"are for laboratory research use only."
	helpReply = "Commands:\n" +
		"/products - list the full catalog\n" +
		"/help - this message\n\n" +
		"Or just type a question and I'll answer it."
	unavailableReply = "The assistant is not available right now. Please try again later."
	apologyReply     = "Sorry, I couldn't process that just now. Please try again in a moment."
)

// Completer is what the dispatcher needs from the completion backend.
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, messages []llm.Message) (string, error)
}

// Sender is what the dispatcher needs from the Bot API client.
type Sender interface {
	SendMessage(ctx context.Context, chatID, text string) error
	SendChatAction(ctx context.Context, chatID, action string) error
}

// Dispatcher handles inbound bot updates. The webhook handler has already
// acknowledged receipt to the platform by the time HandleUpdate runs, so
// there is no user-visible error channel: every failure here is logged and
// swallowed.
type Dispatcher struct {
	store     *session.Store
	completer Completer
	sender    Sender
	maxTurns  int
	logger    *slog.Logger
}

// NewDispatcher creates a bot dispatcher.
func NewDispatcher(store *session.Store, completer Completer, sender Sender, maxTurns int, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:     store,
		completer: completer,
		sender:    sender,
		maxTurns:  maxTurns,
		logger:    logger.With("component", "dispatcher"),
	}
}

// HandleUpdate processes one inbound update. Checks run in fixed priority
// order and the first match wins: recognized command, unconfigured backend
// notice, then the LLM relay.
func (d *Dispatcher) HandleUpdate(ctx context.Context, upd *Update) {
	if upd == nil || upd.Message == nil || upd.Message.Text == "" {
		// Unsupported update shape; nothing to do.
		return
	}
	msg := upd.Message
	chatID := msg.ChatKey()

	switch msg.Text {
	case cmdStart:
		d.reply(ctx, chatID, startReply)
		return
	case cmdProducts:
		d.reply(ctx, chatID, catalog.ProductList())
		return
	case cmdHelp:
		d.reply(ctx, chatID, helpReply)
		return
	}

	if !d.completer.Configured() {
		d.reply(ctx, chatID, unavailableReply)
		return
	}

	// Best-effort typing indicator while the completion runs.
	if err := d.sender.SendChatAction(ctx, chatID, "typing"); err != nil {
		d.logger.Warn("typing indicator failed", "chat_id", chatID, "error", err)
	}

	history := d.store.Get(chatID)
	messages := catalog.BuildMessages(history, msg.Text, d.maxTurns)

	reply, err := d.completer.Complete(ctx, messages)
	if err != nil {
		d.logger.Error("completion failed", "chat_id", chatID, "error", err)
		d.reply(ctx, chatID, apologyReply)
		return
	}

	// Persist both turns, then deliver. The store tail-truncates for us.
	updated := append(append([]llm.Message{}, history...),
		llm.Message{Role: llm.RoleUser, Content: msg.Text},
		llm.Message{Role: llm.RoleAssistant, Content: reply},
	)
	d.store.Update(chatID, updated)

	d.reply(ctx, chatID, reply)
}

// reply sends text to a chat, logging any failure. The platform already has
// its acknowledgment, so delivery failures are silent from the user's side.
func (d *Dispatcher) reply(ctx context.Context, chatID, text string) {
	if err := d.sender.SendMessage(ctx, chatID, text); err != nil {
		d.logger.Error("send failed", "chat_id", chatID, "error", err)
	}
}
