// ABOUTME: Assembles the message list sent to the completion backend.
// ABOUTME: Fixed system prompt embedding the catalog, plus bounded recent history.

package catalog

import (
	"fmt"
	"strings"

	"github.com/peptiva/storefront-gateway/internal/llm"
)

// systemPrompt is rendered once at startup; the catalog and policy are fixed
// for the process lifetime.
var systemPrompt = renderSystemPrompt()

// SystemPrompt returns the fixed system instructions sent with every
// completion request.
func SystemPrompt() string {
	return systemPrompt
}

func renderSystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are the customer assistant for a research peptide storefront.\n\n")
	b.WriteString("Catalog (the only products and prices you may reference):\n")
	for _, p := range products {
		variants := make([]string, 0, len(p.Variants))
		for _, v := range p.Variants {
			variants = append(variants, fmt.Sprintf("%s at %s", v.Dosage, FormatPrice(v.PriceCents)))
		}
		fmt.Fprintf(&b, "- %s (%s, purity %s): %s\n", p.Name, p.Category, p.Purity, strings.Join(variants, ", "))
	}
	b.WriteString("\nRules:\n")
	b.WriteString("1. All products are sold strictly for laboratory research use. Never suggest, endorse, or describe human or veterinary use.\n")
	b.WriteString("2. Never give medical advice, dosing protocols for people, or health claims. If asked, decline and recommend consulting a licensed professional.\n")
	b.WriteString("3. Only mention products, dosages, and prices that appear in the catalog above. Never invent products or quote other prices.\n")
	b.WriteString("4. Be concise and helpful. If a question is outside the catalog or ordering process, say so.\n")
	return b.String()
}

// BuildMessages assembles the full request message list: the system prompt,
// the most recent history, then the new user text. History is truncated from
// the front so the total message count never exceeds maxTurns. Pure function,
// no I/O.
func BuildMessages(history []llm.Message, userText string, maxTurns int) []llm.Message {
	// Reserve room for the system prompt and the new user turn.
	if budget := maxTurns - 2; len(history) > budget {
		history = history[len(history)-budget:]
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userText})
	return messages
}
