// ABOUTME: Chat message types shared by the completion client and its callers.
// ABOUTME: Role constants match the OpenAI-compatible chat completions wire format.

package llm

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a chat completion request. Immutable once built.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
