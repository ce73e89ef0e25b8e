// ABOUTME: Inbound update types for the Telegram webhook payload.
// ABOUTME: Only the fields the dispatcher reads; everything else is ignored.

package telegram

import "strconv"

// Update is one inbound Bot API update. Updates without a text message
// (edits, stickers, joins) are silently ignored by the dispatcher.
type Update struct {
	UpdateID int64            `json:"update_id"`
	Message  *IncomingMessage `json:"message"`
}

// IncomingMessage is the message portion of an update.
type IncomingMessage struct {
	Chat Chat   `json:"chat"`
	Text string `json:"text"`
	From *User  `json:"from"`
}

// Chat identifies the conversation the message arrived in.
type Chat struct {
	ID int64 `json:"id"`
}

// User is the sender of a message.
type User struct {
	FirstName string `json:"first_name"`
}

// ChatKey returns the conversation key for the update's chat, used to key
// session history.
func (m *IncomingMessage) ChatKey() string {
	return strconv.FormatInt(m.Chat.ID, 10)
}
