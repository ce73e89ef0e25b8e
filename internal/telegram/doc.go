// Package telegram contains the Bot API client and the dispatcher that
// routes inbound bot messages to static replies or the completion backend.
package telegram
