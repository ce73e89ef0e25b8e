// Package catalog holds the static product catalog and builds the prompt
// message list sent to the completion backend.
package catalog
