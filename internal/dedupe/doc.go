// ABOUTME: Package documentation for webhook update deduplication
// ABOUTME: Explains why redeliveries happen and what the cache guarantees

// Package dedupe suppresses duplicate webhook deliveries. The Bot API
// redelivers an update until it gets a 200, so a slow or crashed handler
// produces replays; tracking recently seen update IDs keeps a replay from
// triggering a second LLM call and a second chat reply.
package dedupe
