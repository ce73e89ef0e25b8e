// Package llm provides the completion client for the OpenAI-compatible
// backend, in whole-response and incremental streaming modes, plus the
// stream iterator that parses the provider's SSE frame format.
package llm
