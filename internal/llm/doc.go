// Package llm provides language model clients used as a rate source.
// It supports OpenAI, Anthropic and Gemini, with rate limiting, response
// caching and retry handled by ManagedClient.
package llm
