// Package resilience provides retry, rate-limiting, and concurrency-limiting
// primitives for calls to external collaborators.
//
// The segmentation oracle is fallible and rate limited: the segmenter retries
// with backoff via Retry, the orchestrator bounds concurrent oracle calls with
// a Bulkhead, and a shared RateLimiter keeps the call rate below the oracle's
// quota so excess load surfaces as backoff instead of a failure storm.
package resilience
