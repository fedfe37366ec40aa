// Package match implements fuzzy identity resolution for risk events.
//
// When an incoming update's fingerprint has no exact hit in the registry,
// the Matcher scores the update against every stored event using a weighted
// blend of exact-field, set-overlap, and character-sequence comparisons.
// A candidate at or above the configured threshold is treated as the same
// underlying event; anything below it becomes a new event.
//
// Scoring is pure and deterministic: given the same events in the same
// order, BestMatch always returns the same result.
package match
