// Package event provides the canonical data model for the risk event registry.
//
// This package contains the Event/Registry types plus the pure identity
// machinery built on them: token and URL canonicalization, canonical JSON
// serialization, and content-addressed fingerprints. All other internal
// packages import event; event imports nothing internal.
//
// Key design constraints:
//   - Canonicalization is idempotent and resolves all optional/missing input
//     fields up front; later stages never see unnormalized data
//   - A fingerprint is a pure function of the canonical fields minus
//     canonical_source (citations never change identity)
//   - All JSON tags use snake_case
package event
