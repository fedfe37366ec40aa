package event

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// FingerprintPrefix identifies the digest algorithm in fingerprint strings.
const FingerprintPrefix = "sha256:"

// Fingerprint derives the content-address of a set of canonical fields.
// CanonicalSource is dropped first: a different citation for the same
// underlying event must not create a new identity. The remaining fields
// are serialized as canonical JSON and hashed, so any permutation of equal
// sets yields the same fingerprint.
func Fingerprint(f Fields) string {
	payload := map[string]any{
		"cluster":          f.Cluster,
		"event_type":       f.EventType,
		"primary_entities": emptyIfNil(f.PrimaryEntities),
		"geography":        emptyIfNil(f.Geography),
		"instruments":      emptyIfNil(f.Instruments),
		"mechanism":        f.Mechanism,
	}
	data, err := MarshalCanonical(payload)
	if err != nil {
		// The payload holds only strings and string slices, all of which
		// the canonical marshaler accepts.
		panic(fmt.Sprintf("event: fingerprint payload not canonicalizable: %v", err))
	}
	digest := sha256.Sum256(data)
	return FingerprintPrefix + hex.EncodeToString(digest[:])
}

// DigestSuffix returns the last n hex characters of a fingerprint's digest,
// used when deriving stable short identifiers.
func DigestSuffix(fingerprint string, n int) string {
	digest := fingerprint
	if i := strings.Index(digest, ":"); i >= 0 {
		digest = digest[i+1:]
	}
	if len(digest) > n {
		digest = digest[len(digest)-n:]
	}
	return digest
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
