package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows future algorithm migration.
const (
	DomainRecord = "scenesync/record/v1"
	DomainTrace  = "scenesync/trace/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecordID computes the content-addressed ID of a dispatch journal record.
// Two records with the same seq, kind, object and detail hash identically,
// which makes journal writes idempotent.
func RecordID(seq int64, kind, objectID string, detail Object) (string, error) {
	if detail == nil {
		detail = Object{}
	}
	canonical, err := MarshalCanonical(Object{
		"seq":       Int(seq),
		"kind":      String(kind),
		"object_id": String(objectID),
		"detail":    detail,
	})
	if err != nil {
		return "", fmt.Errorf("RecordID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// TraceHash fingerprints a complete trace (any canonical-marshalable value).
// Used to compare scenario runs without diffing the whole trace.
func TraceHash(trace any) (string, error) {
	canonical, err := MarshalCanonical(trace)
	if err != nil {
		return "", fmt.Errorf("TraceHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}
