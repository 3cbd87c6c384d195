package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// GenerateRequestID generates a unique request ID (16 hex characters)
func GenerateRequestID() string {
	return generateHex(8)
}

// GenerateCorrelationID generates a UUID for correlation tracking
func GenerateCorrelationID() string {
	return uuid.New().String()
}

// GenerateAdaptationID generates an identifier for one adaptation audit record
func GenerateAdaptationID() string {
	return fmt.Sprintf("adpt_%s", generateHex(12))
}


// generateHex generates a random hex string of the given byte length
func generateHex(byteLength int) string {
	bytes := make([]byte, byteLength)
	if _, err := rand.Read(bytes); err != nil {
		// crypto/rand failing is effectively fatal, but these IDs are for
		// tracing only; fall back to a UUID-derived value.
		return uuid.New().String()[:byteLength*2]
	}
	return hex.EncodeToString(bytes)
}
