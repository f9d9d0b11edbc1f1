// Package identity generates the identifiers used across the scope tree.
// Sessions use short prefixed ids that read well in logs and batch files;
// per-record identifiers are UUIDs.
package identity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewSessionID generates a session identifier ("sess-" + 12 hex chars).
func NewSessionID() string {
	return prefixedID("sess", 12)
}

// NewBatchID generates a batch file identifier ("b-" + 12 hex chars).
func NewBatchID() string {
	return prefixedID("b", 12)
}

// NewViewID generates a per-activation view identifier.
func NewViewID() string {
	return uuid.NewString()
}

// NewActionID generates an action identifier.
func NewActionID() string {
	return uuid.NewString()
}

// NewResourceID generates a resource identifier.
func NewResourceID() string {
	return uuid.NewString()
}

// NewRecordID generates an identifier for error and long-task records.
func NewRecordID() string {
	return uuid.NewString()
}

func prefixedID(prefix string, hexLen int) string {
	b := make([]byte, (hexLen+1)/2)
	if _, err := rand.Read(b); err != nil {
		// Fallback to timestamp-based ID if crypto/rand fails
		return fmt.Sprintf("%s-%x", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%s", prefix, hex.EncodeToString(b)[:hexLen])
}
