package engine

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// generateID returns a 16-character random hex ID for sessions.
func generateID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// Entropy failure: fall back to the wall clock so IDs stay distinct.
		return fmt.Sprintf("sess-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
