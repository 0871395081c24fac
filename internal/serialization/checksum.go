package serialization

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeChecksum computes the SHA-256 checksum of a model body.
func ComputeChecksum(body []byte) [ChecksumSize]byte {
	return sha256.Sum256(body)
}

// ValidateChecksum compares the checksum of body against the stored one.
// Returns an error wrapping ErrChecksumMismatch if they don't match.
func ValidateChecksum(body []byte, stored [ChecksumSize]byte) error {
	computed := ComputeChecksum(body)
	if computed != stored {
		return fmt.Errorf("%w: stored %s, computed %s",
			ErrChecksumMismatch, hex.EncodeToString(stored[:8]), hex.EncodeToString(computed[:8]))
	}
	return nil
}
