package store

import (
	"crypto/sha256"
	"fmt"
)

// ContentHash is the revision key of a file: the hex SHA-256 of its bytes.
// A file whose stored hash equals ContentHash(src) needs no rebuild.
func ContentHash(src []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(src))
}
