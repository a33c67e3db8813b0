package header

import (
	"encoding/hex"

	"github.com/mewah/core/internal/core/ecs"
	"golang.org/x/crypto/blake2b"
)

// Fingerprint identifies a component schema by the BLAKE2b-256 digest of its
// header encoding. Any change to names, layout, kinds or initial values
// yields a different fingerprint.
func Fingerprint(c ecs.ComponentSchema) [32]byte {
	w := NewWriter()
	writeComponent(w, c)
	return blake2b.Sum256(w.Bytes())
}

// FingerprintHex is Fingerprint as a lowercase hex string.
func FingerprintHex(c ecs.ComponentSchema) string {
	sum := Fingerprint(c)
	return hex.EncodeToString(sum[:])
}
