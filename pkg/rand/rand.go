package rand

import (
	"crypto/rand"
	"encoding/hex"
)

const nonceBytes = 16

// Nonce returns a random hex string suitable as a single-use session nonce
func Nonce() (string, error) {
	var buf [nonceBytes]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}
