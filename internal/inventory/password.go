package inventory

import (
	"crypto/rand"
	"encoding/hex"
)

// generatePassword returns a 32-byte hex-encoded vault password. Generated
// once per inventory bundle and never regenerated as long as .password
// exists, so re-running Build against an existing bundle does not rotate
// credentials out from under a running deploy.
func generatePassword() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
