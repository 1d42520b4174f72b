package account

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Pending tokens keep the legacy shape: 10 lowercase-alphanumeric characters,
// embedded in verification and reset links. The legacy generator was
// Math.random based; crypto/rand with uniform per-character sampling is a
// hardening change.
const (
	pendingTokenLength   = 10
	pendingTokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// newPendingToken generates a fresh single-use token for a verification or
// password reset flow. Uniqueness across outstanding tokens is not enforced.
func newPendingToken() (string, error) {
	max := big.NewInt(int64(len(pendingTokenAlphabet)))
	buf := make([]byte, pendingTokenLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate token: %w", err)
		}
		buf[i] = pendingTokenAlphabet[n.Int64()]
	}
	return string(buf), nil
}
