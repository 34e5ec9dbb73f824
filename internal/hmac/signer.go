package hmac

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// DigestLength is the length of a hex-encoded digest as it travels on the wire.
const DigestLength = sha256.Size * 2

// Sign computes the HMAC-SHA256 digest of the canonical bytes using the
// shared secret as the key, hex-encoded in lowercase for transport.
func Sign(secret string, canonical []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the digest and compares it to the claimed one in constant
// time. A malformed claim (wrong length, non-hex characters) is a plain
// verification failure, never an error.
func Verify(secret string, canonical []byte, claimed string) bool {
	if len(claimed) != DigestLength {
		return false
	}
	claimedBytes, err := hex.DecodeString(claimed)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(canonical)
	return hmac.Equal(claimedBytes, mac.Sum(nil))
}
