package devserver

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateSecretKey mints a reporter capability token: 32 random bytes,
// hex-encoded to 64 characters. Possession of this string is the reporter's
// only credential for the report.
func GenerateSecretKey() string {
	buf := make([]byte, 32)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
