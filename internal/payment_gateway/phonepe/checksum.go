package phonepe

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// PayPath is the gateway's pay endpoint path. It participates in the
// outbound checksum by gateway convention; callbacks are signed over the
// envelope alone.
const PayPath = "/pg/v1/pay"

// Checksum returns the lowercase hex SHA-256 digest of the concatenated
// parts. Callers supply the concatenation order for their direction:
// payload+path+saltKey for outbound requests, payload+saltKey for inbound
// callbacks.
func Checksum(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// XVerify builds the integrity header value: the digest followed by the
// configured salt-index suffix.
func XVerify(digest, saltIndex string) string {
	return digest + "###" + saltIndex
}

// SignRequest produces the X-VERIFY header for an outbound pay request.
func SignRequest(base64Payload, saltKey, saltIndex string) string {
	return XVerify(Checksum(base64Payload, PayPath, saltKey), saltIndex)
}

// VerifyCallback recomputes the digest over the raw base64 envelope and
// compares it against the digest carried in the X-VERIFY header. Any
// mismatch, including a malformed header, fails closed.
func VerifyCallback(base64Envelope, xVerifyHeader, saltKey string) error {
	received, _, ok := strings.Cut(xVerifyHeader, "###")
	if !ok || received == "" {
		return fmt.Errorf("phonepe: malformed X-VERIFY header")
	}
	expected := Checksum(base64Envelope, saltKey)
	if subtle.ConstantTimeCompare([]byte(received), []byte(expected)) != 1 {
		return fmt.Errorf("phonepe: callback checksum mismatch")
	}
	return nil
}
