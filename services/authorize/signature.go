package authorize

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// canonicalMessage builds the signed string for a request. Field order and
// the pipe separator are fixed by the router firmware.
func canonicalMessage(routerID, mac, voucher string, ts int64, nonce string) string {
	return fmt.Sprintf("%s|%s|%s|%d|%s", routerID, mac, voucher, ts, nonce)
}

// signHex returns the lowercase hex HMAC-SHA256 tag of msg under secret.
func signHex(secret, msg string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(msg))
	return hex.EncodeToString(h.Sum(nil))
}

// verifySignature checks a presented hex tag in constant time. The tag is
// lowercased first so routers may send either case.
func verifySignature(secret, msg, sig string) bool {
	expected := signHex(secret, msg)
	return hmac.Equal([]byte(strings.ToLower(sig)), []byte(expected))
}
