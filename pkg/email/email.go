// Package email holds helpers for handling addresses outside the validator:
// normalisation before comparison, masking for logs and a stable digest for
// published events.
package email

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize trims whitespace and lowercases the domain part. The local part
// keeps its case because some providers treat it as significant.
func Normalize(address string) string {
	address = strings.TrimSpace(address)
	at := strings.LastIndexByte(address, '@')
	if at <= 0 {
		return address
	}
	return address[:at] + "@" + strings.ToLower(address[at+1:])
}

// Same reports whether two addresses are equal after normalisation.
func Same(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Mask keeps the first rune of the local part and the whole domain:
// "alice@example.com" becomes "a****@example.com".
func Mask(address string) string {
	address = Normalize(address)
	at := strings.LastIndexByte(address, '@')
	if at <= 0 {
		if address == "" {
			return ""
		}
		return "***"
	}
	local := []rune(address[:at])
	return string(local[0]) + strings.Repeat("*", len(local)-1) + address[at:]
}

// Digest returns a short, stable identifier for an address so events can be
// correlated without carrying the address itself.
func Digest(address string) string {
	sum := sha256.Sum256([]byte(Normalize(address)))
	return hex.EncodeToString(sum[:8])
}
