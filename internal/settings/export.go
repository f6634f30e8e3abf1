package settings

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// sensitiveKeys are stripped from exported bodies. "_metadata" is the
// server-internal bookkeeping block; the rest guard against credentials
// that ended up in a preference tree.
var sensitiveKeys = []string{"_metadata", "password", "token", "api_key", "secret"}

// FilterForExport returns a copy of body with server-confidential and
// sensitive top-level keys removed.
func FilterForExport(body map[string]any) map[string]any {
	out := CloneBody(body)
	for _, key := range sensitiveKeys {
		delete(out, key)
	}
	return out
}

// Checksum returns a hex sha256 digest of the body's canonical JSON form.
// encoding/json writes map keys in sorted order, so equal bodies always
// hash equal.
func Checksum(body map[string]any) string {
	raw, err := json.Marshal(body)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
