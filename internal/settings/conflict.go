package settings

import "github.com/accessly/prefsync/internal/models"

// DetectConflict decides whether a client's view of the document is stale.
//
// When the client claims the server version it last observed, the check is a
// version-number comparison: the view is stale iff the server has moved past
// that version. Clients that only report a last-modified timestamp get the
// original wall-clock rule: a conflict exists iff the client supplied a
// non-zero timestamp and the server's is strictly newer. The timestamp rule
// is coarse (clock skew across servers can misfire) but clients already
// round-trip last_modified, so it stays as the fallback rather than being
// silently replaced.
//
// A client with no metadata at all never conflicts; a fresh or offline-first
// client is assumed to be intentionally overwriting.
func DetectConflict(serverMeta models.DocumentMetadata, clientMeta models.ClientMetadata) bool {
	if clientMeta.ServerVersion > 0 && serverMeta.Version > 0 {
		return serverMeta.Version > clientMeta.ServerVersion
	}
	return clientMeta.LastModified > 0 && serverMeta.LastModified > clientMeta.LastModified
}
