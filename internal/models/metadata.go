package models

// DocumentMetadata is the server-authoritative version state attached to
// sync and export responses. Timestamps are Unix seconds, matching the
// wire protocol the clients already speak.
type DocumentMetadata struct {
	Version      int64  `json:"version"`
	LastModified int64  `json:"last_modified"`
	Checksum     string `json:"checksum,omitempty"`
}

// ClientMetadata is the version state a client claims it last observed.
// It is only an input to conflict detection and is discarded after the
// request completes.
type ClientMetadata struct {
	ServerVersion int64 `json:"server_version"`
	LastModified  int64 `json:"last_modified"`
}
