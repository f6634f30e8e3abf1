package settings

import (
	"reflect"

	"github.com/accessly/prefsync/internal/models"
)

// Resolve combines the server and client bodies according to strategy and
// returns a fresh body; neither input is mutated. For StrategyNewerWins the
// two metadata records supply the timestamps being compared.
func Resolve(server, client map[string]any, serverMeta models.DocumentMetadata, clientMeta models.ClientMetadata, strategy Strategy) map[string]any {
	switch strategy {
	case StrategyClientWins:
		return CloneBody(client)
	case StrategyServerWins:
		return CloneBody(server)
	case StrategyNewerWins:
		if clientMeta.LastModified > serverMeta.LastModified {
			return CloneBody(client)
		}
		return CloneBody(server)
	default:
		return MergeShallow(server, client)
	}
}

// MergeShallow merges client into server one nested level deep: for every
// top-level client key, two mappings at the same key are combined with
// client entries overriding server entries at that second level only.
// Anything else, arrays included, replaces the server value wholesale.
// Merging a body with itself is a no-op.
func MergeShallow(server, client map[string]any) map[string]any {
	merged := CloneBody(server)
	for key, clientVal := range client {
		clientMap, clientIsMap := clientVal.(map[string]any)
		serverMap, serverIsMap := merged[key].(map[string]any)
		if clientIsMap && serverIsMap {
			for k, v := range clientMap {
				serverMap[k] = cloneValue(v)
			}
			continue
		}
		merged[key] = cloneValue(clientVal)
	}
	return merged
}

// CloneBody deep-copies a settings body. A nil body clones to an empty one
// so callers can merge into the result without nil checks.
func CloneBody(body map[string]any) map[string]any {
	out := make(map[string]any, len(body))
	for k, v := range body {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue walks the closed set of JSON-decoded value types. Scalars are
// immutable and returned as-is.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneBody(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Equal reports whether two bodies are identical. Empty and nil bodies
// compare equal.
func Equal(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
