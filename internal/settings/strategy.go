// Package settings holds the synchronization kernel for user preference
// documents: merge strategies, conflict detection, and schema validation.
// Everything in this package is pure; persistence lives in the repositories.
package settings

import (
	"errors"
	"fmt"
)

// Strategy selects how a two-way sync combines the server and client bodies.
type Strategy string

const (
	// StrategyServerWins keeps the server body unchanged; the client body
	// is discarded entirely.
	StrategyServerWins Strategy = "server_wins"
	// StrategyClientWins keeps the client body unchanged; the server body
	// is discarded entirely.
	StrategyClientWins Strategy = "client_wins"
	// StrategyNewerWins keeps whichever body carries the later
	// last-modified timestamp, in full. No field-level mixing.
	StrategyNewerWins Strategy = "newer_wins"
	// StrategyMerge performs a shallow merge: client keys override server
	// keys at the top level, and two mappings at the same key are combined
	// one level deep. Arrays are always replaced wholesale.
	StrategyMerge Strategy = "merge"
)

// ErrUnknownStrategy is returned for strategy strings outside the closed set.
var ErrUnknownStrategy = errors.New("unknown sync strategy")

// ParseStrategy maps a wire strategy string onto the closed Strategy set.
// An empty string selects fallback. Unknown strings are rejected; earlier
// revisions of the protocol silently fell back to merge, which masked
// client typos, so that behavior was dropped deliberately.
func ParseStrategy(s string, fallback Strategy) (Strategy, error) {
	if s == "" {
		return fallback, nil
	}
	switch Strategy(s) {
	case StrategyServerWins, StrategyClientWins, StrategyNewerWins, StrategyMerge:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Resolution selects which side an import or explicit conflict resolution
// keeps once a conflict has been detected.
type Resolution string

const (
	ResolutionServer Resolution = "server"
	ResolutionClient Resolution = "client"
	ResolutionMerge  Resolution = "merge"
	ResolutionManual Resolution = "manual"
)

// ParseResolution validates a resolution string against the allowed set for
// the calling operation (imports accept server/client/merge, explicit
// conflict resolution accepts server/client/manual).
func ParseResolution(s string, fallback Resolution, allowed ...Resolution) (Resolution, error) {
	if s == "" {
		return fallback, nil
	}
	for _, a := range allowed {
		if Resolution(s) == a {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}
