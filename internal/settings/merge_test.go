package settings

import (
	"testing"

	"github.com/accessly/prefsync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeShallow_CombinesNestedSections(t *testing.T) {
	server := map[string]any{"theme": "dark", "tts": map[string]any{"rate": 1.0}}
	client := map[string]any{"theme": "light", "tts": map[string]any{"pitch": 1.2}}

	merged := MergeShallow(server, client)

	expected := map[string]any{
		"theme": "light",
		"tts":   map[string]any{"rate": 1.0, "pitch": 1.2},
	}
	assert.Equal(t, expected, merged)
}

func TestMergeShallow_SelfMergeIsNoop(t *testing.T) {
	body := map[string]any{
		"theme": "dark",
		"tts":   map[string]any{"rate": 1.5, "pitch": 0.9},
		"tags":  []any{"a", "b"},
	}

	merged := MergeShallow(body, body)

	assert.Equal(t, body, merged)
}

func TestMergeShallow_ArraysReplacedWholesale(t *testing.T) {
	server := map[string]any{"shortcuts": []any{"ctrl+a", "ctrl+b"}}
	client := map[string]any{"shortcuts": []any{"ctrl+c"}}

	merged := MergeShallow(server, client)

	assert.Equal(t, []any{"ctrl+c"}, merged["shortcuts"])
}

func TestMergeShallow_DoesNotRecursePastSecondLevel(t *testing.T) {
	// At the second level client values replace server values outright,
	// even when both are mappings.
	server := map[string]any{"extension": map[string]any{"sites": map[string]any{"a": true, "b": true}}}
	client := map[string]any{"extension": map[string]any{"sites": map[string]any{"c": true}}}

	merged := MergeShallow(server, client)

	ext := merged["extension"].(map[string]any)
	assert.Equal(t, map[string]any{"c": true}, ext["sites"])
}

func TestMergeShallow_DoesNotMutateInputs(t *testing.T) {
	server := map[string]any{"tts": map[string]any{"rate": 1.0}}
	client := map[string]any{"tts": map[string]any{"pitch": 1.2}}

	merged := MergeShallow(server, client)
	merged["tts"].(map[string]any)["rate"] = 2.0

	assert.Equal(t, 1.0, server["tts"].(map[string]any)["rate"])
	assert.NotContains(t, server["tts"].(map[string]any), "pitch")
	assert.NotContains(t, client["tts"].(map[string]any), "rate")
}

func TestResolve_ServerWinsDiscardsClientEntirely(t *testing.T) {
	server := map[string]any{"theme": "dark"}
	client := map[string]any{"theme": "light", "language": "fr"}

	result := Resolve(server, client, models.DocumentMetadata{}, models.ClientMetadata{}, StrategyServerWins)

	assert.Equal(t, server, result)
	assert.NotContains(t, result, "language")
}

func TestResolve_ClientWinsDiscardsServerEntirely(t *testing.T) {
	server := map[string]any{"theme": "dark", "language": "de"}
	client := map[string]any{"theme": "light"}

	result := Resolve(server, client, models.DocumentMetadata{}, models.ClientMetadata{}, StrategyClientWins)

	assert.Equal(t, client, result)
	assert.NotContains(t, result, "language")
}

func TestResolve_NewerWins(t *testing.T) {
	server := map[string]any{"theme": "dark"}
	client := map[string]any{"theme": "light"}

	newerClient := Resolve(server, client,
		models.DocumentMetadata{LastModified: 100},
		models.ClientMetadata{LastModified: 200},
		StrategyNewerWins)
	assert.Equal(t, client, newerClient)

	newerServer := Resolve(server, client,
		models.DocumentMetadata{LastModified: 300},
		models.ClientMetadata{LastModified: 200},
		StrategyNewerWins)
	assert.Equal(t, server, newerServer)

	// Ties keep the server body.
	tie := Resolve(server, client,
		models.DocumentMetadata{LastModified: 200},
		models.ClientMetadata{LastModified: 200},
		StrategyNewerWins)
	assert.Equal(t, server, tie)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("client_wins", StrategyServerWins)
	require.NoError(t, err)
	assert.Equal(t, StrategyClientWins, s)

	s, err = ParseStrategy("", StrategyServerWins)
	require.NoError(t, err)
	assert.Equal(t, StrategyServerWins, s)

	_, err = ParseStrategy("mereg", StrategyServerWins)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestParseResolution(t *testing.T) {
	r, err := ParseResolution("merge", ResolutionServer,
		ResolutionServer, ResolutionClient, ResolutionMerge)
	require.NoError(t, err)
	assert.Equal(t, ResolutionMerge, r)

	r, err = ParseResolution("", ResolutionServer,
		ResolutionServer, ResolutionClient, ResolutionManual)
	require.NoError(t, err)
	assert.Equal(t, ResolutionServer, r)

	// merge is not in the resolve_conflict set
	_, err = ParseResolution("merge", ResolutionServer,
		ResolutionServer, ResolutionClient, ResolutionManual)
	require.Error(t, err)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(nil, map[string]any{}))
	assert.True(t, Equal(
		map[string]any{"tts": map[string]any{"rate": 1.0}},
		map[string]any{"tts": map[string]any{"rate": 1.0}},
	))
	assert.False(t, Equal(
		map[string]any{"theme": "dark"},
		map[string]any{"theme": "light"},
	))
}
