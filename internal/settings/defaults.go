package settings

// Defaults returns the preference tree a user starts from before their
// first save. Returned fresh on every call so callers may mutate it.
func Defaults() map[string]any {
	return map[string]any{
		"theme":    "auto",
		"language": "en",
		"tts": map[string]any{
			"rate":     1.0,
			"pitch":    1.0,
			"volume":   80.0,
			"autoRead": false,
		},
		"voiceControl": map[string]any{
			"enabled": false,
		},
		"filters": map[string]any{
			"defaultFilter": "normal",
			"intensity":     1.0,
		},
		"performance": map[string]any{
			"lazyLoading":      true,
			"reduceAnimations": false,
		},
		"privacy": map[string]any{
			"analytics": false,
		},
	}
}
