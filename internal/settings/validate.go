package settings

import "strconv"

type fieldKind int

const (
	kindEnum fieldKind = iota
	kindBool
	kindInt
	kindFloat
	kindString
	kindSection
)

type fieldSpec struct {
	kind   fieldKind
	enum   []string
	fields map[string]fieldSpec
}

func enumOf(values ...string) fieldSpec { return fieldSpec{kind: kindEnum, enum: values} }

func section(fields map[string]fieldSpec) fieldSpec {
	return fieldSpec{kind: kindSection, fields: fields}
}

var colorFilters = []string{
	"normal", "invert", "grayscale", "high-contrast", "high-contrast-black",
	"high-contrast-white", "sepia", "dark-mode", "blue-light", "none",
}

// schema is the allowed-preferences tree. Top-level keys outside it are
// dropped on validation. The flat keys (theme, tts_speed, ...) are the
// legacy form older clients still send; the section keys carry the nested
// preference tree the current clients sync.
var schema = map[string]fieldSpec{
	"theme":                 enumOf("dark", "light", "auto", "high-contrast"),
	"language":              enumOf("en", "es", "fr", "de", "zh", "ar"),
	"color_filter":          enumOf(colorFilters...),
	"tts_speed":             {kind: kindFloat},
	"tts_pitch":             {kind: kindFloat},
	"tts_volume":            {kind: kindInt},
	"auto_read":             {kind: kindBool},
	"voice_control_enabled": {kind: kindBool},
	"offline_mode":          {kind: kindBool},
	"lazy_loading":          {kind: kindBool},
	"reduce_animations":     {kind: kindBool},
	"tts": section(map[string]fieldSpec{
		"rate":     {kind: kindFloat},
		"pitch":    {kind: kindFloat},
		"volume":   {kind: kindInt},
		"autoRead": {kind: kindBool},
		"voice":    {kind: kindString},
	}),
	"voiceControl": section(map[string]fieldSpec{
		"enabled":     {kind: kindBool},
		"language":    {kind: kindString},
		"sensitivity": {kind: kindFloat},
	}),
	"filters": section(map[string]fieldSpec{
		"defaultFilter": enumOf(colorFilters...),
		"intensity":     {kind: kindFloat},
	}),
	"performance": section(map[string]fieldSpec{
		"lazyLoading":      {kind: kindBool},
		"reduceAnimations": {kind: kindBool},
		"cacheEnabled":     {kind: kindBool},
	}),
	"privacy": section(map[string]fieldSpec{
		"analytics":  {kind: kindBool},
		"shareUsage": {kind: kindBool},
	}),
	"extension": section(map[string]fieldSpec{
		"enabled":      {kind: kindBool},
		"syncInterval": {kind: kindInt},
	}),
	"shortcuts": section(nil),
}

const maxStringValueLen = 100

// Validate filters a body against the allowed-preferences schema. Unknown
// top-level keys are dropped, typed fields are coerced, enum fields outside
// their allowed set are dropped. Section values that are not mappings are
// dropped; inside a section, known fields are coerced and unknown ones kept
// verbatim so client-specific keys (custom shortcuts and the like) survive
// a round trip. The input is never mutated.
func Validate(body map[string]any) map[string]any {
	filtered := make(map[string]any, len(body))
	for key, value := range body {
		spec, ok := schema[key]
		if !ok {
			continue
		}
		if v, ok := validateField(spec, value); ok {
			filtered[key] = v
		}
	}
	return filtered
}

func validateField(spec fieldSpec, value any) (any, bool) {
	switch spec.kind {
	case kindEnum:
		s, ok := value.(string)
		if !ok {
			return nil, false
		}
		for _, allowed := range spec.enum {
			if s == allowed {
				return s, true
			}
		}
		return nil, false
	case kindBool:
		if b, ok := coerceBool(value); ok {
			return b, true
		}
		return nil, false
	case kindInt:
		if i, ok := coerceInt(value); ok {
			return i, true
		}
		return nil, false
	case kindFloat:
		if f, ok := coerceFloat(value); ok {
			return f, true
		}
		return nil, false
	case kindString:
		s, ok := value.(string)
		if !ok || len(s) > maxStringValueLen {
			return nil, false
		}
		return s, true
	case kindSection:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		out := make(map[string]any, len(m))
		for k, v := range m {
			inner, known := spec.fields[k]
			if !known {
				out[k] = cloneValue(v)
				continue
			}
			if cv, ok := validateField(inner, v); ok {
				out[k] = cv
			}
		}
		return out, true
	}
	return nil, false
}

// Coercions are deliberately tolerant: clients have historically sent
// numbers as strings and booleans as 0/1, and those payloads must keep
// importing.

func coerceFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// coerceInt truncates to a whole number but keeps the float64
// representation JSON decoding produces, so a validated body compares
// equal to itself after a storage round trip.
func coerceInt(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return float64(int64(v)), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		return float64(i), err == nil
	}
	return 0, false
}

func coerceBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case float64:
		return v != 0, true
	case int:
		return v != 0, true
	case string:
		switch v {
		case "true", "1":
			return true, true
		case "false", "0", "":
			return false, true
		}
	}
	return false, false
}
