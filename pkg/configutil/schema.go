package configutil

import (
	"fmt"
	"sort"
	"strings"
)

// Schema bounds a free-form settings map: required keys must carry a value,
// and anything outside required+optional is rejected unless AllowUnknown is
// set. Key matching is case/underscore/hyphen insensitive, same as decoding.
type Schema struct {
	Required     []string
	Optional     []string
	AllowUnknown bool
}

// ValidateSettings checks input against the schema before it is decoded, so
// a typoed key surfaces as a config error instead of a silently ignored
// setting.
func ValidateSettings(input map[string]any, schema Schema) error {
	required := make(map[string]string, len(schema.Required))
	allowed := make(map[string]struct{}, len(schema.Required)+len(schema.Optional))
	for _, k := range schema.Required {
		nk := normalizeKey(k)
		required[nk] = k
		allowed[nk] = struct{}{}
	}
	for _, k := range schema.Optional {
		allowed[normalizeKey(k)] = struct{}{}
	}

	var missing, unknown []string
	for k, v := range input {
		nk := normalizeKey(k)
		if _, ok := allowed[nk]; !ok && !schema.AllowUnknown {
			unknown = append(unknown, k)
		}
		if name, ok := required[nk]; ok {
			if blankValue(v) {
				missing = append(missing, name)
			}
			delete(required, nk)
		}
	}
	for _, name := range required {
		missing = append(missing, name)
	}
	if len(missing) == 0 && len(unknown) == 0 {
		return nil
	}

	sort.Strings(missing)
	sort.Strings(unknown)
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required setting(s) "+strings.Join(missing, ", "))
	}
	if len(unknown) > 0 {
		parts = append(parts, "unknown setting(s) "+strings.Join(unknown, ", "))
	}
	return fmt.Errorf("%s", strings.Join(parts, "; "))
}

// blankValue reports whether a present key still counts as missing. Only
// strings have a meaningful blank form; any other present value satisfies a
// required key.
func blankValue(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
