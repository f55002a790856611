// Package render substitutes {{key}} placeholders in template text.
package render

import "regexp"

var placeholderRe = regexp.MustCompile(`\{\{([A-Za-z0-9_.\-]+)\}\}`)

// Render replaces every {{key}} in text with data[key]. Keys are case-sensitive.
// Placeholders without a matching key are left verbatim.
func Render(text string, data map[string]string) string {
	if len(data) == 0 {
		return text
	}
	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		key := match[2 : len(match)-2]
		if v, ok := data[key]; ok {
			return v
		}
		return match
	})
}

// Unresolved lists the distinct placeholder keys in text that data does not provide, in order of appearance.
func Unresolved(text string, data map[string]string) []string {
	var missing []string
	seen := make(map[string]struct{})
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		key := m[1]
		if _, ok := data[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		missing = append(missing, key)
	}
	return missing
}
