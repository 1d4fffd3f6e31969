package prompt

import "regexp"

// argumentRegex matches {argument name="..." default="..."}. Directives
// without a default, or with an empty one, are not matched.
var argumentRegex = regexp.MustCompile(`\{argument\s+name="[^"]+"\s+default="([^"]+)"\}`)

// Normalize replaces every placeholder directive in raw with its default value.
func Normalize(raw string) string {
	return argumentRegex.ReplaceAllString(raw, "${1}")
}
