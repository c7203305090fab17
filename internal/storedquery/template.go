package storedquery

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	gwerrors "github.com/ontogate/ontogate/internal/errors"
)

var placeholder = regexp.MustCompile(`%\(([A-Za-z_][A-Za-z0-9_]*)\)s`)

// Placeholders returns the distinct %(name)s placeholders of a template,
// sorted
func Placeholders(template string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names
}

// Render substitutes every %(name)s with the first value of name in values.
// All missing placeholders are reported in one InvalidParam error.
func Render(template string, values url.Values) (string, error) {
	var missing []string
	for _, name := range Placeholders(template) {
		if !values.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", gwerrors.InvalidParam(strings.Join(missing, ","), "missing value for stored query placeholder")
	}

	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		return values.Get(name)
	}), nil
}
