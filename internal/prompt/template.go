// Package prompt renders the deliberation prompts from embedded templates.
// Templates use {{name}} placeholders with plain string substitution.
// Placeholders with no binding are deleted from the output rather than left
// verbatim; this is documented behavior callers rely on, not an accident.
package prompt

import "regexp"

var placeholderRe = regexp.MustCompile(`\{\{([a-zA-Z0-9_]+)\}\}`)

// Template is an immutable prompt template.
type Template struct {
	name string
	text string
}

// NewTemplate creates a template from raw text.
func NewTemplate(name, text string) Template {
	return Template{name: name, text: text}
}

// Name returns the template name.
func (t Template) Name() string {
	return t.name
}

// Placeholders returns the distinct placeholder names in order of first
// appearance.
func (t Template) Placeholders() []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(t.text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Render substitutes vars into the template. Pure: no side effects, the
// same inputs always produce the same output. Unresolved placeholders are
// replaced with the empty string.
func (t Template) Render(vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(t.text, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		return vars[name] // missing keys yield "", deleting the placeholder
	})
}
