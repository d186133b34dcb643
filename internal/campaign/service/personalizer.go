package service

import (
	"regexp"
	"strings"
)

// placeholderPattern matches {{variable_name}} with optional inner whitespace.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

type templatePersonalizer struct{}

// NewPersonalizer creates a Personalizer using {{variable}} placeholder syntax.
func NewPersonalizer() Personalizer {
	return &templatePersonalizer{}
}

// Render replaces each {{name}} placeholder with its value from variables.
// Unknown placeholders stay literal so a missing variable never drops content.
func (p *templatePersonalizer) Render(template string, variables map[string]string) string {
	if template == "" || !strings.Contains(template, "{{") {
		return template
	}

	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if value, ok := variables[name]; ok {
			return value
		}
		return match
	})
}
