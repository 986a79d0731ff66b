package domain

import (
	"strings"
	"unicode"
)

// Placeholder tokens recognised by RenderMessage. These are fixed: templates
// are literal text with at most these two substitutions, no conditionals and
// no escaping.
const (
	PlaceholderName  = "{NAME}"
	PlaceholderGroup = "{GROUP}"
)

// Fallbacks used when a contact's metadata is blank.
const (
	fallbackName  = "there"
	fallbackGroup = "your group"
)

// DefaultTemplate is used when the caller does not supply one.
const DefaultTemplate = `Hi {NAME}! How are you?
We're reaching out on behalf of {GROUP}. We'd love to set up a quick chat to introduce ourselves.`

// RenderMessage substitutes the placeholder tokens: {NAME} becomes the first
// word of displayName capitalized, {GROUP} becomes groupLabel verbatim. The
// result never contains unresolved placeholder syntax for these tokens.
func RenderMessage(template, displayName, groupLabel string) string {
	name := fallbackName
	if fields := strings.Fields(displayName); len(fields) > 0 {
		name = capitalize(fields[0])
	}

	group := groupLabel
	if strings.TrimSpace(group) == "" {
		group = fallbackGroup
	}

	rendered := strings.ReplaceAll(template, PlaceholderName, name)
	return strings.ReplaceAll(rendered, PlaceholderGroup, group)
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(word string) string {
	runes := []rune(strings.ToLower(word))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
