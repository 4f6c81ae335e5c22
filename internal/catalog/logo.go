package catalog

import "strings"

const placeholderBase = "https://placehold.co/400x400?text="

// PlaceholderLogo builds a generated logo URL for channels without a
// configured one. Spaces become "+" so the text renders with word breaks.
func PlaceholderLogo(name string) string {
	return placeholderBase + strings.ReplaceAll(strings.TrimSpace(name), " ", "+")
}
