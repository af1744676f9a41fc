package utils

import "strings"

// ParseTags splits a comma-delimited tag string into trimmed entries,
// dropping empty ones. Duplicates are kept as entered and order is preserved.
func ParseTags(s string) []string {
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// JoinTags renders a tag list back into the form's comma-delimited format.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
