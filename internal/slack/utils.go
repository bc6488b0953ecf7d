package slack

import (
	"strings"
)

// ParseAppMentionText strips the leading "<@BOTID>" mention and returns the rest.
// With an empty botID any leading user mention is stripped.
//
// For example, given text "<@B123> hello world" and botID "B123",
// it returns "hello world".
func ParseAppMentionText(text, botID string) string {
	trimmed := strings.TrimSpace(text)
	if botID != "" {
		prefix := "<@" + botID + ">"
		if strings.HasPrefix(trimmed, prefix) {
			return strings.TrimSpace(trimmed[len(prefix):])
		}
		return trimmed
	}
	if strings.HasPrefix(trimmed, "<@") {
		if end := strings.Index(trimmed, ">"); end > 0 {
			return strings.TrimSpace(trimmed[end+1:])
		}
	}
	return trimmed
}

// searchQuery reports whether text is a "search <query>" command and returns the query.
func searchQuery(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "search") {
		return "", false
	}
	return strings.Join(fields[1:], " "), true
}
