package utils

import "strings"

func TruncateString(str string, borderSizeToKeep int) string {
	if len(str) <= 2*borderSizeToKeep {
		return str
	}
	return str[:borderSizeToKeep] + "..." + str[len(str)-borderSizeToKeep:]
}

// TrimAndLower trims the surrounding whitespace and lowercases s.
func TrimAndLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// StringPtr returns a pointer to a string
func StringPtr(s string) *string {
	return &s
}

// NilIfEmpty returns nil for blank strings and a pointer to the trimmed value otherwise.
func NilIfEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ValueOrEmpty dereferences sp, returning "" for nil.
func ValueOrEmpty(sp *string) string {
	if sp == nil {
		return ""
	}
	return *sp
}
