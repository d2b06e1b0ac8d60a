package domain

import "strings"

// AccountSeparator separates the segments of a hierarchical account path.
const AccountSeparator = ":"

// ValidAccountPath reports whether path is a well formed account path such as
// "Assets:Cash" or "Expenses:Travel:Taxi".
func ValidAccountPath(path string) bool {
	if path == "" || strings.TrimSpace(path) != path {
		return false
	}

	for _, segment := range strings.Split(path, AccountSeparator) {
		if segment == "" || strings.TrimSpace(segment) != segment {
			return false
		}
	}

	return true
}
