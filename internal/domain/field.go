package domain

import (
	"regexp"
	"strings"
)

var fieldSegmentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsFieldPath reports whether path is a dotted sequence of identifiers,
// e.g. customer.email.
func IsFieldPath(path string) bool {
	for _, seg := range strings.Split(path, ".") {
		if !fieldSegmentRe.MatchString(seg) {
			return false
		}
	}
	return true
}
