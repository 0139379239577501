package http

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const maxTextLength = 500

// sanitizeInput trims whitespace, drops control characters other than tab
// and newline, and caps the length.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		if r == utf8.RuneError {
			return -1
		}
		return r
	}, s)
	if utf8.RuneCountInString(s) > maxTextLength {
		s = string([]rune(s)[:maxTextLength])
	}
	return s
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
