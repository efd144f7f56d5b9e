package models

import (
	"strings"
)

// NormalizeID extracts a Notion object id from a dashed or undashed UUID or a
// page URL and returns it in dashed form. Input without a recognizable id is
// returned trimmed.
func NormalizeID(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}

	hex := make([]byte, 0, 32)
	for i := len(s) - 1; i >= 0 && len(hex) < 32; i-- {
		c := s[i]
		switch {
		case isHex(c):
			hex = append(hex, lower(c))
		case c == '-':
		default:
			return s
		}
	}
	if len(hex) != 32 {
		return s
	}
	for i, j := 0, len(hex)-1; i < j; i, j = i+1, j-1 {
		hex[i], hex[j] = hex[j], hex[i]
	}
	h := string(hex)
	return h[0:8] + "-" + h[8:12] + "-" + h[12:16] + "-" + h[16:20] + "-" + h[20:32]
}

// PageURL returns the public notion.so URL of a page id.
func PageURL(id string) string {
	return "https://www.notion.so/" + strings.ReplaceAll(id, "-", "")
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'F' {
		return c + ('a' - 'A')
	}
	return c
}
