package llm

import (
	"regexp"
	"strings"
)

const fence = "```"

// opening fence with an optional info string, e.g. ```json
var reOpenFence = regexp.MustCompile("^```[A-Za-z0-9_+-]*[ \t]*\r?\n?")

// StripFence trims the reply and removes a code fence only where it wraps the whole reply:
// as the first and/or last non-whitespace token. Fence markers inside values are kept.
func StripFence(reply string) string {
	s := strings.TrimSpace(reply)
	if strings.HasPrefix(s, fence) {
		s = reOpenFence.ReplaceAllString(s, "")
	}
	if strings.HasSuffix(s, fence) {
		s = strings.TrimSuffix(s, fence)
	}
	return strings.TrimSpace(s)
}

// ArraySpan returns the outermost [ ... ] span of s, for replies that wrap the array in prose.
func ArraySpan(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
