package normalize

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNoJSONArray is returned when text holds no balanced, valid JSON array
var ErrNoJSONArray = errors.New("no JSON array found")

// ExtractJSONArray returns the first balanced, valid JSON array embedded in text.
// Prose and markdown code fences around the array are ignored.
func ExtractJSONArray(text string) (string, error) {
	for start := strings.IndexByte(text, '['); start >= 0; {
		if end := matchBracket(text, start); end > 0 {
			candidate := text[start : end+1]
			if gjson.Valid(candidate) {
				return candidate, nil
			}
		}

		next := strings.IndexByte(text[start+1:], '[')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", ErrNoJSONArray
}

// matchBracket returns the index of the ']' closing text[start], or -1
func matchBracket(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				if c == ']' {
					return i
				}
				return -1
			}
		}
	}
	return -1
}
