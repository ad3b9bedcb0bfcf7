package usecase

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// MaxQueryLength caps what is forwarded to upstream search APIs
const MaxQueryLength = 100

// Compiled regex patterns for query sanitizing
var (
	// Characters that break retailer search URLs or model prompts.
	// Letters, digits, spaces and the punctuation common in product names survive.
	unsafeQueryChars = regexp.MustCompile(`[^\p{L}\p{N}\s&\-./'+%]`)

	// Lone punctuation left behind once unsafe characters are gone
	orphanedPunctuation = regexp.MustCompile(`(^|\s)[&\-./'+%]+(\s|$)`)

	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// QuerySanitizer cleans free-text supplier queries before they reach adapters
type QuerySanitizer struct {
	logger *zap.Logger
}

// NewQuerySanitizer creates a sanitizer; a nil logger disables debug output
func NewQuerySanitizer(logger *zap.Logger) *QuerySanitizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuerySanitizer{logger: logger}
}

// Sanitize trims the query, drops unsafe characters, collapses whitespace and
// caps the length at a word boundary. An empty return means nothing usable.
func (s *QuerySanitizer) Sanitize(query string) string {
	if query == "" {
		return ""
	}
	original := query

	cleaned := unsafeQueryChars.ReplaceAllString(query, " ")
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	// twice: adjacent orphans share a separating space
	cleaned = orphanedPunctuation.ReplaceAllString(cleaned, " ")
	cleaned = orphanedPunctuation.ReplaceAllString(cleaned, " ")
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) > MaxQueryLength {
		cleaned = truncateAtWord(cleaned, MaxQueryLength)
	}

	if cleaned != original {
		s.logger.Debug("query sanitized", zap.String("input", original), zap.String("output", cleaned))
	}
	return cleaned
}

// truncateAtWord cuts s to at most max bytes, preferring a word boundary in
// the back half and never splitting a UTF-8 sequence
func truncateAtWord(s string, max int) string {
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	s = s[:cut]
	if lastSpace := strings.LastIndex(s, " "); lastSpace > max/2 {
		s = s[:lastSpace]
	}
	return strings.TrimSpace(s)
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
