package usecase

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	s := NewQuerySanitizer(nil)

	testCases := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "trims and collapses whitespace",
			query: "   no   more\tnails \n",
			want:  "no more nails",
		},
		{
			name:  "keeps sizes and product punctuation",
			query: "UniBond No More Nails 365ml",
			want:  "UniBond No More Nails 365ml",
		},
		{
			name:  "keeps ampersand and hyphen inside words",
			query: "B&Q Evo-Stik 1.5m tape",
			want:  "B&Q Evo-Stik 1.5m tape",
		},
		{
			name:  "strips quotes braces and angle brackets",
			query: `"wood screws" {4x40} <script>`,
			want:  "wood screws 4x40 script",
		},
		{
			name:  "drops orphaned punctuation",
			query: "sealant - & / clear",
			want:  "sealant clear",
		},
		{
			name:  "only special characters",
			query: "!!! ??? ###",
			want:  "",
		},
		{
			name:  "empty",
			query: "",
			want:  "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.Sanitize(tc.query)
			if got != tc.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tc.query, got, tc.want)
			}
		})
	}
}

func TestSanitize_LongInput(t *testing.T) {
	s := NewQuerySanitizer(nil)
	long := strings.Repeat("plasterboard ", 20)

	got := s.Sanitize(long)
	if len(got) > MaxQueryLength {
		t.Errorf("length = %d, want <= %d", len(got), MaxQueryLength)
	}
	if strings.HasSuffix(got, " ") || strings.HasSuffix(got, "plasterb") {
		t.Errorf("expected cut at word boundary, got %q", got)
	}
}

func TestTruncateAtWord_MultiByte(t *testing.T) {
	// 99 ASCII bytes then a two-byte rune straddling the cap
	in := strings.Repeat("a", 99) + "é" + "tail"

	got := truncateAtWord(in, MaxQueryLength)
	if got != strings.Repeat("a", 99) {
		t.Errorf("truncateAtWord split a rune: %q", got)
	}
}
