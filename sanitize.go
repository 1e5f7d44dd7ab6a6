package transbasket

import (
	"regexp"
	"strings"
	"unicode"
)

// emojiRanges covers the Unicode blocks removed from request and
// response text before hashing and caching.
var emojiRanges = &unicode.RangeTable{
	R32: []unicode.Range32{
		{Lo: 0x1F1E6, Hi: 0x1F1FF, Stride: 1}, // regional indicators (flags)
		{Lo: 0x1F300, Hi: 0x1F5FF, Stride: 1}, // symbols & pictographs
		{Lo: 0x1F600, Hi: 0x1F64F, Stride: 1}, // emoticons
		{Lo: 0x1F680, Hi: 0x1F6FF, Stride: 1}, // transport & map
		{Lo: 0x1F700, Hi: 0x1F77F, Stride: 1}, // alchemical
		{Lo: 0x1F780, Hi: 0x1F7FF, Stride: 1}, // geometric shapes extended
		{Lo: 0x1F800, Hi: 0x1F8FF, Stride: 1}, // supplemental arrows
		{Lo: 0x1F900, Hi: 0x1F9FF, Stride: 1}, // supplemental symbols
		{Lo: 0x1FA00, Hi: 0x1FAFF, Stride: 1}, // extended pictographs
	},
	R16: []unicode.Range16{
		{Lo: 0x200D, Hi: 0x200D, Stride: 1}, // zero-width joiner
		{Lo: 0x2600, Hi: 0x26FF, Stride: 1}, // miscellaneous symbols
		{Lo: 0x2700, Hi: 0x27BF, Stride: 1}, // dingbats
		{Lo: 0xFE00, Hi: 0xFE0F, Stride: 1}, // variation selectors
	},
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func isEmoji(r rune) bool {
	return unicode.Is(emojiRanges, r)
}

func isShortcodeRune(r rune) bool {
	return r == '_' || r == '-' || r == '+' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// StripANSI removes ANSI escape sequences from s.
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// CleanText strips emoji and ":shortcode:" runs from s, removes ANSI
// escape sequences, collapses whitespace runs to single spaces and trims.
// The result is the canonical form that gets hashed and cached.
func CleanText(s string) string {
	s = StripANSI(s)

	var b strings.Builder
	b.Grow(len(s))

	runes := []rune(s)
	lastWasSpace := true // trims leading whitespace

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		// Candidate shortcode: ":name:" with only shortcode runes between.
		if r == ':' {
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == ':' {
					if j > i+1 {
						end = j
					}
					break
				}
				if !isShortcodeRune(runes[j]) {
					break
				}
			}
			if end > 0 {
				i = end
				continue
			}
		}

		if isEmoji(r) {
			continue
		}

		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteByte(' ')
				lastWasSpace = true
			}
			continue
		}

		b.WriteRune(r)
		lastWasSpace = false
	}

	return strings.TrimRight(b.String(), " ")
}

// Unescape converts literal two-character escape sequences that chat
// models sometimes emit (\\n, \\t, \\r, \\\\, \\", \\') into their
// single-character forms.
func Unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case '\'':
			b.WriteByte('\'')
		default:
			b.WriteByte(s[i])
			continue
		}
		i++
	}

	return b.String()
}

// CleanTranslation normalizes model output: unescapes literal escape
// sequences, then applies CleanText.
func CleanTranslation(s string) string {
	return CleanText(Unescape(s))
}

// Truncate shortens s to at most max runes, appending suffix when the
// text was cut. Used for display in log lines and cache listings.
func Truncate(s string, max int, suffix string) string {
	if suffix == "" {
		suffix = "..."
	}

	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= len([]rune(suffix)) {
		return string([]rune(suffix)[:max])
	}

	return string(runes[:max-len([]rune(suffix))]) + suffix
}
