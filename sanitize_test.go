package transbasket

import "testing"

func TestCleanText_Emoji(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello 😀 World", "Hello World"},
		{"🚀launch", "launch"},
		{"no emoji here", "no emoji here"},
		{"☀️ sunny", "sunny"}, // base symbol + variation selector
	}

	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanText_Shortcodes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"nice :smile: day", "nice day"},
		{":thumbs_up:", ""},
		{"ratio 1:2 stays", "ratio 1:2 stays"}, // digits qualify, but no closing colon
		{"a : b", "a : b"},                     // lone colon is kept
		{"time 10:30:45", "time 1045"},         // ":30:" parses as a shortcode
	}

	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanText_Whitespace(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  leading", "leading"},
		{"trailing  ", "trailing"},
		{"a\tb\nc", "a b c"},
		{"a    b", "a b"},
	}

	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripANSI(t *testing.T) {
	in := "\x1b[31mred\x1b[0m plain"
	if got := StripANSI(in); got != "red plain" {
		t.Errorf("StripANSI(%q) = %q, want %q", in, got, "red plain")
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`line1\nline2`, "line1\nline2"},
		{`tab\there`, "tab\there"},
		{`back\\slash`, `back\slash`},
		{`quote\"d`, `quote"d`},
		{`plain`, "plain"},
		{`trailing\`, `trailing\`},
		{`\x unknown`, `\x unknown`},
	}

	for _, tt := range tests {
		if got := Unescape(tt.in); got != tt.want {
			t.Errorf("Unescape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanTranslation(t *testing.T) {
	in := `Hello\nWorld 😀`
	want := "Hello World"
	if got := CleanTranslation(in); got != want {
		t.Errorf("CleanTranslation(%q) = %q, want %q", in, got, want)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten chars!", 10, "exactly..."},
		{"안녕하세요 세계", 6, "안녕하..."},
	}

	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max, "..."); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
