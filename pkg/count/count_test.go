package count

import "testing"

// --- Parse Tests ---

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"thousands separator", "1,234", 1234},
		{"kilo with fraction", "1.5K", 1500},
		{"mega", "2M", 2_000_000},
		{"giga with fraction", "3.2B", 3_200_000_000},
		{"empty", "", 0},
		{"suffix only", "K", 0},
		{"lowercase suffix", "4.7k", 4700},
		{"space before suffix", "12 K", 12_000},
		{"fraction truncated", "2.3K", 2300},
		{"fraction without suffix", "7.9", 7},
		{"leading text", "Likes: 56", 56},
		{"word after number", "3 Mentions", 3},
		{"trailing label", "1,024 Followers", 1024},
		{"leading dot", ".5K", 500},
		{"whitespace", "  42  ", 42},
		{"no digits", "Follow", 0},
		{"second dot ends run", "1.2.3", 1},
		{"large separators", "12,345,678", 12_345_678},
		{"overflow", "99999999999999999999", 0},
		{"suffix overflow", "9999999999999B", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.in); got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

// --- ParseStrict Tests ---

func TestParseStrict_DistinguishesZeroFromMissing(t *testing.T) {
	n, ok := ParseStrict("0")
	if !ok || n != 0 {
		t.Errorf("ParseStrict(\"0\") = %d, %v; want 0, true", n, ok)
	}

	n, ok = ParseStrict("Repost")
	if ok {
		t.Errorf("ParseStrict(\"Repost\") = %d, %v; want not ok", n, ok)
	}
}

func TestParseStrict_Overflow(t *testing.T) {
	if _, ok := ParseStrict("99999999999999999999"); ok {
		t.Error("expected overflow to be reported as not ok")
	}
}
