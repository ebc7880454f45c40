package arabic

import "testing"

func TestNormalizeStripsDiacritics(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"basmala word", "بِسْمِ", "بسم"},
		{"shadda and fatha", "اللَّهُ", "الله"},
		{"tanwin", "كِتَابًا", "كتابا"},
		{"superscript alef", "إِلَٰهَ", "إله"},
		{"bare text unchanged", "بسم", "بسم"},
		{"empty", "", ""},
		{"whitespace only", "  \t ", ""},
		{"latin text trimmed", "  In the name of Allah ", "In the name of Allah"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"بِسْمِ اللَّهِ الرَّحْمَٰنِ الرَّحِيمِ",
		"اللَّهُ لَا إِلَٰهَ إِلَّا هُوَ",
		"plain english",
		"",
		"مزيج mixed نص",
	}
	for _, s := range inputs {
		once := Normalize(s)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", s, once, twice)
		}
	}
}

func TestNormalizeMatchesBareForm(t *testing.T) {
	// A vocalized word and its bare spelling must normalize identically.
	if Normalize("بِسْمِ") != Normalize("بسم") {
		t.Errorf("vocalized and bare forms differ: %q vs %q", Normalize("بِسْمِ"), Normalize("بسم"))
	}
}
