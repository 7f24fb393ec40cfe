package instrumental

import (
	"strings"
	"testing"
)

func TestLikely(t *testing.T) {
	t.Parallel()

	cases := []struct {
		title  string
		artist string
		want   bool
	}{
		{"Toxic (Karaoke Version)", "Britney Spears", true},
		{"Clair de Lune", "Lofi Girl", true},
		{"Rainy Night Beats", "Chill Station", true},
		{"Study Music for Focus", "Various", true},
		{"Ambient Works Vol. 2", "Aphex Twin", true},
		{"Toxic", "Britney Spears", false},
		{"Bohemian Rhapsody", "Queen", false},
	}

	for _, tc := range cases {
		if got := Likely(tc.title, tc.artist); got != tc.want {
			t.Fatalf("Likely(%q, %q) = %v, want %v", tc.title, tc.artist, got, tc.want)
		}
	}
}

func TestMarkerCaseInsensitive(t *testing.T) {
	t.Parallel()

	if got := Marker("TOXIC (INSTRUMENTAL)", ""); got != "instrumental" {
		t.Fatalf("expected instrumental marker, got %q", got)
	}
	if got := Marker("Toxic", "Britney Spears"); got != "" {
		t.Fatalf("expected no marker, got %q", got)
	}
}

func TestBelowFloor(t *testing.T) {
	t.Parallel()

	short := "[Instrumental]"
	if !BelowFloor(short, 30) {
		t.Fatalf("expected %q below floor", short)
	}

	long := strings.Repeat("la ", 30)
	if BelowFloor(long, 30) {
		t.Fatalf("expected 30-word body to pass the floor")
	}

	if WordCount("one two  three\nfour") != 4 {
		t.Fatalf("unexpected word count")
	}
}
