package engine

import "testing"

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases", input: "VIR SALAIRES", want: "vir salaires"},
		{name: "collapses whitespace", input: "  VIR   SALAIRES  JANVIER ", want: "vir salaires janvier"},
		{name: "empty", input: "", want: ""},
		{name: "tabs and newlines", input: "loyer\tjanvier\n2026", want: "loyer janvier 2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDescription(tt.input); got != tt.want {
				t.Errorf("NormalizeDescription(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDescriptionSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical", a: "vir salaires janvier", b: "vir salaires janvier", want: 1},
		{name: "case insensitive", a: "VIR SALAIRES", b: "vir salaires", want: 1},
		{name: "no overlap", a: "loyer bureau", b: "edf facture", want: 0},
		{name: "empty side", a: "", b: "vir salaires", want: 0},
		{name: "single word equal", a: "loyer", b: "loyer", want: 1},
		{name: "single word different", a: "loyer", b: "edf", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DescriptionSimilarity(tt.a, tt.b); got != tt.want {
				t.Errorf("DescriptionSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDescriptionSimilarityPartial(t *testing.T) {
	// "vir salaires janvier" and "vir salaires fevrier" share one of two
	// bigrams on each side: 2*1/(2+2) = 0.5.
	got := DescriptionSimilarity("vir salaires janvier", "vir salaires fevrier")
	if got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}

	// Longer shared prefix pushes the score above the cache-tier threshold.
	got = DescriptionSimilarity("vir salaires mensuels janvier", "vir salaires mensuels fevrier")
	if got <= 0.5 {
		t.Errorf("expected a higher score for a longer shared prefix, got %v", got)
	}
}
