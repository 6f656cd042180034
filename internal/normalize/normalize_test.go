package normalize

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    string
	}{
		{
			name:    "simple address",
			address: "123 Main Street",
			want:    "123mainst",
		},
		{
			name:    "directional prefix stripped",
			address: "123 North Main Street",
			want:    "123mainst",
		},
		{
			name:    "single letter directional",
			address: "456 N Oak Avenue",
			want:    "456oakave",
		},
		{
			name:    "directional without house number",
			address: "West Peachtree Street",
			want:    "peachtreest",
		},
		{
			name:    "unit designator word removed, number kept",
			address: "123 Main St Suite 400",
			want:    "123mainst400",
		},
		{
			name:    "hash unit",
			address: "123 Main St #400",
			want:    "123mainst400",
		},
		{
			name:    "apartment",
			address: "789 Elm Drive Apt 12B",
			want:    "789elmdr12b",
		},
		{
			name:    "house number ordinal stripped",
			address: "1st Avenue",
			want:    "1ave",
		},
		{
			name:    "trailing floor indicator removed",
			address: "200 Commerce Boulevard 4th Floor",
			want:    "200commerceblvd",
		},
		{
			name:    "punctuation and casing",
			address: "  100  MAIN   st.,  ",
			want:    "100mainst",
		},
		{
			name:    "all synonyms",
			address: "1 Foo Road 2 Bar Lane 3 Baz Court 4 Qux Circle",
			want:    "1foord2barln3bazct4quxcir",
		},
		{
			name:    "parkway place square terrace trail",
			address: "9 Alpha Parkway Beta Place Gamma Square Delta Terrace Epsilon Trail",
			want:    "9alphapkwybetaplgammasqdeltaterepsilontrl",
		},
		{
			name:    "empty string",
			address: "",
			want:    "",
		},
		{
			name:    "whitespace only",
			address: "   ",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.address); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.address, got, tt.want)
			}
		})
	}
}

// Normalization must collapse formatting variants of the same street
// address to an identical key.
func TestNormalize_EquivalentForms(t *testing.T) {
	pairs := []struct {
		name string
		a    string
		b    string
	}{
		{
			name: "directional, synonym, and unit variance",
			a:    "123 North Main Street, Suite 400",
			b:    "123 Main St #400",
		},
		{
			name: "case and spacing variance",
			a:    "100 MAIN STREET",
			b:    "100 main st",
		},
		{
			name: "suite number only difference in designator",
			a:    "560 Oak Ridge Drive Unit 2",
			b:    "560 Oak Ridge Dr #2",
		},
	}

	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			na, nb := Normalize(tt.a), Normalize(tt.b)
			if na != nb {
				t.Errorf("Normalize(%q) = %q, Normalize(%q) = %q; want equal", tt.a, na, tt.b, nb)
			}
		})
	}
}

// Normalize(Normalize(s)) == Normalize(s) for all inputs.
func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"123 North Main Street, Suite 400",
		"1st Avenue",
		"456 N Oak Avenue Apt 3",
		"200 Commerce Boulevard 4th Floor",
		"100 Main St, Springfield, GA 30458",
		"w 42nd street",
		"",
		"   #   ",
		"South Street",
	}

	for _, s := range inputs {
		once := Normalize(s)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", s, once, twice)
		}
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"identical", "123 Main St", "123 Main St", 1.0},
		{"equal after normalization", "123 Main Street", "123 main st", 1.0},
		{"empty left", "", "123 Main St", 0},
		{"empty right", "123 Main St", "", 0},
		{"both empty", "", "", 0},
		{"completely different", "aaaa", "zzzz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("Similarity(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"123 Main St", "123 Maple St"},
		{"560 Oak Ridge Dr", "560 Oak Ridge Drive #2"},
		{"100 Main St", "200 Elm Ave"},
	}

	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if ab != ba {
			t.Errorf("Similarity(%q, %q) = %f but reversed = %f", p[0], p[1], ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Errorf("Similarity(%q, %q) = %f, outside [0,1]", p[0], p[1], ab)
		}
	}
}

func TestSimilarity_PartialOverlap(t *testing.T) {
	got := Similarity("123 Main St", "123 Maple St")
	if got <= 0 || got >= 1 {
		t.Errorf("expected partial similarity in (0,1), got %f", got)
	}
}
