package stringutil

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"lowercase", "HOLA", "hola"},
		{"accents", "Programación", "programacion"},
		{"tilde n", "Enseñar", "ensenar"},
		{"diaeresis", "Pingüino", "pinguino"},
		{"keeps punctuation", "¿Qué tal?", "¿que tal?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFullProcess(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"¿Cuánto cuesta?", "cuanto cuesta"},
		{"  hola,   mundo!! ", "hola mundo"},
		{"Semestre 3°", "semestre 3"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := FullProcess(tt.input); got != tt.want {
				t.Errorf("FullProcess(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	t.Parallel()
	got := Tokens("¿Qué materias llevan en Sistemas?")
	want := []string{"que", "materias", "llevan", "en", "sistemas"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens() = %v, want %v", got, want)
	}
	if got := Tokens("!!!"); len(got) != 0 {
		t.Errorf("Tokens(punctuation) = %v, want empty", got)
	}
}

func TestHasToken(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		words []string
		want  bool
	}{
		{"exact word", "Menu", []string{"menu"}, true},
		{"inside sentence", "quiero volver al menú", []string{"menu"}, true},
		{"substring only", "menudo", []string{"menu"}, false},
		{"no words", "hola", nil, false},
		{"accent on input", "Sí", []string{"si"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := HasToken(tt.input, tt.words...); got != tt.want {
				t.Errorf("HasToken(%q, %v) = %v, want %v", tt.input, tt.words, got, tt.want)
			}
		})
	}
}

func TestIsNumeric(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  bool
	}{
		{"", false},
		{"0", true},
		{"12", true},
		{"12a", false},
		{"-1", false},
		{"١", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := IsNumeric(tt.input); got != tt.want {
				t.Errorf("IsNumeric(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFirstNumber(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"3", 3, true},
		{"semestre 5", 5, true},
		{"el 3er semestre", 3, true},
		{"Tercero", 3, true},
		{"quiero ver el séptimo", 7, true},
		{"cinco por favor", 5, true},
		{"todas", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, ok := FirstNumber(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("FirstNumber(%q) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
