package cellmodel

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		raw  string
		kind Kind
	}{
		{"", KindEmpty},
		{"   ", KindEmpty},
		{"42", KindNumber},
		{"-3.5", KindNumber},
		{"1e3", KindNumber},
		{"hello", KindText},
		{"TRUE", KindBoolean},
		{"false", KindBoolean},
		{"=A1+1", KindFormula},
	}
	for _, c := range cases {
		got := Classify(c.raw)
		if got.Kind != c.kind {
			t.Errorf("Classify(%q).Kind = %v, want %v", c.raw, got.Kind, c.kind)
		}
	}
}

func TestClassifyRejectsInfAndNaN(t *testing.T) {
	for _, raw := range []string{"Inf", "-Inf", "NaN", "inf"} {
		got := Classify(raw)
		if got.Kind != KindText {
			t.Errorf("Classify(%q) = %+v, want Text (not a numeric literal)", raw, got)
		}
	}
}

func TestNewCellInvariant(t *testing.T) {
	c := NewCell("=A1+1")
	if c.Value.Kind != KindFormula {
		t.Fatalf("Value.Kind = %v, want KindFormula", c.Value.Kind)
	}
	if c.RawInput != "=A1+1" {
		t.Fatalf("RawInput = %q, want =A1+1", c.RawInput)
	}
}

func TestErrorGlyphs(t *testing.T) {
	cases := map[ErrorKind]string{
		ErrDivZero: "#DIV/0!",
		ErrValue:   "#VALUE!",
		ErrRef:     "#REF!",
		ErrName:    "#NAME?",
		ErrNum:     "#NUM!",
		ErrNA:      "#N/A",
		ErrCycle:   "#CYCLE!",
	}
	for kind, want := range cases {
		if got := kind.Glyph(); got != want {
			t.Errorf("Glyph(%v) = %q, want %q", kind, got, want)
		}
	}
}

func TestGeneralFormat(t *testing.T) {
	cases := []struct {
		n    float64
		want string
	}{
		{5, "5"},
		{5.5, "5.5"},
		{0, "0"},
		{1e11, "1E+11"},
		{0.00001, "1E-05"},
	}
	for _, c := range cases {
		if got := General(c.n); got != c.want {
			t.Errorf("General(%v) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestDisplayFormatRender(t *testing.T) {
	cases := []struct {
		format DisplayFormat
		n      float64
		want   string
	}{
		{DisplayFormat{Kind: FormatNumber, Decimals: 2}, 3.14159, "3.14"},
		{DisplayFormat{Kind: FormatCurrency, Decimals: 2}, 9.5, "$9.50"},
		{DisplayFormat{Kind: FormatPercent, Decimals: 0}, 0.5, "50%"},
	}
	for _, c := range cases {
		if got := c.format.Render(c.n); got != c.want {
			t.Errorf("Render(%v) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	if n, ok := ParseNumber("  3.5  "); !ok || n != 3.5 {
		t.Fatalf("ParseNumber = (%v,%v), want (3.5,true)", n, ok)
	}
	if _, ok := ParseNumber("abc"); ok {
		t.Fatalf("ParseNumber(abc) should fail")
	}
}
