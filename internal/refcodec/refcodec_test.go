package refcodec

import "testing"

func TestColumnRoundTrip(t *testing.T) {
	for k := 0; k <= 18277; k++ {
		name := ColumnIndexToName(k)
		got, err := ColumnNameToIndex(name)
		if err != nil {
			t.Fatalf("ColumnNameToIndex(%q) error: %v", name, err)
		}
		if got != k {
			t.Fatalf("round trip mismatch: k=%d name=%q got=%d", k, name, got)
		}
	}
}

func TestColumnIndexToNameFixedPoints(t *testing.T) {
	cases := map[int]string{0: "A", 25: "Z", 26: "AA", 51: "AZ", 52: "BA", 701: "ZZ", 702: "AAA"}
	for k, want := range cases {
		if got := ColumnIndexToName(k); got != want {
			t.Errorf("ColumnIndexToName(%d) = %q, want %q", k, got, want)
		}
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		token string
		want  Ref
	}{
		{"A1", Ref{Col: 0, Row: 0}},
		{"$A1", Ref{Col: 0, Row: 0, ColAbs: true}},
		{"A$1", Ref{Col: 0, Row: 0, RowAbs: true}},
		{"$A$1", Ref{Col: 0, Row: 0, ColAbs: true, RowAbs: true}},
		{"B2", Ref{Col: 1, Row: 1}},
		{"aa10", Ref{Col: 26, Row: 9}},
	}
	for _, c := range cases {
		got, err := Parse(c.token)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", c.token, err)
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %+v, want %+v", c.token, got, c.want)
		}
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	for _, tok := range []string{"", "A", "1", "A0", "1A", "$$A1", "A1$"} {
		if _, err := Parse(tok); err == nil {
			t.Errorf("Parse(%q) expected error, got none", tok)
		}
	}
}

func TestFormatRoundTrip(t *testing.T) {
	refs := []Ref{
		{Col: 0, Row: 0},
		{Col: 0, Row: 0, ColAbs: true},
		{Col: 27, Row: 9999, RowAbs: true},
	}
	for _, r := range refs {
		tok := Format(r)
		got, err := Parse(tok)
		if err != nil {
			t.Fatalf("Parse(Format(%+v)) error: %v", r, err)
		}
		if got != r {
			t.Errorf("round trip mismatch: %+v -> %q -> %+v", r, tok, got)
		}
	}
}
