package formula

import (
	"testing"

	"github.com/nvirag/vsheet/internal/cellmodel"
)

func TestLexErrorLiterals(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"#REF!", "#REF!"},
		{"#DIV/0!", "#DIV/0!"},
		{"#NAME?", "#NAME?"},
		{"#NUM!", "#NUM!"},
		{"#CYCLE!", "#CYCLE!"},
		{"#N/A", "#N/A"},
	}
	for _, c := range cases {
		l := NewLexer(c.input)
		tok := l.NextToken()
		if tok.Type != ERRLIT || tok.Literal != c.want {
			t.Errorf("lex(%q) = %+v, want ERRLIT %q", c.input, tok, c.want)
		}
	}
}

// #N/A has no trailing terminator character, unlike every other error
// glyph, so the lexer must not swallow a following operator/number into the
// same token (the bug: "#N/A+1" tokenizing as one ERRLIT instead of
// ERRLIT("#N/A"), PLUS, NUMBER("1")).
func TestLexNAGlyphDoesNotSwallowFollowingOperator(t *testing.T) {
	l := NewLexer("#N/A+1")
	tok1 := l.NextToken()
	if tok1.Type != ERRLIT || tok1.Literal != "#N/A" {
		t.Fatalf("first token = %+v, want ERRLIT #N/A", tok1)
	}
	tok2 := l.NextToken()
	if tok2.Type != PLUS {
		t.Fatalf("second token = %+v, want PLUS", tok2)
	}
	tok3 := l.NextToken()
	if tok3.Type != NUMBER || tok3.Literal != "1" {
		t.Fatalf("third token = %+v, want NUMBER 1", tok3)
	}
	tok4 := l.NextToken()
	if tok4.Type != EOF {
		t.Fatalf("fourth token = %+v, want EOF", tok4)
	}
}

func TestEvalNAGlyphPlusOperator(t *testing.T) {
	sheet := fakeSheet{{1, 0}: "=#N/A+1"}
	got := mustEval(t, sheet, 1, 0, sheet[[2]int{1, 0}])
	if got.Kind != cellmodel.KindError || got.Err != cellmodel.ErrNA {
		t.Fatalf("#N/A+1 = %+v, want #N/A", got)
	}
}
