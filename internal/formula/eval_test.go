package formula

import (
	"testing"

	"github.com/nvirag/vsheet/internal/cellmodel"
)

// fakeSheet is a minimal CellReader backed by a map, so the evaluator can be
// exercised without pulling in internal/sheet.
type fakeSheet map[[2]int]string

func (f fakeSheet) RawInput(col, row int) string { return f[[2]int{col, row}] }

func mustEval(t *testing.T, sheet fakeSheet, col, row int, formula string) cellmodel.CellValue {
	t.Helper()
	e := NewEvaluator(sheet)
	return e.EvalCell(col, row, formula[1:])
}

// TestScenarioTable exercises spec.md §8's concrete scenario table directly
// against the evaluator (the Sheet-level display formatting is covered
// separately in internal/sheet).
func TestScenarioTable(t *testing.T) {
	t.Run("arithmetic", func(t *testing.T) {
		sheet := fakeSheet{{0, 0}: "2", {0, 1}: "3", {0, 2}: "=A1+A2"}
		got := mustEval(t, sheet, 0, 2, sheet[[2]int{0, 2}])
		if got.Kind != cellmodel.KindNumber || got.Number != 5 {
			t.Fatalf("A3 = %+v, want Number(5)", got)
		}
	})

	t.Run("cycle", func(t *testing.T) {
		sheet := fakeSheet{{0, 0}: "=A2", {0, 1}: "=A1"}
		got := mustEval(t, sheet, 0, 0, sheet[[2]int{0, 0}])
		if got.Kind != cellmodel.KindError || got.Err != cellmodel.ErrCycle {
			t.Fatalf("A1 = %+v, want #CYCLE!", got)
		}
	})

	t.Run("div zero", func(t *testing.T) {
		sheet := fakeSheet{{0, 0}: "10", {0, 1}: "0", {0, 2}: "=A1/A2"}
		got := mustEval(t, sheet, 0, 2, sheet[[2]int{0, 2}])
		if got.Kind != cellmodel.KindError || got.Err != cellmodel.ErrDivZero {
			t.Fatalf("A3 = %+v, want #DIV/0!", got)
		}
	})

	t.Run("sum range", func(t *testing.T) {
		sheet := fakeSheet{{0, 0}: "1", {0, 1}: "2", {0, 2}: "3", {1, 0}: "=SUM(A1:A3)"}
		got := mustEval(t, sheet, 1, 0, sheet[[2]int{1, 0}])
		if got.Kind != cellmodel.KindNumber || got.Number != 6 {
			t.Fatalf("B1 = %+v, want Number(6)", got)
		}
	})

	t.Run("upper and concat", func(t *testing.T) {
		sheet := fakeSheet{{0, 0}: "apple", {1, 0}: `=UPPER(A1)&"!"`}
		got := mustEval(t, sheet, 1, 0, sheet[[2]int{1, 0}])
		if got.Kind != cellmodel.KindText || got.Text != "APPLE!" {
			t.Fatalf("B1 = %+v, want Text(APPLE!)", got)
		}
	})

	t.Run("sumif", func(t *testing.T) {
		sheet := fakeSheet{
			{0, 0}: "1", {0, 1}: "2", {0, 2}: "3",
			{1, 0}: "x", {1, 1}: "y", {1, 2}: "x",
			{2, 0}: `=SUMIF(B1:B3,"x",A1:A3)`,
		}
		got := mustEval(t, sheet, 2, 0, sheet[[2]int{2, 0}])
		if got.Kind != cellmodel.KindNumber || got.Number != 4 {
			t.Fatalf("C1 = %+v, want Number(4)", got)
		}
	})
}

func TestEmptyCellCoercion(t *testing.T) {
	sheet := fakeSheet{{1, 0}: "=A1+1"}
	got := mustEval(t, sheet, 1, 0, sheet[[2]int{1, 0}])
	if got.Kind != cellmodel.KindNumber || got.Number != 1 {
		t.Fatalf("empty cell numeric deref = %+v, want Number(1)", got)
	}

	sheet2 := fakeSheet{{1, 0}: `=A1&"x"`}
	got2 := mustEval(t, sheet2, 1, 0, sheet2[[2]int{1, 0}])
	if got2.Kind != cellmodel.KindText || got2.Text != "x" {
		t.Fatalf("empty cell concat deref = %+v, want Text(x)", got2)
	}
}

func TestSelfCycleSingleCell(t *testing.T) {
	sheet := fakeSheet{{0, 0}: "=A1"}
	got := mustEval(t, sheet, 0, 0, sheet[[2]int{0, 0}])
	if got.Kind != cellmodel.KindError || got.Err != cellmodel.ErrCycle {
		t.Fatalf("self-reference = %+v, want #CYCLE!", got)
	}
}

func TestLongerCycleAllParticipants(t *testing.T) {
	sheet := fakeSheet{{0, 0}: "=A2", {0, 1}: "=A3", {0, 2}: "=A1"}
	for row := 0; row < 3; row++ {
		got := mustEval(t, sheet, 0, row, sheet[[2]int{0, row}])
		if got.Kind != cellmodel.KindError || got.Err != cellmodel.ErrCycle {
			t.Fatalf("row %d = %+v, want #CYCLE!", row, got)
		}
	}
}

func TestPrecedenceAndAssociativity(t *testing.T) {
	cases := []struct {
		formula string
		want    float64
	}{
		{"=2+3*4", 14},
		{"=(2+3)*4", 20},
		{"=2^3^2", 512}, // right-assoc: 2^(3^2) = 2^9
		{"=10-2-3", 5},  // left-to-right additive: (10-2)-3
		{"=2*3-1", 5},
		{"=-5+3", -2},
		{"=1E2+1", 101}, // E-exponent not mistaken for operator
	}
	for _, c := range cases {
		sheet := fakeSheet{}
		got := mustEval(t, sheet, 0, 0, c.formula)
		if got.Kind != cellmodel.KindNumber || got.Number != c.want {
			t.Errorf("%s = %+v, want Number(%v)", c.formula, got, c.want)
		}
	}
}

func TestComparisonOperators(t *testing.T) {
	cases := []struct {
		formula string
		want    bool
	}{
		{"=1<2", true},
		{"=2<=2", true},
		{"=3<>2", true},
		{`="a"="a"`, true},
		{"=TRUE=TRUE", true},
		{"=1>=2", false},
	}
	for _, c := range cases {
		sheet := fakeSheet{}
		got := mustEval(t, sheet, 0, 0, c.formula)
		if got.Kind != cellmodel.KindBoolean || got.Boolean != c.want {
			t.Errorf("%s = %+v, want Boolean(%v)", c.formula, got, c.want)
		}
	}
}

func TestCoercionErrors(t *testing.T) {
	sheet := fakeSheet{{0, 0}: "hello", {1, 0}: "=A1+1"}
	got := mustEval(t, sheet, 1, 0, sheet[[2]int{1, 0}])
	if got.Kind != cellmodel.KindError || got.Err != cellmodel.ErrValue {
		t.Fatalf("text + number = %+v, want #VALUE!", got)
	}
}

func TestUnknownFunctionIsNameError(t *testing.T) {
	sheet := fakeSheet{{0, 0}: "=BOGUS(1)"}
	got := mustEval(t, sheet, 0, 0, sheet[[2]int{0, 0}])
	if got.Kind != cellmodel.KindError || got.Err != cellmodel.ErrName {
		t.Fatalf("BOGUS(1) = %+v, want #NAME?", got)
	}
}

func TestIfAndIferror(t *testing.T) {
	sheet := fakeSheet{{0, 0}: "5"}
	got := mustEval(t, sheet, 1, 0, `=IF(A1>3,"big","small")`)
	if got.Kind != cellmodel.KindText || got.Text != "big" {
		t.Fatalf("IF = %+v, want Text(big)", got)
	}

	sheet2 := fakeSheet{{0, 0}: "0"}
	got2 := mustEval(t, sheet2, 1, 0, "=IFERROR(1/A1,99)")
	if got2.Kind != cellmodel.KindNumber || got2.Number != 99 {
		t.Fatalf("IFERROR = %+v, want Number(99)", got2)
	}
}

func TestVlookupExactAndNA(t *testing.T) {
	sheet := fakeSheet{
		{0, 0}: "1", {1, 0}: "one",
		{0, 1}: "2", {1, 1}: "two",
	}
	got := mustEval(t, sheet, 2, 0, "=VLOOKUP(2,A1:B2,2,FALSE)")
	if got.Kind != cellmodel.KindText || got.Text != "two" {
		t.Fatalf("VLOOKUP hit = %+v, want Text(two)", got)
	}
	got2 := mustEval(t, sheet, 2, 0, "=VLOOKUP(3,A1:B2,2,FALSE)")
	if got2.Kind != cellmodel.KindError || got2.Err != cellmodel.ErrNA {
		t.Fatalf("VLOOKUP miss = %+v, want #N/A", got2)
	}
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		formula string
		want    float64
	}{
		{"=ROUND(2.5,0)", 3},
		{"=ROUND(-2.5,0)", -3},
		{"=ROUND(1.005,2)", 1.01},
	}
	for _, c := range cases {
		sheet := fakeSheet{}
		got := mustEval(t, sheet, 0, 0, c.formula)
		if got.Kind != cellmodel.KindNumber || got.Number != c.want {
			t.Errorf("%s = %+v, want Number(%v)", c.formula, got, c.want)
		}
	}
}

func TestSqrtNegativeIsNumError(t *testing.T) {
	sheet := fakeSheet{}
	got := mustEval(t, sheet, 0, 0, "=SQRT(-1)")
	if got.Kind != cellmodel.KindError || got.Err != cellmodel.ErrNum {
		t.Fatalf("SQRT(-1) = %+v, want #NUM!", got)
	}
}

func TestRefErrorLiteralSurfacesAsError(t *testing.T) {
	sheet := fakeSheet{{1, 0}: "=#REF!+1"}
	got := mustEval(t, sheet, 1, 0, sheet[[2]int{1, 0}])
	if got.Kind != cellmodel.KindError || got.Err != cellmodel.ErrRef {
		t.Fatalf("#REF!+1 = %+v, want #REF!", got)
	}
}

func TestEvaluationIsSideEffectFree(t *testing.T) {
	sheet := fakeSheet{{0, 0}: "1", {0, 1}: "=A1+1"}
	e := NewEvaluator(sheet)
	before := len(sheet)
	first := e.EvalCell(0, 1, sheet[[2]int{0, 1}][1:])
	second := e.EvalCell(0, 1, sheet[[2]int{0, 1}][1:])
	if len(sheet) != before {
		t.Fatalf("evaluation mutated the sheet: before=%d after=%d", before, len(sheet))
	}
	if first != second {
		t.Fatalf("evaluate not idempotent: %+v != %+v", first, second)
	}
}
