package sheet

import "testing"

// Scenarios grounded directly in spec.md §8's concrete table.

func TestSumOfTwoCells(t *testing.T) {
	s := New("Sheet1")
	s.SetCell(0, 0, "2")  // A1
	s.SetCell(0, 1, "3")  // A2
	s.SetCell(0, 2, "=A1+A2") // A3
	if got := s.Evaluate(0, 2); got != "5" {
		t.Fatalf("A3 = %q, want 5", got)
	}
}

func TestCycleDetection(t *testing.T) {
	s := New("Sheet1")
	s.SetCell(0, 0, "=A2")
	s.SetCell(0, 1, "=A1")
	if got := s.Evaluate(0, 0); got != "#CYCLE!" {
		t.Fatalf("A1 = %q, want #CYCLE!", got)
	}
}

func TestDivisionByZero(t *testing.T) {
	s := New("Sheet1")
	s.SetCell(0, 0, "10")
	s.SetCell(0, 1, "0")
	s.SetCell(0, 2, "=A1/A2")
	if got := s.Evaluate(0, 2); got != "#DIV/0!" {
		t.Fatalf("A3 = %q, want #DIV/0!", got)
	}
}

func TestDeleteRowRewritesToRef(t *testing.T) {
	s := New("Sheet1")
	s.SetCell(1, 0, "=A1+1") // B1
	s.DeleteRow(0)
	c, ok := s.GetCell(1, 0)
	if !ok {
		t.Fatalf("B1 missing after delete")
	}
	if c.RawInput != "=#REF!+1" {
		t.Fatalf("B1 raw_input = %q, want =#REF!+1", c.RawInput)
	}
	if got := s.Evaluate(1, 0); got != "#REF!" {
		t.Fatalf("B1 = %q, want #REF!", got)
	}
}

func TestSumRange(t *testing.T) {
	s := New("Sheet1")
	s.SetCell(0, 0, "1")
	s.SetCell(0, 1, "2")
	s.SetCell(0, 2, "3")
	s.SetCell(1, 0, "=SUM(A1:A3)")
	if got := s.Evaluate(1, 0); got != "6" {
		t.Fatalf("B1 = %q, want 6", got)
	}
}

func TestUpperConcat(t *testing.T) {
	s := New("Sheet1")
	s.SetCell(0, 0, "apple")
	s.SetCell(1, 0, `=UPPER(A1)&"!"`)
	if got := s.Evaluate(1, 0); got != "APPLE!" {
		t.Fatalf("B1 = %q, want APPLE!", got)
	}
}

func TestSumif(t *testing.T) {
	s := New("Sheet1")
	s.SetCell(0, 0, "1")
	s.SetCell(0, 1, "2")
	s.SetCell(0, 2, "3")
	s.SetCell(1, 0, "x")
	s.SetCell(1, 1, "y")
	s.SetCell(1, 2, "x")
	s.SetCell(2, 0, `=SUMIF(B1:B3,"x",A1:A3)`)
	if got := s.Evaluate(2, 0); got != "4" {
		t.Fatalf("C1 = %q, want 4", got)
	}
}

// --- Invariants -------------------------------------------------------------

func TestEmptyInputRemovesCell(t *testing.T) {
	s := New("Sheet1")
	s.SetCell(0, 0, "hello")
	s.SetCell(0, 0, "   ")
	if _, ok := s.GetCell(0, 0); ok {
		t.Fatalf("cell still present after blank set_cell")
	}
}

func TestOutOfBoundsSetIsNoop(t *testing.T) {
	s := New("Sheet1")
	s.SetCell(-1, 0, "x")
	s.SetCell(0, -1, "x")
	s.SetCell(MaxCol+1, 0, "x")
	s.SetCell(0, MaxRow+1, "x")
	if s.MaxCol() != -1 || s.MaxRow() != -1 {
		t.Fatalf("out-of-range set_cell mutated the sheet")
	}
}

func TestInsertThenDeleteRoundTrips(t *testing.T) {
	s := New("Sheet1")
	s.SetCell(1, 5, "=A1+B6") // B6
	before, _ := s.GetCell(1, 5)

	s.InsertRow(2)
	s.DeleteRow(2)

	after, ok := s.GetCell(1, 5)
	if !ok {
		t.Fatalf("cell lost across insert/delete round trip")
	}
	if after.RawInput != before.RawInput {
		t.Fatalf("raw_input changed across round trip: got %q want %q", after.RawInput, before.RawInput)
	}
}

func TestCloneEqualAfterNoMutation(t *testing.T) {
	s := New("Sheet1")
	s.SetCell(0, 0, "1")
	s.SetCell(0, 1, "=A1*2")
	clone := s.Clone()
	if !s.Equal(clone) {
		t.Fatalf("fresh clone not equal to original")
	}
	s.SetCell(2, 2, "z")
	if s.Equal(clone) {
		t.Fatalf("clone should diverge after original mutates")
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	s := New("Sheet1")
	s.SetCell(0, 0, "4")
	s.SetCell(0, 1, "=A1*A1")
	first := s.Evaluate(0, 1)
	second := s.Evaluate(0, 1)
	if first != second {
		t.Fatalf("evaluate not idempotent: %q vs %q", first, second)
	}
}

func TestColWidthClampAndDefaultRemoval(t *testing.T) {
	s := New("Sheet1")
	s.SetColWidth(0, 1)
	if w := s.GetColWidth(0); w != MinColWidth {
		t.Fatalf("width = %d, want clamp to %d", w, MinColWidth)
	}
	s.SetColWidth(0, 999)
	if w := s.GetColWidth(0); w != MaxColWidth {
		t.Fatalf("width = %d, want clamp to %d", w, MaxColWidth)
	}
	s.SetColWidth(0, DefaultColWidth)
	if _, present := s.ColWidths()[0]; present {
		t.Fatalf("default width should not be stored")
	}
}

func TestShiftCellsRightDoesNotRewriteFormulas(t *testing.T) {
	s := New("Sheet1")
	s.SetCell(0, 0, "=A1")
	s.ShiftCellsRight(0, 0)
	c, ok := s.GetCell(1, 0)
	if !ok || c.RawInput != "=A1" {
		t.Fatalf("shifted cell = %+v, want raw_input unchanged at (1,0)", c)
	}
	if _, ok := s.GetCell(0, 0); ok {
		t.Fatalf("source cell should be gone after shift")
	}
}
