package clipboard

import (
	"reflect"
	"testing"
)

// fakeSheet is a minimal CellReader+PasteTarget backed by a map.
type fakeSheet map[[2]int]string

func (f fakeSheet) RawInput(col, row int) string { return f[[2]int{col, row}] }
func (f fakeSheet) SetCell(col, row int, input string) {
	if input == "" {
		delete(f, [2]int{col, row})
		return
	}
	f[[2]int{col, row}] = input
}

func TestCaptureSnapshotsRectangle(t *testing.T) {
	sheet := fakeSheet{
		{0, 0}: "1", {1, 0}: "2",
		{0, 1}: "3", {1, 1}: "4",
	}
	c := Capture(sheet, 0, 0, 2, 2)
	want := [][]string{{"1", "2"}, {"3", "4"}}
	if !reflect.DeepEqual(c.RawInputs, want) {
		t.Fatalf("RawInputs = %v, want %v", c.RawInputs, want)
	}
}

func TestPasteAdjustsFormulasByOffset(t *testing.T) {
	// spec.md §8 scenario 8: copy A1=`=B1` to (2,2) (offset +2,+2) -> =D3.
	sheet := fakeSheet{{0, 0}: "=B1"}
	c := Capture(sheet, 0, 0, 1, 1)
	dest := fakeSheet{}
	Paste(c, dest, 2, 2)
	if got := dest.RawInput(2, 2); got != "=D3" {
		t.Fatalf("pasted raw_input = %q, want =D3", got)
	}
}

func TestPasteCopiesLiteralValuesVerbatim(t *testing.T) {
	sheet := fakeSheet{{0, 0}: "hello", {1, 0}: "42"}
	c := Capture(sheet, 0, 0, 2, 1)
	dest := fakeSheet{}
	Paste(c, dest, 5, 5)
	if got := dest.RawInput(5, 5); got != "hello" {
		t.Fatalf("dest(5,5) = %q, want hello", got)
	}
	if got := dest.RawInput(6, 5); got != "42" {
		t.Fatalf("dest(6,5) = %q, want 42", got)
	}
}

func TestToTSVRoundTripsThroughParseSystemClipboard(t *testing.T) {
	sheet := fakeSheet{
		{0, 0}: "a", {1, 0}: "b",
		{0, 1}: "c", {1, 1}: "d",
	}
	c := Capture(sheet, 0, 0, 2, 2)
	tsv := c.ToTSV()
	parsed := ParseSystemClipboard(tsv)
	want := [][]string{{"a", "b"}, {"c", "d"}}
	if !reflect.DeepEqual(parsed, want) {
		t.Fatalf("round trip = %v, want %v", parsed, want)
	}
}

func TestParseSystemClipboardPrefersTSVWhenTabsPresent(t *testing.T) {
	parsed := ParseSystemClipboard("a\tb\nc\td")
	want := [][]string{{"a", "b"}, {"c", "d"}}
	if !reflect.DeepEqual(parsed, want) {
		t.Fatalf("got %v, want %v", parsed, want)
	}
}

func TestParseSystemClipboardFallsBackToCSV(t *testing.T) {
	parsed := ParseSystemClipboard("a,b\nc,d")
	want := [][]string{{"a", "b"}, {"c", "d"}}
	if !reflect.DeepEqual(parsed, want) {
		t.Fatalf("got %v, want %v", parsed, want)
	}
}

func TestParseSystemClipboardHandlesQuotedCSV(t *testing.T) {
	parsed := ParseSystemClipboard(`"a,b",c`)
	want := [][]string{{"a,b", "c"}}
	if !reflect.DeepEqual(parsed, want) {
		t.Fatalf("got %v, want %v", parsed, want)
	}
}
