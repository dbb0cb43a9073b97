package clitable

import (
	"reflect"
	"testing"
)

func TestCapWidthsNoConstraint(t *testing.T) {
	widths := []int{5, 20, 10}
	headers := []string{"COL1", "COL2", "COL3"}
	got := capWidths(widths, headers, 80, 0)
	if !reflect.DeepEqual(got, widths) {
		t.Errorf("expected no change: got %v, want %v", got, widths)
	}
}

func TestCapWidthsReducesWidest(t *testing.T) {
	widths := []int{5, 60, 10}
	headers := []string{"DEVICE", "MESSAGE", "STATUS"}
	got := capWidths(widths, headers, 78, 0)
	total := 0
	for _, w := range got {
		total += w
	}
	total += 2 * (len(got) - 1)
	if total > 78 {
		t.Errorf("total %d still exceeds 78; widths=%v", total, got)
	}
	if got[0] != widths[0] {
		t.Errorf("column 0 should be unchanged: got %d, want %d", got[0], widths[0])
	}
	if got[2] != widths[2] {
		t.Errorf("column 2 should be unchanged: got %d, want %d", got[2], widths[2])
	}
}

func TestCapWidthsRespectsHeaderMinimum(t *testing.T) {
	widths := []int{4, 60}
	headers := []string{"NUM", "A-VERY-LONG-HEADER-NAME"}
	got := capWidths(widths, headers, 30, 2)
	if got[1] < visualLen("A-VERY-LONG-HEADER-NAME") {
		t.Errorf("column 1 reduced below header minimum: got %d", got[1])
	}
}

func TestCapWidthsCannotReduceFurther(t *testing.T) {
	widths := []int{3, 8}
	headers := []string{"NUM", "MESSAGE"}
	got := capWidths(widths, headers, 5, 0)
	if got[0] < visualLen("NUM") {
		t.Errorf("column 0 below header minimum: %d", got[0])
	}
	if got[1] < visualLen("MESSAGE") {
		t.Errorf("column 1 below header minimum: %d", got[1])
	}
}

func TestWrapCellFitsUnchanged(t *testing.T) {
	got := wrapCell("hello", 10)
	if !reflect.DeepEqual(got, []string{"hello"}) {
		t.Errorf("got %v, want [hello]", got)
	}
}

func TestWrapCellWordWrap(t *testing.T) {
	got := wrapCell("hello world foo", 11)
	want := []string{"hello world", "foo"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWrapCellHardBreakLongWord(t *testing.T) {
	got := wrapCell("abcdefghij", 4)
	want := []string{"abcd", "efgh", "ij"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWrapCellANSIPreservedWhenFits(t *testing.T) {
	colored := "\x1b[32mOK\x1b[0m"
	got := wrapCell(colored, 10)
	if !reflect.DeepEqual(got, []string{colored}) {
		t.Errorf("ANSI string should be returned unchanged when it fits: got %v", got)
	}
}

func TestWrapCellEmptyString(t *testing.T) {
	got := wrapCell("", 10)
	if !reflect.DeepEqual(got, []string{""}) {
		t.Errorf("got %v, want [\"\"]", got)
	}
}

func TestTableFlushEmptyProducesNoRows(t *testing.T) {
	tbl := NewTable("DEVICE", "STATUS")
	tbl.Flush() // should not panic and should not print a header with zero rows
}

func TestTableRowAccumulates(t *testing.T) {
	tbl := NewTable("DEVICE", "STATUS")
	tbl.Row("sw1", "ok")
	tbl.Row("sw2", "failed")
	if len(tbl.rows) != 2 {
		t.Errorf("len(rows) = %d, want 2", len(tbl.rows))
	}
}
