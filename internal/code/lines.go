package code

import "sort"

// LineRun marks the first instruction offset compiled from Line.
type LineRun struct {
	Offset int
	Line   int
}

// LineTable is a run-length encoded map from byte offset to source line. A new
// run is only recorded when the line changes.
type LineTable struct {
	runs []LineRun
}

func NewLineTable(runs []LineRun) LineTable {
	return LineTable{runs: append([]LineRun(nil), runs...)}
}

func (t *LineTable) Add(offset, line int) {
	if n := len(t.runs); n > 0 && t.runs[n-1].Line == line {
		return
	}
	t.runs = append(t.runs, LineRun{Offset: offset, Line: line})
}

// Line returns the source line of the byte at offset, or 0 when the table is
// empty.
func (t *LineTable) Line(offset int) int {
	i := sort.Search(len(t.runs), func(i int) bool {
		return t.runs[i].Offset > offset
	})
	if i == 0 {
		return 0
	}
	return t.runs[i-1].Line
}

func (t *LineTable) IsRunStart(offset int) bool {
	i := sort.Search(len(t.runs), func(i int) bool {
		return t.runs[i].Offset >= offset
	})
	return i < len(t.runs) && t.runs[i].Offset == offset
}

func (t *LineTable) Runs() []LineRun {
	return append([]LineRun(nil), t.runs...)
}
