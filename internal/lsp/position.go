package lsp

import (
	"strings"
	"unicode/utf16"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Pos is a 1-based line and byte column, as the lexer reports them.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) before(q Pos) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Col < q.Col
}

// lineIndex converts between lexer positions and LSP positions, which count
// UTF-16 code units.
type lineIndex struct {
	lines []string
}

func newLineIndex(text string) lineIndex {
	return lineIndex{lines: strings.Split(text, "\n")}
}

func (ix lineIndex) line(n int) (string, bool) {
	if n <= 0 || n > len(ix.lines) {
		return "", false
	}
	return ix.lines[n-1], true
}

func (ix lineIndex) position(p Pos) protocol.Position {
	text, ok := ix.line(p.Line)
	if !ok {
		return protocol.Position{}
	}
	return protocol.Position{Line: uint32(p.Line - 1), Character: byteColToUTF16(text, p.Col)}
}

// rangeOf covers length bytes starting at p, clipped to p's line.
func (ix lineIndex) rangeOf(p Pos, length int) protocol.Range {
	start := ix.position(p)
	text, _ := ix.line(p.Line)
	end := ix.position(Pos{Line: p.Line, Col: min(p.Col+max(length, 1), len(text)+1)})
	if end.Character <= start.Character {
		end.Character = start.Character + 1
	}
	return protocol.Range{Start: start, End: end}
}

func (ix lineIndex) span(from, to Pos, toLength int) protocol.Range {
	return protocol.Range{Start: ix.position(from), End: ix.rangeOf(to, toLength).End}
}

// pos converts an LSP position back to a lexer position.
func (ix lineIndex) pos(p protocol.Position) (Pos, bool) {
	text, ok := ix.line(int(p.Line) + 1)
	if !ok {
		return Pos{}, false
	}
	return Pos{Line: int(p.Line) + 1, Col: utf16ColToByte(text, int(p.Character))}, true
}

func (ix lineIndex) end() Pos {
	last := len(ix.lines)
	return Pos{Line: last, Col: len(ix.lines[last-1]) + 1}
}

func byteColToUTF16(lineText string, byteCol int) uint32 {
	if byteCol <= 1 {
		return 0
	}
	limit := min(byteCol-1, len(lineText))
	var count uint32
	for _, r := range lineText[:limit] {
		count += uint32(runeLen16(r))
	}
	return count
}

func utf16ColToByte(lineText string, utf16Col int) int {
	if utf16Col <= 0 {
		return 1
	}
	count := 0
	for idx, r := range lineText {
		n := runeLen16(r)
		if count+n > utf16Col {
			return idx + 1
		}
		count += n
	}
	return len(lineText) + 1
}

func runeLen16(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}
