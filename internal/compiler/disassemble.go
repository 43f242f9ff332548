package compiler

import (
	"fmt"
	"io"

	"plume/internal/code"
	"plume/internal/object"
)

func DisassembleChunk(w io.Writer, chunk *object.Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		offset = DisassembleInstruction(w, chunk, offset)
	}
}

// DisassembleInstruction prints the instruction at offset and returns the
// offset of the next one.
func DisassembleInstruction(w io.Writer, chunk *object.Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && !chunk.Lines.IsRunStart(offset) {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", chunk.Line(offset))
	}

	op := code.Opcode(chunk.Code[offset])
	def, ok := code.Lookup(op)
	if !ok {
		fmt.Fprintf(w, "Unknown opcode %d\n", op)
		return offset + 1
	}
	if offset+def.Width() > len(chunk.Code) {
		fmt.Fprintf(w, "%s <truncated>\n", def.Name)
		return len(chunk.Code)
	}

	operands, read := code.ReadOperands(def, chunk.Code[offset+1:])
	next := offset + 1 + read

	switch op {
	case code.OpConstant, code.OpGetGlobal, code.OpDefineGlobal, code.OpSetGlobal:
		idx := operands[0]
		fmt.Fprintf(w, "%-16s %4d '%s'\n", def.Name, idx, constantString(chunk, idx))
	case code.OpJump, code.OpJumpIfFalse, code.OpJumpIfUnequal:
		fmt.Fprintf(w, "%-16s %4d -> %d\n", def.Name, offset, next+operands[0])
	case code.OpLoop:
		fmt.Fprintf(w, "%-16s %4d -> %d\n", def.Name, offset, next-operands[0])
	default:
		if len(operands) == 1 {
			fmt.Fprintf(w, "%-16s %4d\n", def.Name, operands[0])
		} else {
			fmt.Fprintf(w, "%s\n", def.Name)
		}
	}
	return next
}

func constantString(chunk *object.Chunk, idx int) string {
	if idx >= len(chunk.Constants) {
		return "<bad constant>"
	}
	return chunk.Constants[idx].String()
}
