package vm

import (
	"plume/internal/code"
	"plume/internal/object"
)

// CallFrame is one active call. base is the stack index of slot 0, which
// holds the callee itself.
type CallFrame struct {
	fn   *object.Function
	ip   int
	base int
}

func (f *CallFrame) readByte() byte {
	b := f.fn.Chunk.Code[f.ip]
	f.ip++
	return b
}

func (f *CallFrame) readShort() int {
	v := code.ReadUint16(f.fn.Chunk.Code[f.ip:])
	f.ip += 2
	return int(v)
}

func (f *CallFrame) readConstant() object.Value {
	return f.fn.Chunk.Constants[f.readByte()]
}

func (f *CallFrame) readString() *object.String {
	s, _ := f.readConstant().AsString()
	return s
}

// line is the source line of the instruction the frame is executing.
func (f *CallFrame) line() int {
	return f.fn.Chunk.Line(f.ip - 1)
}
