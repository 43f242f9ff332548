package object

import "plume/internal/code"

// MaxConstants is the size of the one-byte constant index space.
const MaxConstants = 256

type Chunk struct {
	Code      code.Instructions
	Lines     code.LineTable
	Constants []Value
}

func NewChunk() *Chunk {
	return &Chunk{
		Code:      make(code.Instructions, 0, 64),
		Constants: make([]Value, 0, 8),
	}
}

func (c *Chunk) Write(b byte, line int) {
	c.Lines.Add(len(c.Code), line)
	c.Code = append(c.Code, b)
}

// Emit appends an encoded instruction and returns its offset.
func (c *Chunk) Emit(ins code.Instructions, line int) int {
	pos := len(c.Code)
	for _, b := range ins {
		c.Write(b, line)
	}
	return pos
}

// AddConstant returns the index of an equal constant if the pool already has
// one, otherwise appends v.
func (c *Chunk) AddConstant(v Value) int {
	for i, existing := range c.Constants {
		if Equal(existing, v) {
			return i
		}
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

func (c *Chunk) Line(offset int) int {
	return c.Lines.Line(offset)
}
