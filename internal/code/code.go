package code

import "encoding/binary"

type Opcode byte

const (
	OpConstant Opcode = iota // operand: constant index (1 byte)
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpPopN // operand: slot count (1 byte)

	OpGetLocal // operand: slot (1 byte)
	OpSetLocal
	OpGetGlobal // operand: name constant (1 byte)
	OpDefineGlobal
	OpSetGlobal

	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate

	OpPrint

	OpJump          // operand: forward offset (2 bytes)
	OpJumpIfFalse   // operand: forward offset (2 bytes), condition stays on the stack
	OpJumpIfUnequal // operand: forward offset (2 bytes), pops the case value, keeps the selector
	OpLoop          // operand: backward offset (2 bytes)

	OpCall // operand: argument count (1 byte)
	OpReturn
)

type Instructions []byte

type Definition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*Definition{
	OpConstant:      {"OpConstant", []int{1}},
	OpNil:           {"OpNil", nil},
	OpTrue:          {"OpTrue", nil},
	OpFalse:         {"OpFalse", nil},
	OpPop:           {"OpPop", nil},
	OpPopN:          {"OpPopN", []int{1}},
	OpGetLocal:      {"OpGetLocal", []int{1}},
	OpSetLocal:      {"OpSetLocal", []int{1}},
	OpGetGlobal:     {"OpGetGlobal", []int{1}},
	OpDefineGlobal:  {"OpDefineGlobal", []int{1}},
	OpSetGlobal:     {"OpSetGlobal", []int{1}},
	OpEqual:         {"OpEqual", nil},
	OpGreater:       {"OpGreater", nil},
	OpLess:          {"OpLess", nil},
	OpAdd:           {"OpAdd", nil},
	OpSubtract:      {"OpSubtract", nil},
	OpMultiply:      {"OpMultiply", nil},
	OpDivide:        {"OpDivide", nil},
	OpNot:           {"OpNot", nil},
	OpNegate:        {"OpNegate", nil},
	OpPrint:         {"OpPrint", nil},
	OpJump:          {"OpJump", []int{2}},
	OpJumpIfFalse:   {"OpJumpIfFalse", []int{2}},
	OpJumpIfUnequal: {"OpJumpIfUnequal", []int{2}},
	OpLoop:          {"OpLoop", []int{2}},
	OpCall:          {"OpCall", []int{1}},
	OpReturn:        {"OpReturn", nil},
}

func Lookup(op Opcode) (*Definition, bool) {
	def, ok := definitions[op]
	return def, ok
}

// Width is the encoded size of an instruction including its opcode byte.
func (d *Definition) Width() int {
	n := 1
	for _, w := range d.OperandWidths {
		n += w
	}
	return n
}

func Make(op Opcode, operands ...int) Instructions {
	def, ok := definitions[op]
	if !ok {
		return Instructions{}
	}

	ins := make([]byte, def.Width())
	ins[0] = byte(op)

	offset := 1
	for i, o := range operands {
		w := def.OperandWidths[i]
		switch w {
		case 1:
			ins[offset] = byte(o)
		case 2:
			binary.BigEndian.PutUint16(ins[offset:], uint16(o))
		}
		offset += w
	}
	return ins
}

func ReadOperands(def *Definition, ins Instructions) ([]int, int) {
	operands := make([]int, len(def.OperandWidths))
	offset := 0

	for i, w := range def.OperandWidths {
		switch w {
		case 1:
			operands[i] = int(ins[offset])
		case 2:
			operands[i] = int(binary.BigEndian.Uint16(ins[offset:]))
		default:
			panic("unsupported operand width")
		}
		offset += w
	}
	return operands, offset
}

func ReadUint16(ins Instructions) uint16 {
	return binary.BigEndian.Uint16(ins)
}
