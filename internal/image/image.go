// Package image stores compiled functions on disk as CBOR so a program can be
// run without recompiling it.
package image

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"

	"plume/internal/code"
	"plume/internal/heap"
	"plume/internal/object"
)

const (
	Magic   = "plume"
	Version = 1
)

var ErrNotImage = errors.New("image: not a plume bytecode image")

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

type File struct {
	Magic   string   `cbor:"1,keyasint"`
	Version int      `cbor:"2,keyasint"`
	Script  Function `cbor:"3,keyasint"`
}

// Function mirrors object.Function. An empty Name marks the top-level script.
type Function struct {
	Name      string     `cbor:"1,keyasint,omitempty"`
	Arity     int        `cbor:"2,keyasint"`
	Code      []byte     `cbor:"3,keyasint"`
	Lines     []LineRun  `cbor:"4,keyasint"`
	Constants []Constant `cbor:"5,keyasint,omitempty"`
}

type LineRun struct {
	Offset int `cbor:"1,keyasint"`
	Line   int `cbor:"2,keyasint"`
}

type ConstKind uint8

const (
	ConstNil ConstKind = iota
	ConstBool
	ConstNumber
	ConstString
	ConstFunction
)

type Constant struct {
	Kind     ConstKind `cbor:"1,keyasint"`
	Bool     bool      `cbor:"2,keyasint,omitempty"`
	Number   float64   `cbor:"3,keyasint,omitempty"`
	String   string    `cbor:"4,keyasint,omitempty"`
	Function *Function `cbor:"5,keyasint,omitempty"`
}

// Marshal encodes a compiled script deterministically.
func Marshal(fn *object.Function) ([]byte, error) {
	f := File{Magic: Magic, Version: Version}
	if err := fromFunction(&f.Script, fn); err != nil {
		return nil, err
	}
	return encMode.Marshal(&f)
}

// Unmarshal decodes an image, allocating its functions and strings on h.
func Unmarshal(data []byte, h *heap.Heap) (*object.Function, error) {
	var f File
	if err := cbor.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("image: unmarshal: %w", err)
	}
	if f.Magic != Magic {
		return nil, ErrNotImage
	}
	if f.Version > Version {
		return nil, fmt.Errorf("image: version %d is newer than supported version %d", f.Version, Version)
	}
	return toFunction(&f.Script, h)
}

func WriteFile(path string, fn *object.Function) error {
	data, err := Marshal(fn)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func Read(r io.Reader, h *heap.Heap) (*object.Function, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data, h)
}

func ReadFile(path string, h *heap.Heap) (*object.Function, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data, h)
}

// IsImage reports whether data starts like an encoded image. It only checks
// the leading CBOR map header and magic key, not the whole document.
func IsImage(data []byte) bool {
	var probe struct {
		Magic string `cbor:"1,keyasint"`
	}
	if err := cbor.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.Magic == Magic
}

func fromFunction(dst *Function, fn *object.Function) error {
	if fn.Name != nil {
		dst.Name = fn.Name.Chars
	}
	dst.Arity = fn.Arity
	dst.Code = append([]byte(nil), fn.Chunk.Code...)
	for _, r := range fn.Chunk.Lines.Runs() {
		dst.Lines = append(dst.Lines, LineRun{Offset: r.Offset, Line: r.Line})
	}

	for _, v := range fn.Chunk.Constants {
		var c Constant
		switch v.Type {
		case object.ValNil:
			c.Kind = ConstNil
		case object.ValBool:
			c.Kind = ConstBool
			c.Bool = v.AsBool()
		case object.ValNumber:
			c.Kind = ConstNumber
			c.Number = v.AsNumber()
		case object.ValObj:
			switch o := v.AsObj().(type) {
			case *object.String:
				c.Kind = ConstString
				c.String = o.Chars
			case *object.Function:
				c.Kind = ConstFunction
				c.Function = &Function{}
				if err := fromFunction(c.Function, o); err != nil {
					return err
				}
			default:
				return fmt.Errorf("image: cannot encode %s constant", o.Type())
			}
		}
		dst.Constants = append(dst.Constants, c)
	}
	return nil
}

func toFunction(src *Function, h *heap.Heap) (*object.Function, error) {
	fn, err := h.NewFunction()
	if err != nil {
		return nil, err
	}
	fn.Arity = src.Arity
	if src.Name != "" {
		if fn.Name, err = h.CopyString(src.Name); err != nil {
			return nil, err
		}
	}

	fn.Chunk.Code = append(code.Instructions(nil), src.Code...)
	runs := make([]code.LineRun, len(src.Lines))
	for i, r := range src.Lines {
		runs[i] = code.LineRun{Offset: r.Offset, Line: r.Line}
	}
	fn.Chunk.Lines = code.NewLineTable(runs)

	for i := range src.Constants {
		c := &src.Constants[i]
		var v object.Value
		switch c.Kind {
		case ConstNil:
			v = object.NilVal()
		case ConstBool:
			v = object.BoolVal(c.Bool)
		case ConstNumber:
			v = object.NumberVal(c.Number)
		case ConstString:
			s, err := h.CopyString(c.String)
			if err != nil {
				return nil, err
			}
			v = object.ObjVal(s)
		case ConstFunction:
			if c.Function == nil {
				return nil, fmt.Errorf("image: function constant %d is empty", i)
			}
			inner, err := toFunction(c.Function, h)
			if err != nil {
				return nil, err
			}
			v = object.ObjVal(inner)
		default:
			return nil, fmt.Errorf("image: unknown constant kind %d", c.Kind)
		}
		fn.Chunk.Constants = append(fn.Chunk.Constants, v)
	}

	if err := verify(fn); err != nil {
		return nil, err
	}
	return fn, nil
}

// verify checks a decoded chunk before the VM is allowed to run it: every
// instruction is complete, constant and global operands are in range, jumps
// land on instruction boundaries, the code ends in OpReturn, and every path
// keeps the stack deep enough for the operands it pops and the locals it
// names.
func verify(fn *object.Function) error {
	chunk := fn.Chunk
	ins := chunk.Code
	name := fn.DisplayName()
	if len(ins) == 0 {
		return fmt.Errorf("image: %s has no code", name)
	}

	decoded := make([]*instruction, len(ins))
	last := 0
	for ip := 0; ip < len(ins); {
		op := code.Opcode(ins[ip])
		def, ok := code.Lookup(op)
		if !ok {
			return fmt.Errorf("image: %s: unknown opcode %d at %d", name, op, ip)
		}
		if ip+def.Width() > len(ins) {
			return fmt.Errorf("image: %s: truncated %s at %d", name, def.Name, ip)
		}
		operands, read := code.ReadOperands(def, ins[ip+1:])
		in := &instruction{op: op, operands: operands, next: ip + 1 + read}

		switch op {
		case code.OpConstant:
			if operands[0] >= len(chunk.Constants) {
				return fmt.Errorf("image: %s: constant %d out of range at %d", name, operands[0], ip)
			}
		case code.OpGetGlobal, code.OpDefineGlobal, code.OpSetGlobal:
			if operands[0] >= len(chunk.Constants) || !chunk.Constants[operands[0]].IsString() {
				return fmt.Errorf("image: %s: bad global name %d at %d", name, operands[0], ip)
			}
		case code.OpJump, code.OpJumpIfFalse, code.OpJumpIfUnequal:
			in.target = in.next + operands[0]
		case code.OpLoop:
			in.target = in.next - operands[0]
		}
		decoded[ip] = in
		last = ip
		ip = in.next
	}

	for ip, in := range decoded {
		if in == nil || !in.jumps() {
			continue
		}
		switch {
		case in.target < 0:
			return fmt.Errorf("image: %s: loop before start at %d", name, ip)
		case in.target >= len(ins):
			return fmt.Errorf("image: %s: jump past end at %d", name, ip)
		case decoded[in.target] == nil:
			return fmt.Errorf("image: %s: jump into the middle of an instruction at %d", name, ip)
		}
	}
	if decoded[last].op != code.OpReturn {
		return fmt.Errorf("image: %s does not end in OpReturn", name)
	}

	return verifyStack(fn, decoded)
}

type instruction struct {
	op       code.Opcode
	operands []int
	next     int
	target   int
}

func (in *instruction) jumps() bool {
	switch in.op {
	case code.OpJump, code.OpJumpIfFalse, code.OpJumpIfUnequal, code.OpLoop:
		return true
	}
	return false
}

// stackEffect reports how many values op consumes and leaves. Instructions
// that only peek count as popping and pushing the same value.
func (in *instruction) stackEffect() (pops, pushes int) {
	switch in.op {
	case code.OpConstant, code.OpNil, code.OpTrue, code.OpFalse, code.OpGetLocal, code.OpGetGlobal:
		return 0, 1
	case code.OpPop, code.OpDefineGlobal, code.OpPrint, code.OpReturn:
		return 1, 0
	case code.OpPopN:
		return in.operands[0], 0
	case code.OpSetLocal, code.OpSetGlobal, code.OpNot, code.OpNegate, code.OpJumpIfFalse:
		return 1, 1
	case code.OpEqual, code.OpGreater, code.OpLess, code.OpAdd, code.OpSubtract, code.OpMultiply,
		code.OpDivide, code.OpJumpIfUnequal:
		return 2, 1
	case code.OpCall:
		return in.operands[0] + 1, 1
	}
	return 0, 0
}

// verifyStack walks every reachable path tracking the frame's stack depth,
// counted from slot 0 (the callee). Slot 0 must never be popped, and paths
// that meet must agree on the depth.
func verifyStack(fn *object.Function, decoded []*instruction) error {
	name := fn.DisplayName()
	depth := make([]int, len(decoded))
	depth[0] = fn.Arity + 1
	work := []int{0}

	for len(work) > 0 {
		ip := work[len(work)-1]
		work = work[:len(work)-1]
		in := decoded[ip]
		d := depth[ip]

		pops, pushes := in.stackEffect()
		if d-pops < 1 {
			return fmt.Errorf("image: %s: stack underflow at %d", name, ip)
		}
		switch in.op {
		case code.OpGetLocal:
			// A local read inside its own initializer names the slot about
			// to be pushed.
			if in.operands[0] > d {
				return fmt.Errorf("image: %s: local slot %d out of range at %d", name, in.operands[0], ip)
			}
		case code.OpSetLocal:
			if in.operands[0] >= d {
				return fmt.Errorf("image: %s: local slot %d out of range at %d", name, in.operands[0], ip)
			}
		}
		d = d - pops + pushes

		var succ []int
		switch in.op {
		case code.OpReturn:
		case code.OpJump, code.OpLoop:
			succ = []int{in.target}
		case code.OpJumpIfFalse, code.OpJumpIfUnequal:
			succ = []int{in.next, in.target}
		default:
			succ = []int{in.next}
		}
		for _, s := range succ {
			if s >= len(decoded) {
				return fmt.Errorf("image: %s: runs past the end at %d", name, ip)
			}
			switch depth[s] {
			case 0:
				depth[s] = d
				work = append(work, s)
			case d:
			default:
				return fmt.Errorf("image: %s: inconsistent stack depth at %d (%d and %d)", name, s, depth[s], d)
			}
		}
	}
	return nil
}
