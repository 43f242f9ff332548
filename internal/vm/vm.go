// Package vm executes compiled functions on an operand stack shared by a
// bounded stack of call frames.
package vm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/tliron/commonlog"

	"plume/internal/code"
	"plume/internal/compiler"
	"plume/internal/diag"
	"plume/internal/heap"
	"plume/internal/limits"
	"plume/internal/object"
	"plume/internal/table"
)

var log = commonlog.GetLogger("plume.vm")

const (
	FramesMax        = 64
	initialStackSize = 256
)

type Result int

const (
	ResultOK Result = iota
	ResultCompileError
	ResultRuntimeError
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultCompileError:
		return "compile error"
	case ResultRuntimeError:
		return "runtime error"
	default:
		return "unknown"
	}
}

type VM struct {
	stack []object.Value
	sp    int

	frames     []CallFrame
	frameCount int

	globals *table.Table
	heap    *heap.Heap

	out     io.Writer
	errOut  io.Writer
	trace   io.Writer
	listing io.Writer
}

func New() *VM {
	return &VM{
		stack:   make([]object.Value, initialStackSize),
		frames:  make([]CallFrame, FramesMax),
		globals: table.New(),
		heap:    heap.New(),
		out:     os.Stdout,
		errOut:  os.Stderr,
	}
}

func (m *VM) SetOutput(w io.Writer)      { m.out = w }
func (m *VM) SetErrorOutput(w io.Writer) { m.errOut = w }

// SetTrace prints the stack and each instruction before it executes.
func (m *VM) SetTrace(w io.Writer) { m.trace = w }

// SetListing disassembles every function compiled by Interpret.
func (m *VM) SetListing(w io.Writer) { m.listing = w }

// SetMaxFrames bounds call depth. n <= 0 restores FramesMax.
func (m *VM) SetMaxFrames(n int) {
	if n <= 0 {
		n = FramesMax
	}
	m.frames = make([]CallFrame, n)
}

// SetMaxMemory caps the bytes the VM's heap may allocate. 0 is unlimited.
func (m *VM) SetMaxMemory(n int64) {
	m.heap.SetBudget(limits.NewBudget(n))
}

// Heap is the allocator shared with the compiler and image loader.
func (m *VM) Heap() *heap.Heap {
	return m.heap
}

// Interpret compiles source against the VM's heap and runs it. Globals
// persist across calls.
func (m *VM) Interpret(source string) Result {
	log.Debugf("interpreting %d bytes", len(source))

	c := compiler.New(source, m.heap)
	if m.listing != nil {
		c.SetListing(m.listing)
	}
	fn, err := c.Compile()
	if err != nil {
		var list diag.List
		if errors.As(err, &list) {
			for _, d := range list {
				fmt.Fprintln(m.errOut, d.Format())
			}
		} else {
			fmt.Fprintln(m.errOut, err)
		}
		return ResultCompileError
	}
	return m.Execute(fn)
}

// Execute runs an already compiled top-level function and reports runtime
// errors on the error writer.
func (m *VM) Execute(fn *object.Function) Result {
	if err := m.Run(fn); err != nil {
		fmt.Fprintln(m.errOut, err)
		return ResultRuntimeError
	}
	return ResultOK
}

// Run executes fn and returns a *RuntimeError on failure.
func (m *VM) Run(fn *object.Function) error {
	m.push(object.ObjVal(fn))
	if err := m.call(fn, 0); err != nil {
		return err
	}
	return m.run()
}

type Global struct {
	Name  string
	Value object.Value
}

// Globals returns the defined globals sorted by name.
func (m *VM) Globals() []Global {
	out := make([]Global, 0, m.globals.Len())
	m.globals.Each(func(key *object.String, value object.Value) {
		out = append(out, Global{Name: key.Chars, Value: value})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// StackDepth is the number of values on the operand stack.
func (m *VM) StackDepth() int {
	return m.sp
}

// Free releases every heap object and forgets all globals.
func (m *VM) Free() {
	m.resetStack()
	m.globals = table.New()
	n := m.heap.Free()
	log.Debugf("released %d objects", n)
}

func (m *VM) push(v object.Value) {
	if m.sp == len(m.stack) {
		grown := make([]object.Value, len(m.stack)*2)
		copy(grown, m.stack)
		m.stack = grown
	}
	m.stack[m.sp] = v
	m.sp++
}

func (m *VM) pop() object.Value {
	m.sp--
	v := m.stack[m.sp]
	m.stack[m.sp] = object.Value{}
	return v
}

func (m *VM) peek(distance int) object.Value {
	return m.stack[m.sp-1-distance]
}

// truncate drops every slot from base upward.
func (m *VM) truncate(base int) {
	for i := base; i < m.sp; i++ {
		m.stack[i] = object.Value{}
	}
	m.sp = base
}

func (m *VM) resetStack() {
	m.truncate(0)
	m.frameCount = 0
}

func (m *VM) callValue(callee object.Value, argc int) error {
	if fn, ok := callee.AsFunction(); ok {
		return m.call(fn, argc)
	}
	return m.runtimeError("Can only call functions.")
}

func (m *VM) call(fn *object.Function, argc int) error {
	if argc != fn.Arity {
		return m.runtimeError("Expected %d arguments but got %d.", fn.Arity, argc)
	}
	if m.frameCount == len(m.frames) {
		return m.runtimeError("Stack overflow.")
	}

	f := &m.frames[m.frameCount]
	m.frameCount++
	f.fn = fn
	f.ip = 0
	f.base = m.sp - argc - 1
	return nil
}

func (m *VM) run() error {
	frame := &m.frames[m.frameCount-1]

	for {
		if m.trace != nil {
			m.traceStep(frame)
		}

		op := code.Opcode(frame.readByte())
		switch op {
		case code.OpConstant:
			m.push(frame.readConstant())

		case code.OpNil:
			m.push(object.NilVal())
		case code.OpTrue:
			m.push(object.BoolVal(true))
		case code.OpFalse:
			m.push(object.BoolVal(false))

		case code.OpPop:
			m.pop()
		case code.OpPopN:
			n := int(frame.readByte())
			m.truncate(m.sp - n)

		case code.OpGetLocal:
			idx := frame.base + int(frame.readByte())
			// A local read inside its own initializer has no slot yet.
			if idx >= m.sp {
				m.push(object.NilVal())
				break
			}
			m.push(m.stack[idx])
		case code.OpSetLocal:
			idx := frame.base + int(frame.readByte())
			m.stack[idx] = m.peek(0)

		case code.OpGetGlobal:
			name := frame.readString()
			v, ok := m.globals.Get(name)
			if !ok {
				return m.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			m.push(v)
		case code.OpDefineGlobal:
			name := frame.readString()
			m.globals.Set(name, m.peek(0))
			m.pop()
		case code.OpSetGlobal:
			name := frame.readString()
			if m.globals.Set(name, m.peek(0)) {
				m.globals.Delete(name)
				return m.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case code.OpEqual:
			b := m.pop()
			a := m.pop()
			m.push(object.BoolVal(object.Equal(a, b)))

		case code.OpGreater, code.OpLess, code.OpSubtract, code.OpMultiply, code.OpDivide:
			if err := m.execNumberOp(op); err != nil {
				return err
			}

		case code.OpAdd:
			if err := m.execAdd(); err != nil {
				return err
			}

		case code.OpNot:
			m.push(object.BoolVal(m.pop().IsFalsey()))
		case code.OpNegate:
			v := m.pop()
			if !v.IsNumber() {
				return m.runtimeError("Operand must be a number.")
			}
			m.push(object.NumberVal(-v.AsNumber()))

		case code.OpPrint:
			fmt.Fprintln(m.out, m.pop().String())

		case code.OpJump:
			offset := frame.readShort()
			frame.ip += offset
		case code.OpJumpIfFalse:
			offset := frame.readShort()
			if m.peek(0).IsFalsey() {
				frame.ip += offset
			}
		case code.OpJumpIfUnequal:
			offset := frame.readShort()
			caseValue := m.pop()
			if !object.Equal(m.peek(0), caseValue) {
				frame.ip += offset
			}
		case code.OpLoop:
			offset := frame.readShort()
			frame.ip -= offset

		case code.OpCall:
			argc := int(frame.readByte())
			if err := m.callValue(m.peek(argc), argc); err != nil {
				return err
			}
			frame = &m.frames[m.frameCount-1]

		case code.OpReturn:
			result := m.pop()
			m.frameCount--
			if m.frameCount == 0 {
				m.pop()
				return nil
			}
			m.truncate(frame.base)
			m.push(result)
			frame = &m.frames[m.frameCount-1]

		default:
			return m.runtimeError("Unknown opcode %d.", op)
		}
	}
}

// execNumberOp pops both operands before checking their types.
func (m *VM) execNumberOp(op code.Opcode) error {
	b := m.pop()
	a := m.pop()
	if !a.IsNumber() || !b.IsNumber() {
		return m.runtimeError("Operands must be numbers.")
	}
	x, y := a.AsNumber(), b.AsNumber()

	switch op {
	case code.OpGreater:
		m.push(object.BoolVal(x > y))
	case code.OpLess:
		m.push(object.BoolVal(x < y))
	case code.OpSubtract:
		m.push(object.NumberVal(x - y))
	case code.OpMultiply:
		m.push(object.NumberVal(x * y))
	case code.OpDivide:
		m.push(object.NumberVal(x / y))
	}
	return nil
}

func (m *VM) execAdd() error {
	b := m.pop()
	a := m.pop()

	if a.IsNumber() && b.IsNumber() {
		m.push(object.NumberVal(a.AsNumber() + b.AsNumber()))
		return nil
	}

	as, aok := a.AsString()
	bs, bok := b.AsString()
	if !aok || !bok {
		return m.runtimeError("Operands must be numbers.")
	}
	s, err := m.heap.TakeString(as.Chars + bs.Chars)
	if err != nil {
		return m.runtimeError("%s", err.Error())
	}
	m.push(object.ObjVal(s))
	return nil
}

func (m *VM) traceStep(frame *CallFrame) {
	fmt.Fprint(m.trace, "          ")
	for i := 0; i < m.sp; i++ {
		fmt.Fprintf(m.trace, "[ %s ]", m.stack[i])
	}
	fmt.Fprintln(m.trace)
	compiler.DisassembleInstruction(m.trace, frame.fn.Chunk, frame.ip)
}
