package object

import (
	"math"
	"strconv"
)

type ValueType uint8

const (
	ValNil ValueType = iota
	ValBool
	ValNumber
	ValObj
)

// Value is the tagged union held in stack slots, constant pools and tables.
// The zero Value is nil.
type Value struct {
	Type ValueType
	Data uint64 // float64 bits or bool (0/1)
	Obj  Obj
}

func NilVal() Value {
	return Value{Type: ValNil}
}

func BoolVal(b bool) Value {
	var data uint64
	if b {
		data = 1
	}
	return Value{Type: ValBool, Data: data}
}

func NumberVal(f float64) Value {
	return Value{Type: ValNumber, Data: math.Float64bits(f)}
}

func ObjVal(o Obj) Value {
	return Value{Type: ValObj, Obj: o}
}

func (v Value) IsNil() bool    { return v.Type == ValNil }
func (v Value) IsBool() bool   { return v.Type == ValBool }
func (v Value) IsNumber() bool { return v.Type == ValNumber }
func (v Value) IsObj() bool    { return v.Type == ValObj }

func (v Value) AsBool() bool      { return v.Data == 1 }
func (v Value) AsNumber() float64 { return math.Float64frombits(v.Data) }
func (v Value) AsObj() Obj        { return v.Obj }

func (v Value) AsString() (*String, bool) {
	if v.Type != ValObj {
		return nil, false
	}
	s, ok := v.Obj.(*String)
	return s, ok
}

func (v Value) AsFunction() (*Function, bool) {
	if v.Type != ValObj {
		return nil, false
	}
	fn, ok := v.Obj.(*Function)
	return fn, ok
}

func (v Value) IsString() bool {
	_, ok := v.AsString()
	return ok
}

// IsFalsey reports whether v is nil or false. Everything else is truthy.
func (v Value) IsFalsey() bool {
	switch v.Type {
	case ValNil:
		return true
	case ValBool:
		return !v.AsBool()
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.Type {
	case ValNil:
		return "nil"
	case ValBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case ValNumber:
		return FormatNumber(v.AsNumber())
	case ValObj:
		return v.Obj.Inspect()
	default:
		return "<invalid>"
	}
}

// Equal never fails. Objects compare by identity, which is content equality
// for strings because they are interned.
func Equal(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case ValNil:
		return true
	case ValBool:
		return a.AsBool() == b.AsBool()
	case ValNumber:
		return a.AsNumber() == b.AsNumber()
	case ValObj:
		return a.Obj == b.Obj
	default:
		return false
	}
}

// FormatNumber renders f the way C's %g does.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', 6, 64)
}
