// Package heap owns every object the compiler and VM allocate. Objects are
// threaded onto an intrusive list and released together by Free. Strings are
// interned so equal contents share one *object.String.
package heap

import (
	"github.com/tliron/commonlog"

	"plume/internal/limits"
	"plume/internal/object"
	"plume/internal/table"
)

var log = commonlog.GetLogger("plume.heap")

type Heap struct {
	objects object.Obj
	count   int
	strings *table.Table
	budget  *limits.Budget
}

func New() *Heap {
	return &Heap{strings: table.New()}
}

// SetBudget caps the bytes the heap may allocate. A nil budget is unlimited.
func (h *Heap) SetBudget(b *limits.Budget) {
	h.budget = b
}

func (h *Heap) Budget() *limits.Budget {
	return h.budget
}

// Strings is the intern set. Keys are the interned strings; values are nil.
func (h *Heap) Strings() *table.Table {
	return h.strings
}

// CopyString returns the interned string with the given contents, allocating
// it if needed.
func (h *Heap) CopyString(chars string) (*object.String, error) {
	hash := object.HashString(chars)
	if interned := h.strings.FindString(chars, hash); interned != nil {
		return interned, nil
	}
	return h.allocateString(chars, hash)
}

// TakeString is CopyString for a freshly built buffer, such as the result of a
// concatenation. Go strings are immutable so the buffer is shared either way.
func (h *Heap) TakeString(chars string) (*object.String, error) {
	return h.CopyString(chars)
}

func (h *Heap) allocateString(chars string, hash uint32) (*object.String, error) {
	if err := h.budget.Charge(object.CostString(len(chars))); err != nil {
		return nil, err
	}
	s := &object.String{Chars: chars, Hash: hash}
	h.link(s)
	h.strings.Set(s, object.NilVal())
	return s, nil
}

func (h *Heap) NewFunction() (*object.Function, error) {
	if err := h.budget.Charge(object.CostFunction()); err != nil {
		return nil, err
	}
	fn := &object.Function{Chunk: object.NewChunk()}
	h.link(fn)
	return fn, nil
}

// Adopt links an object built elsewhere, such as by the image decoder, and
// interns it if it is a string. For strings the interned instance is
// returned, which may differ from o.
func (h *Heap) Adopt(o object.Obj) (object.Obj, error) {
	switch v := o.(type) {
	case *object.String:
		s, err := h.CopyString(v.Chars)
		if err != nil {
			return nil, err
		}
		return s, nil
	case *object.Function:
		if err := h.budget.Charge(object.CostFunction()); err != nil {
			return nil, err
		}
		h.link(v)
	}
	return o, nil
}

func (h *Heap) link(o object.Obj) {
	o.ObjHeader().Next = h.objects
	h.objects = o
	h.count++
}

// Objects returns every live object, most recently allocated first.
func (h *Heap) Objects() []object.Obj {
	out := make([]object.Obj, 0, h.count)
	for o := h.objects; o != nil; o = o.ObjHeader().Next {
		out = append(out, o)
	}
	return out
}

func (h *Heap) Len() int {
	return h.count
}

// Free releases every object and empties the intern set. It returns the
// number of objects released.
func (h *Heap) Free() int {
	n := 0
	o := h.objects
	for o != nil {
		hdr := o.ObjHeader()
		next := hdr.Next
		hdr.Next = nil
		h.budget.Release(cost(o))
		o = next
		n++
	}
	h.objects = nil
	h.count = 0
	h.strings = table.New()
	log.Debugf("freed %d objects", n)
	return n
}

func cost(o object.Obj) int64 {
	switch v := o.(type) {
	case *object.String:
		return object.CostString(len(v.Chars))
	case *object.Function:
		return object.CostFunction()
	default:
		return 0
	}
}
