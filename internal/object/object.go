package object

type ObjType uint8

const (
	STRING_OBJ ObjType = iota
	FUNCTION_OBJ
)

func (t ObjType) String() string {
	switch t {
	case STRING_OBJ:
		return "STRING"
	case FUNCTION_OBJ:
		return "FUNCTION"
	default:
		return "UNKNOWN"
	}
}

// Obj is a heap object. The set of implementations is closed: *String and
// *Function.
type Obj interface {
	Type() ObjType
	Inspect() string
	ObjHeader() *Header
}

// Header is embedded in every heap object. Next threads the owning heap's
// allocation list.
type Header struct {
	Next Obj
}

func (h *Header) ObjHeader() *Header { return h }

type String struct {
	Header
	Chars string
	Hash  uint32
}

func (*String) Type() ObjType     { return STRING_OBJ }
func (s *String) Inspect() string { return s.Chars }

type Function struct {
	Header
	Arity int
	Chunk *Chunk
	Name  *String // nil for the top-level script
}

func (*Function) Type() ObjType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	if f.Name == nil {
		return "<script>"
	}
	return "<fn " + f.Name.Chars + ">"
}

// DisplayName is the name used in listings and stack traces.
func (f *Function) DisplayName() string {
	if f.Name == nil {
		return "script"
	}
	return f.Name.Chars
}

// HashString is 32-bit FNV-1a over the bytes of s.
func HashString(s string) uint32 {
	hash := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}
