package vm

import (
	"fmt"
	"strings"
)

// RuntimeError is fatal to the run. Trace lists the active calls, innermost
// first.
type RuntimeError struct {
	Message string
	Trace   []string
}

func (e *RuntimeError) Error() string {
	if len(e.Trace) == 0 {
		return e.Message
	}
	return e.Message + "\n" + strings.Join(e.Trace, "\n")
}

// runtimeError captures the frame trace and resets the stack.
func (m *VM) runtimeError(format string, args ...any) error {
	err := &RuntimeError{Message: fmt.Sprintf(format, args...)}
	for i := m.frameCount - 1; i >= 0; i-- {
		f := &m.frames[i]
		if f.fn.Name == nil {
			err.Trace = append(err.Trace, fmt.Sprintf("[line %d] in script", f.line()))
		} else {
			err.Trace = append(err.Trace, fmt.Sprintf("[line %d] in %s()", f.line(), f.fn.Name.Chars))
		}
	}
	m.resetStack()
	return err
}
