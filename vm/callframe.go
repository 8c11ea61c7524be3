package vm

import (
	"github.com/wudi/corevm/object"
	"github.com/wudi/corevm/vmerror"
)

// CallFrame is a per-invocation record (spec §3, component C4): the
// currently executing code's location, a link to the caller's frame, and
// this invocation's local-variable slots. Frames form a cactus stack
// (each Thread has its own chain, linked through Parent) pushed by
// Send/RunCode and popped by Return.
type CallFrame struct {
	File   string
	Name   string
	Line   int
	Parent *CallFrame

	locals []*object.Object
}

// NewCallFrame constructs a CallFrame with no locals and no parent.
func NewCallFrame(file, name string, line int) *CallFrame {
	return &CallFrame{File: file, Name: name, Line: line}
}

// Local returns the local at index i, or (nil, false) if i is out of
// range.
func (f *CallFrame) Local(i int) (*object.Object, bool) {
	if i < 0 || i >= len(f.locals) {
		return nil, false
	}
	return f.locals[i], true
}

// SetLocal assigns the local at index i, growing the locals slice with
// nils as needed.
func (f *CallFrame) SetLocal(i int, v *object.Object) {
	for len(f.locals) <= i {
		f.locals = append(f.locals, nil)
	}
	f.locals[i] = v
}

// AddLocal appends v as a new local, returning its index.
func (f *CallFrame) AddLocal(v *object.Object) int {
	f.locals = append(f.locals, v)
	return len(f.locals) - 1
}

// errorFrames walks the chain from f outward, producing one vmerror.Frame
// per CallFrame, innermost first, for the fatal-error report of spec §6.
func errorFrames(f *CallFrame) []vmerror.Frame {
	var out []vmerror.Frame
	for cur := f; cur != nil; cur = cur.Parent {
		out = append(out, vmerror.Frame{File: cur.File, Name: cur.Name, Line: cur.Line})
	}
	return out
}
