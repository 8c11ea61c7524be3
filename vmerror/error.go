// Package vmerror defines the VM's error taxonomy (spec §7) and the fatal
// error report format it is printed in (spec §6). It depends on nothing
// else in this module so that both package object and package vm can
// construct and return vmerror.Error without an import cycle.
package vmerror

import (
	"fmt"
	"strings"
)

// Kind is one of the error kinds of spec §7. Every Kind is fatal to the
// thread that raised it; none are caught by user code (spec §7
// "Propagation policy").
type Kind int

const (
	// Decode is raised when an instruction references a missing
	// argument, literal index, slot, local, code object, or
	// attribute/constant.
	Decode Kind = iota
	// Type is raised when an instruction requires a specific payload
	// kind and receives another.
	Type
	// Arithmetic is raised by integer divide or modulo by zero.
	Arithmetic
	// Dispatch is raised by an unknown method, a visibility violation,
	// or a wrong argument count at Send.
	Dispatch
	// Setup is raised by a double installation of a well-known
	// prototype, or use of one before it is installed.
	Setup
)

func (k Kind) String() string {
	switch k {
	case Decode:
		return "decode error"
	case Type:
		return "type error"
	case Arithmetic:
		return "arithmetic error"
	case Dispatch:
		return "dispatch error"
	case Setup:
		return "setup error"
	default:
		return "error"
	}
}

// Frame is a snapshot of one CallFrame at the moment an Error was raised:
// just enough to print the fatal-error report of spec §6 without holding
// a live reference into a Thread that may already be unwinding.
type Frame struct {
	File string
	Name string
	Line int
}

// Error is a fatal VM error: a Kind, a message, and the CallFrame chain of
// the Thread that raised it, innermost frame first.
type Error struct {
	Kind    Kind
	Message string
	Frames  []Frame
}

// New constructs an Error of the given kind with the given message and no
// captured frames. The interpreter's per-kind error helpers call this and
// then attach the failing Thread's current CallFrame chain via WithFrames.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithFrames returns a copy of e with its Frames replaced.
func (e *Error) WithFrames(frames []Frame) *Error {
	cp := *e
	cp.Frames = frames
	return &cp
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Format renders the fatal-error report of spec §6:
//
//	Fatal error:
//
//	<message>
//	<file> line <line> in "<frame-name>"
//	...
func (e *Error) Format() string {
	return e.FormatDepth(len(e.Frames))
}

// FormatDepth renders the same report as Format but includes at most
// maxFrames of the captured CallFrame chain, innermost first. A
// Scheduler with config.VMConfig.TraceFatal false calls this with 1 so
// the report names only the frame that raised the error.
func (e *Error) FormatDepth(maxFrames int) string {
	var b strings.Builder
	b.WriteString("Fatal error:\n\n")
	b.WriteString(e.Message)
	frames := e.Frames
	if maxFrames >= 0 && maxFrames < len(frames) {
		frames = frames[:maxFrames]
	}
	for _, f := range frames {
		fmt.Fprintf(&b, "\n%s line %d in %q", f.File, f.Line, f.Name)
	}
	b.WriteString("\n")
	return b.String()
}
