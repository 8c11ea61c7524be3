// Package code defines CompiledCode, the immutable bytecode artifact
// consumed by the interpreter (spec §3, component C3). Nothing in this
// package produces a CompiledCode from source text — that is the job of
// the external compiler, out of scope for this repository (spec §1).
package code

import "github.com/wudi/corevm/opcodes"

// CompiledCode is an immutable bytecode artifact: an instruction stream,
// its literal pools, any nested code objects it references, its required
// argument count, its privacy flag, and source location metadata for
// diagnostics.
//
// New sets the name, location and instruction stream; the remaining fields
// are filled in by the builder before the value is handed to the VM, and
// none is mutated afterward. This lets many Threads execute the same
// CompiledCode concurrently without synchronization.
type CompiledCode struct {
	Name string
	File string
	Line int

	Instructions []opcodes.Instruction

	IntegerLiterals []int64
	FloatLiterals   []float64
	StringLiterals  []string

	CodeObjects []*CompiledCode

	RequiredArguments int
	IsPrivate         bool
}

// New constructs a CompiledCode. The instruction slice passed in becomes
// owned by the returned value and must not be mutated afterward by the
// caller.
func New(name, file string, line int, instructions []opcodes.Instruction) *CompiledCode {
	return &CompiledCode{
		Name:         name,
		File:         file,
		Line:         line,
		Instructions: instructions,
	}
}

// Integer returns the integer literal at index i.
func (c *CompiledCode) Integer(i uint32) (int64, bool) {
	if int(i) >= len(c.IntegerLiterals) {
		return 0, false
	}
	return c.IntegerLiterals[i], true
}

// Float returns the float literal at index i.
func (c *CompiledCode) Float(i uint32) (float64, bool) {
	if int(i) >= len(c.FloatLiterals) {
		return 0, false
	}
	return c.FloatLiterals[i], true
}

// String returns the string literal at index i.
func (c *CompiledCode) String(i uint32) (string, bool) {
	if int(i) >= len(c.StringLiterals) {
		return "", false
	}
	return c.StringLiterals[i], true
}

// CodeObject returns the nested CompiledCode at index i.
func (c *CompiledCode) CodeObject(i uint32) (*CompiledCode, bool) {
	if int(i) >= len(c.CodeObjects) {
		return nil, false
	}
	return c.CodeObjects[i], true
}

// Instruction returns the instruction at ip, or false if ip is out of
// range (the interpreter treats this as normal loop termination, not an
// error — it is how a CompiledCode with an implicit nil return ends).
func (c *CompiledCode) Instruction(ip int) (opcodes.Instruction, bool) {
	if ip < 0 || ip >= len(c.Instructions) {
		return opcodes.Instruction{}, false
	}
	return c.Instructions[ip], true
}
