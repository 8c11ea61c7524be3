// Package asmutil hand-assembles CompiledCode values for tests and the
// cmd/corevm demo runner. It is not part of the VM's external interface
// (spec §6: "the runtime does not define [the artifact's] serialization
// format") — it exists only because this repository has no compiler
// front end to produce a CompiledCode from source text (spec §1).
package asmutil

import (
	"github.com/wudi/corevm/code"
	"github.com/wudi/corevm/opcodes"
)

// Builder incrementally assembles a CompiledCode's instruction stream and
// literal pools.
type Builder struct {
	name string
	file string
	line int

	instructions []opcodes.Instruction
	ints         []int64
	floats       []float64
	strings      []string
	codeObjects  []*code.CompiledCode

	requiredArgs int
	private      bool
}

// New starts a Builder for a CompiledCode named name, attributed to file.
func New(name, file string) *Builder {
	return &Builder{name: name, file: file, line: 1}
}

// RequiredArgs sets the number of arguments the resulting CompiledCode
// requires (relevant when it is installed as a method body).
func (b *Builder) RequiredArgs(n int) *Builder {
	b.requiredArgs = n
	return b
}

// Private marks the resulting CompiledCode as private.
func (b *Builder) Private() *Builder {
	b.private = true
	return b
}

// Int appends an integer literal and returns its index.
func (b *Builder) Int(v int64) uint32 {
	b.ints = append(b.ints, v)
	return uint32(len(b.ints) - 1)
}

// Float appends a float literal and returns its index.
func (b *Builder) Float(v float64) uint32 {
	b.floats = append(b.floats, v)
	return uint32(len(b.floats) - 1)
}

// Str appends a string literal and returns its index.
func (b *Builder) Str(v string) uint32 {
	b.strings = append(b.strings, v)
	return uint32(len(b.strings) - 1)
}

// CodeObject appends a nested CompiledCode and returns its index.
func (b *Builder) CodeObject(c *code.CompiledCode) uint32 {
	b.codeObjects = append(b.codeObjects, c)
	return uint32(len(b.codeObjects) - 1)
}

// Emit appends an instruction at line 1, column 0, and returns its index
// (useful as a Goto/GotoIfTrue/GotoIfFalse target).
func (b *Builder) Emit(op opcodes.Opcode, args ...uint32) int {
	b.instructions = append(b.instructions, opcodes.Instruction{
		Opcode:    op,
		Arguments: args,
		Line:      b.line,
	})
	return len(b.instructions) - 1
}

// Here returns the index the next Emit call will occupy, for forward
// jump targets.
func (b *Builder) Here() int {
	return len(b.instructions)
}

// Build finalizes the CompiledCode.
func (b *Builder) Build() *code.CompiledCode {
	c := code.New(b.name, b.file, b.line, b.instructions)
	c.IntegerLiterals = b.ints
	c.FloatLiterals = b.floats
	c.StringLiterals = b.strings
	c.CodeObjects = b.codeObjects
	c.RequiredArguments = b.requiredArgs
	c.IsPrivate = b.private
	return c
}
