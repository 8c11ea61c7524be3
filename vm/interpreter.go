// Package vm implements the interpreter loop, message dispatch, memory
// manager, and thread scheduler of spec §2-§5 (components C2, C4-C9).
package vm

import (
	"github.com/wudi/corevm/code"
	"github.com/wudi/corevm/object"
	"github.com/wudi/corevm/opcodes"
	"github.com/wudi/corevm/vmerror"
)

// Interpreter fetches instructions from the current CompiledCode, decodes
// their opcode, and dispatches to the handler for each instruction kind
// (spec §4.4, component C7). One Interpreter is shared by every Thread of
// a VM; all of its state is the Memory it was built with, which is safe
// for concurrent use per spec §5.
type Interpreter struct {
	Mem *Memory

	// sched lets StartThread spawn new Threads. Set by NewScheduler;
	// nil if an Interpreter is used standalone (e.g. in unit tests that
	// never execute StartThread).
	sched *Scheduler
}

// NewInterpreter constructs an Interpreter bound to mem.
func NewInterpreter(mem *Memory) *Interpreter {
	return &Interpreter{Mem: mem}
}

// decodeErr builds a Decode-kind error and attaches the Thread's current
// CallFrame chain, ready to hand to the Scheduler's fatal-error path.
func (vmi *Interpreter) decodeErr(t *Thread, format string, args ...interface{}) *vmerror.Error {
	return vmerror.New(vmerror.Decode, format, args...).WithFrames(errorFrames(t.CurrentFrame()))
}

func (vmi *Interpreter) typeErr(t *Thread, format string, args ...interface{}) *vmerror.Error {
	return vmerror.New(vmerror.Type, format, args...).WithFrames(errorFrames(t.CurrentFrame()))
}

func (vmi *Interpreter) arithErr(t *Thread, format string, args ...interface{}) *vmerror.Error {
	return vmerror.New(vmerror.Arithmetic, format, args...).WithFrames(errorFrames(t.CurrentFrame()))
}

func (vmi *Interpreter) dispatchErr(t *Thread, format string, args ...interface{}) *vmerror.Error {
	return vmerror.New(vmerror.Dispatch, format, args...).WithFrames(errorFrames(t.CurrentFrame()))
}

func (vmi *Interpreter) setupErr(t *Thread, err error) *vmerror.Error {
	if ve, ok := err.(*vmerror.Error); ok {
		return ve.WithFrames(errorFrames(t.CurrentFrame()))
	}
	return vmerror.New(vmerror.Setup, "%v", err).WithFrames(errorFrames(t.CurrentFrame()))
}

// arg reads the i'th argument of inst, failing with a decode error naming
// the missing argument index (spec §9, following the original's
// collect_arguments behavior of naming the specific index).
func (vmi *Interpreter) arg(t *Thread, inst opcodes.Instruction, i int) (uint32, *vmerror.Error) {
	v, ok := inst.Arg(i)
	if !ok {
		return 0, vmi.decodeErr(t, "%s: missing argument %d", inst.Opcode, i)
	}
	return v, nil
}

// register reads a register, failing with a decode error if it was never
// written.
func (vmi *Interpreter) register(t *Thread, inst opcodes.Instruction, slot uint32) (*object.Object, *vmerror.Error) {
	o, ok := t.GetRegister(slot)
	if !ok {
		return nil, vmi.decodeErr(t, "%s: register %d is undefined", inst.Opcode, slot)
	}
	return o, nil
}

func (vmi *Interpreter) local(t *Thread, inst opcodes.Instruction, idx int) (*object.Object, *vmerror.Error) {
	o, ok := t.GetLocal(idx)
	if !ok {
		return nil, vmi.decodeErr(t, "%s: local %d is undefined", inst.Opcode, idx)
	}
	return o, nil
}

func (vmi *Interpreter) integerLiteral(t *Thread, c *code.CompiledCode, inst opcodes.Instruction, idx uint32) (int64, *vmerror.Error) {
	v, ok := c.Integer(idx)
	if !ok {
		return 0, vmi.decodeErr(t, "%s: undefined integer literal %d", inst.Opcode, idx)
	}
	return v, nil
}

func (vmi *Interpreter) floatLiteral(t *Thread, c *code.CompiledCode, inst opcodes.Instruction, idx uint32) (float64, *vmerror.Error) {
	v, ok := c.Float(idx)
	if !ok {
		return 0, vmi.decodeErr(t, "%s: undefined float literal %d", inst.Opcode, idx)
	}
	return v, nil
}

func (vmi *Interpreter) stringLiteral(t *Thread, c *code.CompiledCode, inst opcodes.Instruction, idx uint32) (string, *vmerror.Error) {
	v, ok := c.String(idx)
	if !ok {
		return "", vmi.decodeErr(t, "%s: undefined string literal %d", inst.Opcode, idx)
	}
	return v, nil
}

func (vmi *Interpreter) codeObject(t *Thread, c *code.CompiledCode, inst opcodes.Instruction, idx uint32) (*code.CompiledCode, *vmerror.Error) {
	v, ok := c.CodeObject(idx)
	if !ok {
		return nil, vmi.decodeErr(t, "%s: undefined code object %d", inst.Opcode, idx)
	}
	return v, nil
}

// requireInteger type-checks o's payload (spec §4.4: "All require both
// operands to be integer-tagged").
func (vmi *Interpreter) requireInteger(t *Thread, o *object.Object) (int64, *vmerror.Error) {
	p := o.Payload()
	if p.Kind != object.KindInteger {
		return 0, vmi.typeErr(t, "expected Integer, got %s", p.Kind)
	}
	return p.Integer, nil
}

// Run executes code as the body of a freshly pushed CallFrame (used both
// for a Thread's top-level program and, via RunCode/Send, for nested
// invocations). It pushes the frame, runs the instruction loop, and pops
// the frame unconditionally before returning — including on error,
// mirroring the original's run_code scoping (SPEC_FULL.md §4).
func (vmi *Interpreter) Run(t *Thread, c *code.CompiledCode, frameName string, locals []*object.Object) (*object.Object, *vmerror.Error) {
	frame := NewCallFrame(c.File, frameName, c.Line)
	t.PushCallFrame(frame)
	for _, l := range locals {
		t.AddLocal(l)
	}

	result, err := vmi.loop(t, c)

	t.PopCallFrame()
	return result, err
}

// loop is the instruction-dispatch loop of spec §4.4.
func (vmi *Interpreter) loop(t *Thread, c *code.CompiledCode) (*object.Object, *vmerror.Error) {
	ip := 0
	for {
		if t.ShouldStop() {
			return nil, nil
		}
		inst, ok := c.Instruction(ip)
		if !ok {
			return nil, nil
		}
		ip++

		switch inst.Opcode {
		case opcodes.OP_GOTO:
			target, err := vmi.arg(t, inst, 0)
			if err != nil {
				return nil, err
			}
			ip = int(target)
			continue
		case opcodes.OP_GOTO_IF_TRUE:
			target, slot, err := vmi.gotoArgs(t, inst)
			if err != nil {
				return nil, err
			}
			o, err := vmi.register(t, inst, slot)
			if err != nil {
				return nil, err
			}
			if vmi.Mem.Truthy(o) {
				ip = int(target)
			}
			continue
		case opcodes.OP_GOTO_IF_FALSE:
			target, slot, err := vmi.gotoArgs(t, inst)
			if err != nil {
				return nil, err
			}
			o, err := vmi.register(t, inst, slot)
			if err != nil {
				return nil, err
			}
			if !vmi.Mem.Truthy(o) {
				ip = int(target)
			}
			continue
		case opcodes.OP_RETURN:
			slot, err := vmi.arg(t, inst, 0)
			if err != nil {
				return nil, err
			}
			o, _ := t.GetRegister(slot)
			return o, nil
		}

		if err := vmi.dispatchInstruction(t, c, inst); err != nil {
			return nil, err
		}
	}
}

func (vmi *Interpreter) gotoArgs(t *Thread, inst opcodes.Instruction) (target, slot uint32, err *vmerror.Error) {
	target, err = vmi.arg(t, inst, 0)
	if err != nil {
		return 0, 0, err
	}
	slot, err = vmi.arg(t, inst, 1)
	return target, slot, err
}

// dispatchInstruction handles every opcode that does not itself rewrite
// ip or end the frame (those are handled inline in loop above).
func (vmi *Interpreter) dispatchInstruction(t *Thread, c *code.CompiledCode, inst opcodes.Instruction) *vmerror.Error {
	if min, ok := opcodes.MinArgs(inst.Opcode); ok && len(inst.Arguments) < min {
		return vmi.decodeErr(t, "%s: expected at least %d arguments, got %d", inst.Opcode, min, len(inst.Arguments))
	}

	switch inst.Opcode {
	case opcodes.OP_SET_INTEGER:
		return vmi.opSetInteger(t, c, inst)
	case opcodes.OP_SET_FLOAT:
		return vmi.opSetFloat(t, c, inst)
	case opcodes.OP_SET_STRING:
		return vmi.opSetString(t, c, inst)
	case opcodes.OP_SET_OBJECT:
		return vmi.opSetObject(t, c, inst)
	case opcodes.OP_SET_ARRAY:
		return vmi.opSetArray(t, c, inst)
	case opcodes.OP_SET_NAME:
		return vmi.opSetName(t, c, inst)
	case opcodes.OP_SET_TRUE:
		return vmi.opSetTrue(t, inst)
	case opcodes.OP_SET_FALSE:
		return vmi.opSetFalse(t, inst)

	case opcodes.OP_SET_INTEGER_PROTOTYPE:
		return vmi.opSetProto(t, inst, vmi.Mem.SetIntegerPrototype)
	case opcodes.OP_SET_FLOAT_PROTOTYPE:
		return vmi.opSetProto(t, inst, vmi.Mem.SetFloatPrototype)
	case opcodes.OP_SET_STRING_PROTOTYPE:
		return vmi.opSetProto(t, inst, vmi.Mem.SetStringPrototype)
	case opcodes.OP_SET_ARRAY_PROTOTYPE:
		return vmi.opSetProto(t, inst, vmi.Mem.SetArrayPrototype)
	case opcodes.OP_SET_THREAD_PROTOTYPE:
		return vmi.opSetProto(t, inst, vmi.Mem.SetThreadPrototype)
	case opcodes.OP_SET_TRUE_PROTOTYPE:
		return vmi.opSetProto(t, inst, vmi.Mem.SetTruePrototype)
	case opcodes.OP_SET_FALSE_PROTOTYPE:
		return vmi.opSetProto(t, inst, vmi.Mem.SetFalsePrototype)
	case opcodes.OP_SET_BLOCK_PROTOTYPE:
		return vmi.opSetProto(t, inst, vmi.Mem.SetBlockPrototype)
	case opcodes.OP_SET_BOOLEAN_PROTOTYPE:
		return vmi.opSetProto(t, inst, vmi.Mem.SetBooleanPrototype)

	case opcodes.OP_SET_LOCAL:
		return vmi.opSetLocal(t, inst)
	case opcodes.OP_GET_LOCAL:
		return vmi.opGetLocal(t, inst)

	case opcodes.OP_SET_CONST:
		return vmi.opSetConst(t, c, inst)
	case opcodes.OP_GET_CONST:
		return vmi.opGetConst(t, c, inst)
	case opcodes.OP_SET_ATTR:
		return vmi.opSetAttr(t, c, inst)
	case opcodes.OP_GET_ATTR:
		return vmi.opGetAttr(t, c, inst)

	case opcodes.OP_SEND:
		return vmi.opSend(t, c, inst)
	case opcodes.OP_RUN_CODE:
		return vmi.opRunCode(t, c, inst)
	case opcodes.OP_DEF_METHOD:
		return vmi.opDefMethod(t, c, inst)
	case opcodes.OP_GET_TOPLEVEL:
		return vmi.opGetToplevel(t, inst)

	case opcodes.OP_INTEGER_ADD, opcodes.OP_INTEGER_SUB, opcodes.OP_INTEGER_MUL,
		opcodes.OP_INTEGER_DIV, opcodes.OP_INTEGER_MOD, opcodes.OP_INTEGER_BITWISE_AND,
		opcodes.OP_INTEGER_BITWISE_OR, opcodes.OP_INTEGER_BITWISE_XOR,
		opcodes.OP_INTEGER_SHIFT_LEFT, opcodes.OP_INTEGER_SHIFT_RIGHT,
		opcodes.OP_INTEGER_SMALLER, opcodes.OP_INTEGER_GREATER, opcodes.OP_INTEGER_EQUAL:
		return vmi.opIntegerBinary(t, inst)

	case opcodes.OP_INTEGER_TO_FLOAT:
		return vmi.opIntegerToFloat(t, inst)
	case opcodes.OP_INTEGER_TO_STRING:
		return vmi.opIntegerToString(t, inst)

	case opcodes.OP_START_THREAD:
		return vmi.opStartThread(t, c, inst)
	}

	return vmi.decodeErr(t, "unknown opcode %d", byte(inst.Opcode))
}
