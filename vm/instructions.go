package vm

import (
	"github.com/wudi/corevm/code"
	"github.com/wudi/corevm/object"
	"github.com/wudi/corevm/opcodes"
	"github.com/wudi/corevm/vmerror"
)

// --- Literal / allocation -------------------------------------------------

func (vmi *Interpreter) opSetInteger(t *Thread, c *code.CompiledCode, inst opcodes.Instruction) *vmerror.Error {
	slot, err := vmi.arg(t, inst, 0)
	if err != nil {
		return err
	}
	litIdx, err := vmi.arg(t, inst, 1)
	if err != nil {
		return err
	}
	v, err := vmi.integerLiteral(t, c, inst, litIdx)
	if err != nil {
		return err
	}
	t.SetRegister(slot, vmi.Mem.Allocate(object.Integer(v), vmi.Mem.IntegerPrototype()))
	return nil
}

func (vmi *Interpreter) opSetFloat(t *Thread, c *code.CompiledCode, inst opcodes.Instruction) *vmerror.Error {
	slot, err := vmi.arg(t, inst, 0)
	if err != nil {
		return err
	}
	litIdx, err := vmi.arg(t, inst, 1)
	if err != nil {
		return err
	}
	v, err := vmi.floatLiteral(t, c, inst, litIdx)
	if err != nil {
		return err
	}
	t.SetRegister(slot, vmi.Mem.Allocate(object.Float(v), vmi.Mem.FloatPrototype()))
	return nil
}

func (vmi *Interpreter) opSetString(t *Thread, c *code.CompiledCode, inst opcodes.Instruction) *vmerror.Error {
	slot, err := vmi.arg(t, inst, 0)
	if err != nil {
		return err
	}
	litIdx, err := vmi.arg(t, inst, 1)
	if err != nil {
		return err
	}
	v, err := vmi.stringLiteral(t, c, inst, litIdx)
	if err != nil {
		return err
	}
	t.SetRegister(slot, vmi.Mem.Allocate(object.String(v), vmi.Mem.StringPrototype()))
	return nil
}

// opSetObject implements SetObject(slot[, proto_slot]). Without a
// prototype argument the new object's prototype is left nil (SPEC_FULL.md
// §4: dispatch against such an object later fails with a Dispatch error).
func (vmi *Interpreter) opSetObject(t *Thread, c *code.CompiledCode, inst opcodes.Instruction) *vmerror.Error {
	slot, err := vmi.arg(t, inst, 0)
	if err != nil {
		return err
	}
	var proto *object.Object
	if protoSlot, ok := inst.Arg(1); ok {
		proto, err = vmi.register(t, inst, protoSlot)
		if err != nil {
			return err
		}
	}
	t.SetRegister(slot, vmi.Mem.Allocate(object.None, proto))
	return nil
}

// opSetArray implements SetArray(slot, count, elem_slots...) — variadic.
func (vmi *Interpreter) opSetArray(t *Thread, c *code.CompiledCode, inst opcodes.Instruction) *vmerror.Error {
	slot, err := vmi.arg(t, inst, 0)
	if err != nil {
		return err
	}
	count, err := vmi.arg(t, inst, 1)
	if err != nil {
		return err
	}
	elems := make([]*object.Object, 0, count)
	for i := uint32(0); i < count; i++ {
		elemSlot, err := vmi.arg(t, inst, 2+int(i))
		if err != nil {
			return err
		}
		o, err := vmi.register(t, inst, elemSlot)
		if err != nil {
			return err
		}
		elems = append(elems, o)
	}
	t.SetRegister(slot, vmi.Mem.Allocate(object.Array(elems), vmi.Mem.ArrayPrototype()))
	return nil
}

func (vmi *Interpreter) opSetName(t *Thread, c *code.CompiledCode, inst opcodes.Instruction) *vmerror.Error {
	slot, err := vmi.arg(t, inst, 0)
	if err != nil {
		return err
	}
	litIdx, err := vmi.arg(t, inst, 1)
	if err != nil {
		return err
	}
	name, err := vmi.stringLiteral(t, c, inst, litIdx)
	if err != nil {
		return err
	}
	o, err := vmi.register(t, inst, slot)
	if err != nil {
		return err
	}
	o.SetName(name)
	return nil
}

func (vmi *Interpreter) opSetTrue(t *Thread, inst opcodes.Instruction) *vmerror.Error {
	slot, err := vmi.arg(t, inst, 0)
	if err != nil {
		return err
	}
	trueObj := vmi.Mem.True()
	if trueObj == nil {
		return vmi.setupErr(t, vmerror.New(vmerror.Setup, "True prototype is not installed"))
	}
	t.SetRegister(slot, trueObj)
	return nil
}

func (vmi *Interpreter) opSetFalse(t *Thread, inst opcodes.Instruction) *vmerror.Error {
	slot, err := vmi.arg(t, inst, 0)
	if err != nil {
		return err
	}
	falseObj := vmi.Mem.False()
	if falseObj == nil {
		return vmi.setupErr(t, vmerror.New(vmerror.Setup, "False prototype is not installed"))
	}
	t.SetRegister(slot, falseObj)
	return nil
}

// --- Prototype installation ----------------------------------------------

func (vmi *Interpreter) opSetProto(t *Thread, inst opcodes.Instruction, install func(*object.Object) error) *vmerror.Error {
	slot, err := vmi.arg(t, inst, 0)
	if err != nil {
		return err
	}
	o, err := vmi.register(t, inst, slot)
	if err != nil {
		return err
	}
	if installErr := install(o); installErr != nil {
		return vmi.setupErr(t, installErr)
	}
	return nil
}

// --- Local/register transfer ----------------------------------------------

func (vmi *Interpreter) opSetLocal(t *Thread, inst opcodes.Instruction) *vmerror.Error {
	localIdx, err := vmi.arg(t, inst, 0)
	if err != nil {
		return err
	}
	slot, err := vmi.arg(t, inst, 1)
	if err != nil {
		return err
	}
	o, err := vmi.register(t, inst, slot)
	if err != nil {
		return err
	}
	t.SetLocal(int(localIdx), o)
	return nil
}

func (vmi *Interpreter) opGetLocal(t *Thread, inst opcodes.Instruction) *vmerror.Error {
	slot, err := vmi.arg(t, inst, 0)
	if err != nil {
		return err
	}
	localIdx, err := vmi.arg(t, inst, 1)
	if err != nil {
		return err
	}
	o, err := vmi.local(t, inst, int(localIdx))
	if err != nil {
		return err
	}
	t.SetRegister(slot, o)
	return nil
}

// --- Namespace (constants and attributes) ---------------------------------

func (vmi *Interpreter) opSetConst(t *Thread, c *code.CompiledCode, inst opcodes.Instruction) *vmerror.Error {
	target, src, name, err := vmi.namespaceArgs(t, c, inst)
	if err != nil {
		return err
	}
	targetObj, err := vmi.register(t, inst, target)
	if err != nil {
		return err
	}
	srcObj, err := vmi.register(t, inst, src)
	if err != nil {
		return err
	}
	targetObj.SetConst(name, srcObj)
	return nil
}

func (vmi *Interpreter) opGetConst(t *Thread, c *code.CompiledCode, inst opcodes.Instruction) *vmerror.Error {
	dst, src, name, err := vmi.namespaceArgs(t, c, inst)
	if err != nil {
		return err
	}
	srcObj, err := vmi.register(t, inst, src)
	if err != nil {
		return err
	}
	v, ok := srcObj.Const(name)
	if !ok {
		return vmi.decodeErr(t, "undefined constant %q", name)
	}
	t.SetRegister(dst, v)
	return nil
}

func (vmi *Interpreter) opSetAttr(t *Thread, c *code.CompiledCode, inst opcodes.Instruction) *vmerror.Error {
	target, src, name, err := vmi.namespaceArgs(t, c, inst)
	if err != nil {
		return err
	}
	targetObj, err := vmi.register(t, inst, target)
	if err != nil {
		return err
	}
	srcObj, err := vmi.register(t, inst, src)
	if err != nil {
		return err
	}
	targetObj.SetAttr(name, srcObj)
	return nil
}

func (vmi *Interpreter) opGetAttr(t *Thread, c *code.CompiledCode, inst opcodes.Instruction) *vmerror.Error {
	dst, src, name, err := vmi.namespaceArgs(t, c, inst)
	if err != nil {
		return err
	}
	srcObj, err := vmi.register(t, inst, src)
	if err != nil {
		return err
	}
	v, ok := srcObj.Attr(name)
	if !ok {
		return vmi.decodeErr(t, "undefined attribute %q", name)
	}
	t.SetRegister(dst, v)
	return nil
}

func (vmi *Interpreter) namespaceArgs(t *Thread, c *code.CompiledCode, inst opcodes.Instruction) (a, b uint32, name string, err *vmerror.Error) {
	a, err = vmi.arg(t, inst, 0)
	if err != nil {
		return
	}
	b, err = vmi.arg(t, inst, 1)
	if err != nil {
		return
	}
	litIdx, aerr := vmi.arg(t, inst, 2)
	if aerr != nil {
		err = aerr
		return
	}
	name, err = vmi.stringLiteral(t, c, inst, litIdx)
	return
}

// --- Integer arithmetic and comparison -------------------------------------

func (vmi *Interpreter) opIntegerBinary(t *Thread, inst opcodes.Instruction) *vmerror.Error {
	dst, err := vmi.arg(t, inst, 0)
	if err != nil {
		return err
	}
	aSlot, err := vmi.arg(t, inst, 1)
	if err != nil {
		return err
	}
	bSlot, err := vmi.arg(t, inst, 2)
	if err != nil {
		return err
	}
	aObj, err := vmi.register(t, inst, aSlot)
	if err != nil {
		return err
	}
	bObj, err := vmi.register(t, inst, bSlot)
	if err != nil {
		return err
	}
	a, err := vmi.requireInteger(t, aObj)
	if err != nil {
		return err
	}
	b, err := vmi.requireInteger(t, bObj)
	if err != nil {
		return err
	}

	switch inst.Opcode {
	case opcodes.OP_INTEGER_ADD:
		t.SetRegister(dst, vmi.Mem.Allocate(object.Integer(a+b), vmi.Mem.IntegerPrototype()))
	case opcodes.OP_INTEGER_SUB:
		t.SetRegister(dst, vmi.Mem.Allocate(object.Integer(a-b), vmi.Mem.IntegerPrototype()))
	case opcodes.OP_INTEGER_MUL:
		t.SetRegister(dst, vmi.Mem.Allocate(object.Integer(a*b), vmi.Mem.IntegerPrototype()))
	case opcodes.OP_INTEGER_DIV:
		if b == 0 {
			return vmi.arithErr(t, "integer division by zero")
		}
		t.SetRegister(dst, vmi.Mem.Allocate(object.Integer(a/b), vmi.Mem.IntegerPrototype()))
	case opcodes.OP_INTEGER_MOD:
		if b == 0 {
			return vmi.arithErr(t, "integer modulo by zero")
		}
		t.SetRegister(dst, vmi.Mem.Allocate(object.Integer(a%b), vmi.Mem.IntegerPrototype()))
	case opcodes.OP_INTEGER_BITWISE_AND:
		t.SetRegister(dst, vmi.Mem.Allocate(object.Integer(a&b), vmi.Mem.IntegerPrototype()))
	case opcodes.OP_INTEGER_BITWISE_OR:
		t.SetRegister(dst, vmi.Mem.Allocate(object.Integer(a|b), vmi.Mem.IntegerPrototype()))
	case opcodes.OP_INTEGER_BITWISE_XOR:
		t.SetRegister(dst, vmi.Mem.Allocate(object.Integer(a^b), vmi.Mem.IntegerPrototype()))
	case opcodes.OP_INTEGER_SHIFT_LEFT:
		t.SetRegister(dst, vmi.Mem.Allocate(object.Integer(a<<uint(b)), vmi.Mem.IntegerPrototype()))
	case opcodes.OP_INTEGER_SHIFT_RIGHT:
		t.SetRegister(dst, vmi.Mem.Allocate(object.Integer(a>>uint(b)), vmi.Mem.IntegerPrototype()))
	case opcodes.OP_INTEGER_SMALLER:
		t.SetRegister(dst, vmi.boolObj(a < b))
	case opcodes.OP_INTEGER_GREATER:
		t.SetRegister(dst, vmi.boolObj(a > b))
	case opcodes.OP_INTEGER_EQUAL:
		t.SetRegister(dst, vmi.boolObj(a == b))
	}
	return nil
}

func (vmi *Interpreter) boolObj(v bool) *object.Object {
	if v {
		return vmi.Mem.True()
	}
	return vmi.Mem.False()
}

// --- Conversions ------------------------------------------------------------

func (vmi *Interpreter) opIntegerToFloat(t *Thread, inst opcodes.Instruction) *vmerror.Error {
	dst, err := vmi.arg(t, inst, 0)
	if err != nil {
		return err
	}
	src, err := vmi.arg(t, inst, 1)
	if err != nil {
		return err
	}
	srcObj, err := vmi.register(t, inst, src)
	if err != nil {
		return err
	}
	v, err := vmi.requireInteger(t, srcObj)
	if err != nil {
		return err
	}
	t.SetRegister(dst, vmi.Mem.Allocate(object.Float(float64(v)), vmi.Mem.FloatPrototype()))
	return nil
}

func (vmi *Interpreter) opIntegerToString(t *Thread, inst opcodes.Instruction) *vmerror.Error {
	dst, err := vmi.arg(t, inst, 0)
	if err != nil {
		return err
	}
	src, err := vmi.arg(t, inst, 1)
	if err != nil {
		return err
	}
	srcObj, err := vmi.register(t, inst, src)
	if err != nil {
		return err
	}
	v, err := vmi.requireInteger(t, srcObj)
	if err != nil {
		return err
	}
	t.SetRegister(dst, vmi.Mem.Allocate(object.String(formatInt(v)), vmi.Mem.StringPrototype()))
	return nil
}
