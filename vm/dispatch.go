package vm

import (
	"github.com/wudi/corevm/code"
	"github.com/wudi/corevm/object"
	"github.com/wudi/corevm/opcodes"
	"github.com/wudi/corevm/vmerror"
)

// resolveMethod walks the prototype chain of receiver looking for name
// (spec §4.3 step 1, component C8). The first method found while walking
// {receiver, receiver.prototype, prototype.prototype, ...} wins: methods
// defined directly on an object shadow inherited ones.
func resolveMethod(receiver *object.Object, name string) (*code.CompiledCode, bool) {
	for o := receiver; o != nil; o = o.Prototype() {
		if m, ok := o.Method(name); ok {
			return m, true
		}
	}
	return nil, false
}

// opSend implements Send(result_slot, receiver_slot, name_lit,
// allow_private, argc, arg_slots...) per spec §4.3.
func (vmi *Interpreter) opSend(t *Thread, c *code.CompiledCode, inst opcodes.Instruction) *vmerror.Error {
	resultSlot, err := vmi.arg(t, inst, 0)
	if err != nil {
		return err
	}
	receiverSlot, err := vmi.arg(t, inst, 1)
	if err != nil {
		return err
	}
	nameLit, err := vmi.arg(t, inst, 2)
	if err != nil {
		return err
	}
	allowPrivate, err := vmi.arg(t, inst, 3)
	if err != nil {
		return err
	}
	argc, err := vmi.arg(t, inst, 4)
	if err != nil {
		return err
	}

	name, err := vmi.stringLiteral(t, c, inst, nameLit)
	if err != nil {
		return err
	}
	receiver, err := vmi.register(t, inst, receiverSlot)
	if err != nil {
		return err
	}
	args, err := vmi.collectArgs(t, inst, 5, int(argc))
	if err != nil {
		return err
	}

	method, ok := resolveMethod(receiver, name)
	if !ok {
		return vmi.dispatchErr(t, "undefined method %q", name)
	}
	if method.IsPrivate && allowPrivate == 0 {
		return vmi.dispatchErr(t, "method %q is private", name)
	}
	if len(args) != method.RequiredArguments {
		return vmi.dispatchErr(t, "method %q requires %d argument(s), got %d", name, method.RequiredArguments, len(args))
	}

	locals := make([]*object.Object, 0, len(args)+1)
	locals = append(locals, receiver) // local 0 is self (spec §4.3 step 4)
	locals = append(locals, args...)

	result, rerr := vmi.Run(t, method, name, locals)
	if rerr != nil {
		return rerr
	}
	t.SetRegister(resultSlot, result)
	return nil
}

// opRunCode implements RunCode(result_slot, code_obj_idx, argc,
// arg_slots...): invokes a nested CompiledCode without method resolution.
func (vmi *Interpreter) opRunCode(t *Thread, c *code.CompiledCode, inst opcodes.Instruction) *vmerror.Error {
	resultSlot, err := vmi.arg(t, inst, 0)
	if err != nil {
		return err
	}
	codeIdx, err := vmi.arg(t, inst, 1)
	if err != nil {
		return err
	}
	argc, err := vmi.arg(t, inst, 2)
	if err != nil {
		return err
	}
	nested, err := vmi.codeObject(t, c, inst, codeIdx)
	if err != nil {
		return err
	}
	args, err := vmi.collectArgs(t, inst, 3, int(argc))
	if err != nil {
		return err
	}

	result, rerr := vmi.Run(t, nested, nested.Name, args)
	if rerr != nil {
		return rerr
	}
	t.SetRegister(resultSlot, result)
	return nil
}

func (vmi *Interpreter) collectArgs(t *Thread, inst opcodes.Instruction, offset, count int) ([]*object.Object, *vmerror.Error) {
	args := make([]*object.Object, 0, count)
	for i := 0; i < count; i++ {
		slot, err := vmi.arg(t, inst, offset+i)
		if err != nil {
			return nil, err
		}
		o, err := vmi.register(t, inst, slot)
		if err != nil {
			return nil, err
		}
		args = append(args, o)
	}
	return args, nil
}

// opDefMethod implements DefMethod(receiver_slot, name_lit, code_obj_idx):
// installs a method on an object.
func (vmi *Interpreter) opDefMethod(t *Thread, c *code.CompiledCode, inst opcodes.Instruction) *vmerror.Error {
	receiverSlot, err := vmi.arg(t, inst, 0)
	if err != nil {
		return err
	}
	nameLit, err := vmi.arg(t, inst, 1)
	if err != nil {
		return err
	}
	codeIdx, err := vmi.arg(t, inst, 2)
	if err != nil {
		return err
	}
	receiver, err := vmi.register(t, inst, receiverSlot)
	if err != nil {
		return err
	}
	name, err := vmi.stringLiteral(t, c, inst, nameLit)
	if err != nil {
		return err
	}
	methodCode, err := vmi.codeObject(t, c, inst, codeIdx)
	if err != nil {
		return err
	}
	receiver.DefMethod(name, methodCode)
	return nil
}

// opGetToplevel implements GetToplevel(slot): reads the global root.
func (vmi *Interpreter) opGetToplevel(t *Thread, inst opcodes.Instruction) *vmerror.Error {
	slot, err := vmi.arg(t, inst, 0)
	if err != nil {
		return err
	}
	t.SetRegister(slot, vmi.Mem.TopLevel())
	return nil
}

// opStartThread implements StartThread(result_slot, code_obj_idx) (spec
// §4.4): requires the Thread prototype to already be installed.
func (vmi *Interpreter) opStartThread(t *Thread, c *code.CompiledCode, inst opcodes.Instruction) *vmerror.Error {
	slot, err := vmi.arg(t, inst, 0)
	if err != nil {
		return err
	}
	codeIdx, err := vmi.arg(t, inst, 1)
	if err != nil {
		return err
	}
	threadCode, err := vmi.codeObject(t, c, inst, codeIdx)
	if err != nil {
		return err
	}
	if vmi.sched == nil {
		return vmi.setupErr(t, vmerror.New(vmerror.Setup, "no scheduler attached to this interpreter"))
	}
	threadObj, serr := vmi.sched.Spawn(threadCode)
	if serr != nil {
		return vmi.setupErr(t, serr)
	}
	t.SetRegister(slot, threadObj)
	return nil
}
