package vm_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/corevm/internal/asmutil"
	"github.com/wudi/corevm/object"
	"github.com/wudi/corevm/opcodes"
	"github.com/wudi/corevm/vm"
)

func newScheduler() *vm.Scheduler {
	s := vm.NewScheduler(vm.NewMemory())
	s.Stderr = io.Discard
	s.Logger.SetOutput(io.Discard)
	return s
}

// scenario 1: set an integer literal.
func TestSeedSetIntegerLiteral(t *testing.T) {
	s := newScheduler()
	b := asmutil.New("main", "main.io")
	ten := b.Int(10)
	b.Emit(opcodes.OP_SET_OBJECT, 0)
	b.Emit(opcodes.OP_SET_INTEGER_PROTOTYPE, 0)
	b.Emit(opcodes.OP_SET_INTEGER, 1, ten)
	b.Emit(opcodes.OP_RETURN, 1)

	status := s.Start(b.Build())
	require.Equal(t, vm.ExitOk, status)
	result := s.MainResult()
	require.NotNil(t, result)
	assert.Equal(t, object.KindInteger, result.Kind())
	assert.Equal(t, int64(10), result.Payload().Integer)
}

// scenario 2: integer addition.
func TestSeedIntegerAddition(t *testing.T) {
	s := newScheduler()
	b := asmutil.New("main", "main.io")
	two := b.Int(2)
	three := b.Int(3)
	b.Emit(opcodes.OP_SET_OBJECT, 0)
	b.Emit(opcodes.OP_SET_INTEGER_PROTOTYPE, 0)
	b.Emit(opcodes.OP_SET_INTEGER, 1, two)
	b.Emit(opcodes.OP_SET_INTEGER, 2, three)
	b.Emit(opcodes.OP_INTEGER_ADD, 3, 1, 2)
	b.Emit(opcodes.OP_RETURN, 3)

	status := s.Start(b.Build())
	require.Equal(t, vm.ExitOk, status)
	result := s.MainResult()
	require.NotNil(t, result)
	assert.Equal(t, int64(5), result.Payload().Integer)
}

// scenario 3: conditional jump. Instruction indices are laid out by hand
// since the Builder has no forward-patch facility (there is no compiler
// front end in this repository to need one).
func TestSeedConditionalJump(t *testing.T) {
	s := newScheduler()
	b := asmutil.New("main", "main.io")
	one := b.Int(1)
	two := b.Int(2)

	b.Emit(opcodes.OP_SET_OBJECT, 0)           // 0
	b.Emit(opcodes.OP_SET_FALSE_PROTOTYPE, 0)  // 1
	b.Emit(opcodes.OP_SET_OBJECT, 1)           // 2
	b.Emit(opcodes.OP_SET_TRUE_PROTOTYPE, 1)   // 3
	b.Emit(opcodes.OP_SET_FALSE, 2)            // 4: register 2 = false
	b.Emit(opcodes.OP_GOTO_IF_FALSE, 8, 2)     // 5: branch to false-arm at 8
	b.Emit(opcodes.OP_SET_INTEGER, 3, one)     // 6: true arm
	b.Emit(opcodes.OP_GOTO, 9)                 // 7: skip false arm
	b.Emit(opcodes.OP_SET_INTEGER, 3, two)     // 8: false arm
	b.Emit(opcodes.OP_RETURN, 3)               // 9

	status := s.Start(b.Build())
	require.Equal(t, vm.ExitOk, status)
	result := s.MainResult()
	require.NotNil(t, result)
	assert.Equal(t, int64(2), result.Payload().Integer)
}

// scenario 4: method dispatch. Send's local 0 is always the receiver
// (self), per the spec's dispatch invariant.
func TestSeedMethodDispatch(t *testing.T) {
	s := newScheduler()

	mb := asmutil.New("inc", "main.io").RequiredArgs(0)
	one := mb.Int(1)
	mb.Emit(opcodes.OP_GET_LOCAL, 0, 0)          // reg0 = self
	mb.Emit(opcodes.OP_SET_INTEGER, 1, one)      // reg1 = 1
	mb.Emit(opcodes.OP_INTEGER_ADD, 2, 0, 1)     // reg2 = self + 1
	mb.Emit(opcodes.OP_RETURN, 2)
	inc := mb.Build()

	b := asmutil.New("main", "main.io")
	incName := b.Str("inc")
	four := b.Int(4)
	b.Emit(opcodes.OP_SET_OBJECT, 0)
	b.Emit(opcodes.OP_SET_INTEGER_PROTOTYPE, 0)
	b.Emit(opcodes.OP_SET_INTEGER, 1, four) // receiver: integer 4
	b.Emit(opcodes.OP_DEF_METHOD, 1, incName, b.CodeObject(inc))
	b.Emit(opcodes.OP_SEND, 2, 1, incName, 1, 0) // argc=0
	b.Emit(opcodes.OP_RETURN, 2)

	status := s.Start(b.Build())
	require.Equal(t, vm.ExitOk, status)
	result := s.MainResult()
	require.NotNil(t, result)
	assert.Equal(t, int64(5), result.Payload().Integer)
}

// scenario 5: arity mismatch produces a fatal Dispatch error with the
// stream format of spec §6.
func TestSeedArityMismatch(t *testing.T) {
	var stderr bytes.Buffer
	s := vm.NewScheduler(vm.NewMemory())
	s.Stderr = &stderr
	s.Logger.SetOutput(io.Discard)

	mb := asmutil.New("inc", "main.io").RequiredArgs(0)
	mb.Emit(opcodes.OP_GET_LOCAL, 0, 0)
	mb.Emit(opcodes.OP_RETURN, 0)
	inc := mb.Build()

	b := asmutil.New("main", "main.io")
	incName := b.Str("inc")
	four := b.Int(4)
	b.Emit(opcodes.OP_SET_OBJECT, 0)
	b.Emit(opcodes.OP_SET_INTEGER_PROTOTYPE, 0)
	b.Emit(opcodes.OP_SET_INTEGER, 1, four)
	b.Emit(opcodes.OP_DEF_METHOD, 1, incName, b.CodeObject(inc))
	// argc=1 but inc requires 0.
	b.Emit(opcodes.OP_SEND, 2, 1, incName, 1, 1, 1)
	b.Emit(opcodes.OP_RETURN, 2)

	status := s.Start(b.Build())
	assert.Equal(t, vm.ExitErr, status)
	assert.Contains(t, stderr.String(), "Fatal error:")
	assert.Contains(t, stderr.String(), "main.io line")
	assert.Contains(t, stderr.String(), `method "inc" requires 0 argument`)
}

// scenario 6: spawning a thread.
func TestSeedThreadSpawn(t *testing.T) {
	s := newScheduler()

	tb := asmutil.New("threadBody", "main.io")
	tb.Emit(opcodes.OP_SET_OBJECT, 0)
	tb.Emit(opcodes.OP_RETURN, 0)
	threadBody := tb.Build()

	b := asmutil.New("main", "main.io")
	b.Emit(opcodes.OP_SET_OBJECT, 0)
	b.Emit(opcodes.OP_SET_THREAD_PROTOTYPE, 0)
	b.Emit(opcodes.OP_START_THREAD, 1, b.CodeObject(threadBody))
	b.Emit(opcodes.OP_RETURN, 1)

	status := s.Start(b.Build())
	assert.Equal(t, vm.ExitOk, status)
	result := s.MainResult()
	require.NotNil(t, result)
	assert.Equal(t, object.KindThread, result.Kind())
}
