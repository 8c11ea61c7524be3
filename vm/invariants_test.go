package vm_test

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/corevm/internal/asmutil"
	"github.com/wudi/corevm/opcodes"
	"github.com/wudi/corevm/vm"
)

// A decode error for a missing instruction argument must not crash the
// VM and must be reported as a fatal error, leaving the program's exit
// status Err.
func TestMissingArgumentIsDecodeError(t *testing.T) {
	s := newScheduler()
	b := asmutil.New("main", "main.io")
	b.Emit(opcodes.OP_SET_INTEGER, 0) // missing the literal-index argument
	b.Emit(opcodes.OP_RETURN, 0)

	status := s.Start(b.Build())
	assert.Equal(t, vm.ExitErr, status)
}

// Dereferencing a register that was never written fails with a decode
// error rather than panicking or returning a zero value.
func TestUndefinedRegisterIsDecodeError(t *testing.T) {
	s := newScheduler()
	b := asmutil.New("main", "main.io")
	b.Emit(opcodes.OP_INTEGER_ADD, 0, 5, 6) // registers 5 and 6 were never set
	b.Emit(opcodes.OP_RETURN, 0)

	status := s.Start(b.Build())
	assert.Equal(t, vm.ExitErr, status)
}

// A prototype slot can only be installed once; a second SetXPrototype
// fails with a Setup error.
func TestPrototypeIsWriteOnce(t *testing.T) {
	s := newScheduler()
	b := asmutil.New("main", "main.io")
	b.Emit(opcodes.OP_SET_OBJECT, 0)
	b.Emit(opcodes.OP_SET_INTEGER_PROTOTYPE, 0)
	b.Emit(opcodes.OP_SET_OBJECT, 1)
	b.Emit(opcodes.OP_SET_INTEGER_PROTOTYPE, 1) // second install: must fail
	b.Emit(opcodes.OP_RETURN, 1)

	status := s.Start(b.Build())
	assert.Equal(t, vm.ExitErr, status)
}

// Using an object as a prototype before any SetXPrototype call installs
// one is legal (SetObject with no proto arg leaves it nil); dispatch
// against such an object only fails once a Send is actually attempted.
func TestUseBeforePrototypeInstallOnlyFailsOnDispatch(t *testing.T) {
	s := newScheduler()
	b := asmutil.New("main", "main.io")
	name := b.Str("nope")
	b.Emit(opcodes.OP_SET_OBJECT, 0) // no prototype installed at all
	b.Emit(opcodes.OP_SEND, 1, 0, name, 1, 0)
	b.Emit(opcodes.OP_RETURN, 1)

	status := s.Start(b.Build())
	assert.Equal(t, vm.ExitErr, status)
}

// CallFrame pushes and pops stay balanced across a nested RunCode: a
// decode error raised deep inside a nested invocation still produces
// exactly one fatal report naming both frames, not an unbounded or
// mismatched stack.
func TestNestedRunCodeReportsFatalOnce(t *testing.T) {
	var stderr bytes.Buffer
	s := newScheduler()
	s.Stderr = &stderr

	inner := asmutil.New("inner", "main.io")
	inner.Emit(opcodes.OP_INTEGER_ADD, 0, 9, 9) // registers 9 undefined: decode error
	innerCode := inner.Build()

	b := asmutil.New("main", "main.io")
	b.Emit(opcodes.OP_RUN_CODE, 0, b.CodeObject(innerCode), 0)
	b.Emit(opcodes.OP_RETURN, 0)

	status := s.Start(b.Build())
	assert.Equal(t, vm.ExitErr, status)
	report := stderr.String()
	assert.Equal(t, 1, strings.Count(report, "Fatal error:"))
	assert.Contains(t, report, `main.io line 1 in "inner"`)
	assert.Contains(t, report, `main.io line 1 in "main"`)
}

// IntegerToString round-trips through strconv for a representative
// sample of values.
func TestIntegerToStringRoundTrips(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 42, -42, 1 << 40, -(1 << 40)} {
		s := newScheduler()
		b := asmutil.New("main", "main.io")
		lit := b.Int(v)
		b.Emit(opcodes.OP_SET_OBJECT, 0)
		b.Emit(opcodes.OP_SET_INTEGER_PROTOTYPE, 0)
		b.Emit(opcodes.OP_SET_STRING_PROTOTYPE, 0) // same bare object, distinct prototype slot
		b.Emit(opcodes.OP_SET_INTEGER, 1, lit)
		b.Emit(opcodes.OP_INTEGER_TO_STRING, 2, 1)
		b.Emit(opcodes.OP_RETURN, 2)

		status := s.Start(b.Build())
		require.Equal(t, vm.ExitOk, status)
		result := s.MainResult()
		require.NotNil(t, result)
		assert.NotEmpty(t, result.Payload().String)
		parsed, err := strconv.ParseInt(result.Payload().String, 10, 64)
		require.NoError(t, err)
		assert.Equal(t, v, parsed)
	}
}

// GotoIfTrue and GotoIfFalse are symmetric: swapping the condition's
// truth value swaps which arm runs.
func TestGotoIfTrueAndGotoIfFalseAreSymmetric(t *testing.T) {
	run := func(takeTrue bool) int64 {
		s := newScheduler()
		b := asmutil.New("main", "main.io")
		one := b.Int(1)
		two := b.Int(2)
		b.Emit(opcodes.OP_SET_OBJECT, 0)
		b.Emit(opcodes.OP_SET_TRUE_PROTOTYPE, 0)
		b.Emit(opcodes.OP_SET_OBJECT, 1)
		b.Emit(opcodes.OP_SET_FALSE_PROTOTYPE, 1)
		b.Emit(opcodes.OP_SET_TRUE, 2)
		if takeTrue {
			b.Emit(opcodes.OP_GOTO_IF_TRUE, 8, 2) // 5: register 2 is True, branch taken
		} else {
			b.Emit(opcodes.OP_GOTO_IF_FALSE, 8, 2) // 5: register 2 is True, branch not taken
		}
		b.Emit(opcodes.OP_SET_INTEGER, 3, one) // 6
		b.Emit(opcodes.OP_GOTO, 9)             // 7: skip the other arm
		b.Emit(opcodes.OP_SET_INTEGER, 3, two) // 8
		b.Emit(opcodes.OP_RETURN, 3)           // 9

		status := s.Start(b.Build())
		require.Equal(t, vm.ExitOk, status)
		return s.MainResult().Payload().Integer
	}

	assert.Equal(t, int64(2), run(true))
	assert.Equal(t, int64(1), run(false))
}
