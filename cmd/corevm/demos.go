package main

import (
	"fmt"

	"github.com/wudi/corevm/code"
	"github.com/wudi/corevm/internal/asmutil"
	"github.com/wudi/corevm/opcodes"
)

// demo is one hand-assembled program the CLI can run. There is no
// compiler front end in this repository (SPEC_FULL.md §2.4), so the demo
// catalog exists to give a user something runnable without writing
// bytecode by hand themselves.
type demo struct {
	name        string
	description string
	build       func() *code.CompiledCode
}

var demos = []demo{
	{
		name:        "sum",
		description: "adds two integer literals and returns the result",
		build:       buildSumDemo,
	},
	{
		name:        "countdown",
		description: "counts an integer register down to zero using Goto",
		build:       buildCountdownDemo,
	},
	{
		name:        "spawn",
		description: "starts a second thread and returns its handle",
		build:       buildSpawnDemo,
	},
}

func findDemo(name string) (demo, bool) {
	for _, d := range demos {
		if d.name == name {
			return d, true
		}
	}
	return demo{}, false
}

func buildSumDemo() *code.CompiledCode {
	b := asmutil.New("sum", "<builtin:sum>")
	a := b.Int(17)
	c := b.Int(25)
	b.Emit(opcodes.OP_SET_OBJECT, 0)
	b.Emit(opcodes.OP_SET_INTEGER_PROTOTYPE, 0)
	b.Emit(opcodes.OP_SET_INTEGER, 1, a)
	b.Emit(opcodes.OP_SET_INTEGER, 2, c)
	b.Emit(opcodes.OP_INTEGER_ADD, 3, 1, 2)
	b.Emit(opcodes.OP_RETURN, 3)
	return b.Build()
}

// buildCountdownDemo builds: n = 5; while n > 0 { n = n - 1 }; return n.
func buildCountdownDemo() *code.CompiledCode {
	b := asmutil.New("countdown", "<builtin:countdown>")
	five := b.Int(5)
	one := b.Int(1)
	zero := b.Int(0)

	b.Emit(opcodes.OP_SET_OBJECT, 0)            // 0: bare object
	b.Emit(opcodes.OP_SET_INTEGER_PROTOTYPE, 0) // 1
	b.Emit(opcodes.OP_SET_OBJECT, 5)            // 2: bare object
	b.Emit(opcodes.OP_SET_TRUE_PROTOTYPE, 5)    // 3
	b.Emit(opcodes.OP_SET_OBJECT, 6)            // 4: bare object
	b.Emit(opcodes.OP_SET_FALSE_PROTOTYPE, 6)   // 5
	b.Emit(opcodes.OP_SET_INTEGER, 1, five)     // 6: reg1 = n = 5
	b.Emit(opcodes.OP_SET_INTEGER, 2, zero)     // 7: reg2 = 0
	// loop head at 8
	b.Emit(opcodes.OP_INTEGER_GREATER, 3, 1, 2) // 8: reg3 = (n > 0)
	b.Emit(opcodes.OP_GOTO_IF_FALSE, 13, 3)     // 9: exit loop once n <= 0
	b.Emit(opcodes.OP_SET_INTEGER, 4, one)      // 10: reg4 = 1
	b.Emit(opcodes.OP_INTEGER_SUB, 1, 1, 4)     // 11: n = n - 1
	b.Emit(opcodes.OP_GOTO, 8)                  // 12: back to loop head
	b.Emit(opcodes.OP_RETURN, 1)                // 13
	return b.Build()
}

func buildSpawnDemo() *code.CompiledCode {
	tb := asmutil.New("worker", "<builtin:spawn/worker>")
	ten := tb.Int(10)
	tb.Emit(opcodes.OP_SET_OBJECT, 0)
	tb.Emit(opcodes.OP_SET_INTEGER_PROTOTYPE, 0)
	tb.Emit(opcodes.OP_SET_INTEGER, 1, ten)
	tb.Emit(opcodes.OP_RETURN, 1)
	worker := tb.Build()

	b := asmutil.New("spawn", "<builtin:spawn>")
	b.Emit(opcodes.OP_SET_OBJECT, 0)
	b.Emit(opcodes.OP_SET_THREAD_PROTOTYPE, 0)
	b.Emit(opcodes.OP_START_THREAD, 1, b.CodeObject(worker))
	b.Emit(opcodes.OP_RETURN, 1)
	return b.Build()
}

func listDemoNames() string {
	out := ""
	for i, d := range demos {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s (%s)", d.name, d.description)
	}
	return out
}
