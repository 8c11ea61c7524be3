package vm

import (
	"sync"

	"github.com/google/uuid"

	"github.com/wudi/corevm/object"
)

// Thread is the execution context of spec §3/§4.2 (component C5): a
// register file, a stack of CallFrames, a stop flag, and a join handle.
// Threads are created by the Scheduler, never directly.
//
// Registers and locals of a Thread are accessed only from that Thread's
// own worker goroutine, except for pre-start argument setup, which
// happens-before the worker starts (spec §5 "Shared-resource policy").
// The mutex below exists only to guard the stop flag, join handle, main
// flag and final value, which a supervisor (ThreadList.Stop, the
// Scheduler) may touch from another goroutine.
type Thread struct {
	id uuid.UUID

	registers map[uint32]*object.Object

	frame *CallFrame

	mu         sync.Mutex
	stop       bool
	join       <-chan struct{}
	isMain     bool
	finalValue *object.Object
}

// NewThread constructs a Thread with an empty register file and no active
// CallFrame.
func NewThread() *Thread {
	return &Thread{
		id:        uuid.New(),
		registers: make(map[uint32]*object.Object),
	}
}

// ID returns the thread's stable identity.
func (t *Thread) ID() uuid.UUID {
	return t.id
}

// SetRegister writes slot (spec §4.2 "set_register").
func (t *Thread) SetRegister(slot uint32, o *object.Object) {
	t.registers[slot] = o
}

// GetRegister reads slot, returning (nil, false) if it was never written
// (spec §4.2 "get_register", spec §8 "For all slots s never written...
// get_register(s) returns absent").
func (t *Thread) GetRegister(slot uint32) (*object.Object, bool) {
	o, ok := t.registers[slot]
	return o, ok
}

// CurrentFrame returns the Thread's topmost CallFrame, or nil if none is
// active.
func (t *Thread) CurrentFrame() *CallFrame {
	return t.frame
}

// SetLocal writes local i of the current frame (spec §4.2 "set_local").
func (t *Thread) SetLocal(i int, o *object.Object) {
	t.frame.SetLocal(i, o)
}

// GetLocal reads local i of the current frame (spec §4.2 "get_local").
func (t *Thread) GetLocal(i int) (*object.Object, bool) {
	if t.frame == nil {
		return nil, false
	}
	return t.frame.Local(i)
}

// AddLocal appends a new local to the current frame (spec §4.2
// "add_local"), returning its index.
func (t *Thread) AddLocal(o *object.Object) int {
	return t.frame.AddLocal(o)
}

// PushCallFrame pushes f onto the Thread's frame stack, linking it to the
// previously current frame as its Parent.
func (t *Thread) PushCallFrame(f *CallFrame) {
	f.Parent = t.frame
	t.frame = f
}

// PopCallFrame pops the Thread's current frame.
func (t *Thread) PopCallFrame() {
	if t.frame != nil {
		t.frame = t.frame.Parent
	}
}

// ShouldStop reports whether a supervisor has requested this Thread stop
// (spec §4.2 "should_stop", spec §5 "Cancellation").
func (t *Thread) ShouldStop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop
}

// RequestStop sets the Thread's stop flag. Safe to call from any
// goroutine.
func (t *Thread) RequestStop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stop = true
}

// SetMain marks this Thread as the VM's main thread (spec §4.2
// "set_main").
func (t *Thread) SetMain() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.isMain = true
}

// IsMain reports whether this is the main thread.
func (t *Thread) IsMain() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isMain
}

// SetJoinHandle records the channel the Scheduler closes when this
// Thread's OS worker terminates.
func (t *Thread) SetJoinHandle(done <-chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.join = done
}

// TakeJoinHandle returns and clears the join handle (spec §4.2
// "take_join_handle"), so it can only be waited on once.
func (t *Thread) TakeJoinHandle() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.join
	t.join = nil
	return h
}

// JoinHandle returns the join handle without clearing it, for a
// supervisor that wants to wait on many Threads without taking exclusive
// ownership of each handle (ThreadList.StopAndWait).
func (t *Thread) JoinHandle() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.join
}

// SetFinalValue records the value a completed run produced, for a
// Coroutine-style consumer to read after joining.
func (t *Thread) SetFinalValue(o *object.Object) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finalValue = o
}

// FinalValue returns the value set by SetFinalValue.
func (t *Thread) FinalValue() *object.Object {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finalValue
}

