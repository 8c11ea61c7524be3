package vm

import (
	"sync"

	"github.com/google/uuid"

	"github.com/wudi/corevm/object"
	"github.com/wudi/corevm/vmerror"
)

// Memory is the Memory Manager of spec §4.1 (component C2): it allocates
// Objects, installs the well-known prototypes exactly once each, and owns
// the process-wide singletons (true, false, top-level).
//
// A Memory is scoped to one VM instance, not to the process (spec §9
// "Global-style prototype registry" design note): nothing here is a
// package-level variable, so multiple independent VMs can run in the same
// process.
type Memory struct {
	mu sync.Mutex

	live map[uuid.UUID]*object.Object

	integerProto *object.Object
	floatProto   *object.Object
	stringProto  *object.Object
	arrayProto   *object.Object
	blockProto   *object.Object
	threadProto  *object.Object
	trueProto    *object.Object
	falseProto   *object.Object
	booleanProto *object.Object

	topLevel *object.Object

	trueObj  *object.Object
	falseObj *object.Object

	threads *ThreadList
}

// NewMemory constructs an empty Memory Manager with a fresh top-level
// object and no well-known prototypes installed.
func NewMemory() *Memory {
	m := &Memory{
		live:     make(map[uuid.UUID]*object.Object),
		topLevel: object.New(object.None),
		threads:  NewThreadList(),
	}
	m.register(m.topLevel)
	return m
}

// Threads returns the Memory's ThreadList (component C6), shared by the
// Scheduler and every running Thread.
func (m *Memory) Threads() *ThreadList {
	return m.threads
}

// TopLevel returns the singleton root Object of the constant namespace.
func (m *Memory) TopLevel() *object.Object {
	return m.topLevel
}

func (m *Memory) register(o *object.Object) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.Retain()
	m.live[o.ID()] = o
}

// Allocate creates a fresh Object with the given payload and prototype and
// registers it with the Manager (spec §4.1 "allocate").
func (m *Memory) Allocate(value object.Payload, proto *object.Object) *object.Object {
	o := object.New(value)
	o.SetPrototype(proto)
	m.register(o)
	return o
}

// NewObject creates a prototypeless Object (spec §4.1 "new_object"). The
// caller may assign a prototype afterward with o.SetPrototype.
func (m *Memory) NewObject(value object.Payload) *object.Object {
	o := object.New(value)
	m.register(o)
	return o
}

// AllocatePrepared registers an externally constructed Object so it
// participates in the Manager's ownership (spec §4.1
// "allocate_prepared").
func (m *Memory) AllocatePrepared(o *object.Object) {
	m.register(o)
}

// Release drops the Manager's strong reference to o. If that was the
// object's last reference, it is removed from the live registry (spec §3
// "Ownership": "An Object is destroyed when its last strong reference
// goes away").
func (m *Memory) Release(o *object.Object) {
	if o.Release() {
		m.mu.Lock()
		delete(m.live, o.ID())
		m.mu.Unlock()
	}
}

// LiveCount reports the number of Objects currently registered with the
// Manager. Used by diagnostics (cmd/corevm) and tests, not by VM
// semantics.
func (m *Memory) LiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// AllocateThread wraps a thread handle in an Object whose prototype is the
// Thread prototype (if installed) and pins it for the duration of the
// thread's life (spec §4.1 "allocate_thread").
func (m *Memory) AllocateThread(handle interface{}) *object.Object {
	o := m.Allocate(object.MakeThread(handle), m.ThreadPrototype())
	o.Pin()
	return o
}

// prototype accessor/setter pairs. Each setter fails if the prototype was
// already installed (spec §3 "Invariant: prototype slots are write-once",
// spec §7 "Setup error").

// IntegerPrototype returns the installed Integer prototype, or nil.
func (m *Memory) IntegerPrototype() *object.Object { return m.getProto(&m.integerProto) }

// SetIntegerPrototype installs the Integer prototype.
func (m *Memory) SetIntegerPrototype(o *object.Object) error {
	return m.setProto(&m.integerProto, o, "Integer")
}

// FloatPrototype returns the installed Float prototype, or nil.
func (m *Memory) FloatPrototype() *object.Object { return m.getProto(&m.floatProto) }

// SetFloatPrototype installs the Float prototype.
func (m *Memory) SetFloatPrototype(o *object.Object) error {
	return m.setProto(&m.floatProto, o, "Float")
}

// StringPrototype returns the installed String prototype, or nil.
func (m *Memory) StringPrototype() *object.Object { return m.getProto(&m.stringProto) }

// SetStringPrototype installs the String prototype.
func (m *Memory) SetStringPrototype(o *object.Object) error {
	return m.setProto(&m.stringProto, o, "String")
}

// ArrayPrototype returns the installed Array prototype, or nil.
func (m *Memory) ArrayPrototype() *object.Object { return m.getProto(&m.arrayProto) }

// SetArrayPrototype installs the Array prototype.
func (m *Memory) SetArrayPrototype(o *object.Object) error {
	return m.setProto(&m.arrayProto, o, "Array")
}

// BlockPrototype returns the installed Block prototype, or nil.
func (m *Memory) BlockPrototype() *object.Object { return m.getProto(&m.blockProto) }

// SetBlockPrototype installs the Block prototype.
func (m *Memory) SetBlockPrototype(o *object.Object) error {
	return m.setProto(&m.blockProto, o, "Block")
}

// ThreadPrototype returns the installed Thread prototype, or nil.
func (m *Memory) ThreadPrototype() *object.Object { return m.getProto(&m.threadProto) }

// SetThreadPrototype installs the Thread prototype and backfills it onto
// every existing Thread object (spec §4.4: "SetThreadPrototype
// additionally back-fills the prototype on all existing Thread objects").
func (m *Memory) SetThreadPrototype(o *object.Object) error {
	if err := m.setProto(&m.threadProto, o, "Thread"); err != nil {
		return err
	}
	m.mu.Lock()
	live := make([]*object.Object, 0, len(m.live))
	for _, obj := range m.live {
		live = append(live, obj)
	}
	m.mu.Unlock()
	for _, obj := range live {
		if obj.Kind() == object.KindThread {
			obj.SetPrototype(o)
		}
	}
	return nil
}

// TruePrototype returns the installed True prototype, or nil.
func (m *Memory) TruePrototype() *object.Object { return m.getProto(&m.trueProto) }

// SetTruePrototype installs the True prototype and allocates the True
// singleton (spec §3 "The True and False singletons are allocated once
// the respective prototypes exist").
func (m *Memory) SetTruePrototype(o *object.Object) error {
	if err := m.setProto(&m.trueProto, o, "True"); err != nil {
		return err
	}
	m.mu.Lock()
	m.trueObj = nil
	m.mu.Unlock()
	m.trueObj = m.Allocate(object.None, o)
	return nil
}

// FalsePrototype returns the installed False prototype, or nil.
func (m *Memory) FalsePrototype() *object.Object { return m.getProto(&m.falseProto) }

// SetFalsePrototype installs the False prototype and allocates the False
// singleton.
func (m *Memory) SetFalsePrototype(o *object.Object) error {
	if err := m.setProto(&m.falseProto, o, "False"); err != nil {
		return err
	}
	m.falseObj = m.Allocate(object.None, o)
	return nil
}

// BooleanPrototype returns the installed Boolean prototype, or nil.
func (m *Memory) BooleanPrototype() *object.Object { return m.getProto(&m.booleanProto) }

// SetBooleanPrototype installs the Boolean prototype.
func (m *Memory) SetBooleanPrototype(o *object.Object) error {
	return m.setProto(&m.booleanProto, o, "Boolean")
}

// True returns the True singleton, or nil if SetTruePrototype has not run
// yet.
func (m *Memory) True() *object.Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trueObj
}

// False returns the False singleton, or nil if SetFalsePrototype has not
// run yet.
func (m *Memory) False() *object.Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.falseObj
}

func (m *Memory) getProto(slot **object.Object) *object.Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *slot
}

func (m *Memory) setProto(slot **object.Object, o *object.Object, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if *slot != nil {
		return vmerror.New(vmerror.Setup, "%s prototype is already installed", label)
	}
	*slot = o
	return nil
}

// Truthy implements spec §4.4's truthiness rule: False and the absence of
// a value are false; every other Object is true.
func (m *Memory) Truthy(o *object.Object) bool {
	if o == nil {
		return false
	}
	if o == m.False() {
		return false
	}
	return true
}
