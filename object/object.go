// Package object implements the heap object and tagged-value model of
// spec §3 (component C1): a prototype-linked object with attribute,
// constant, and method namespaces and an optional tagged payload.
package object

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/wudi/corevm/code"
)

// Kind tags the payload carried by an Object's optional Value.
type Kind byte

const (
	KindNone Kind = iota
	KindInteger
	KindFloat
	KindString
	KindArray
	KindBlock
	KindThread
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindArray:
		return "Array"
	case KindBlock:
		return "Block"
	case KindThread:
		return "Thread"
	default:
		return "Unknown"
	}
}

// Block is the payload of a block object: a nested CompiledCode together
// with the environment (objects from the enclosing scope) it captured at
// creation time.
type Block struct {
	Code        *code.CompiledCode
	Environment []*Object
}

// Payload is the tagged variant carried by an Object. Thread is stored as
// an opaque interface{} rather than a concrete type: the Thread type lives
// in package vm, which depends on this package, so a concrete field here
// would create an import cycle. Package vm type-asserts it back.
type Payload struct {
	Kind    Kind
	Integer int64
	Float   float64
	String  string
	Array   []*Object
	Block   *Block
	Thread  interface{}
}

// None is the zero Payload: an object with no tagged value.
var None = Payload{Kind: KindNone}

// Integer returns an Integer-tagged Payload.
func Integer(i int64) Payload { return Payload{Kind: KindInteger, Integer: i} }

// Float returns a Float-tagged Payload.
func Float(f float64) Payload { return Payload{Kind: KindFloat, Float: f} }

// String returns a String-tagged Payload.
func String(s string) Payload { return Payload{Kind: KindString, String: s} }

// Array returns an Array-tagged Payload.
func Array(elems []*Object) Payload { return Payload{Kind: KindArray, Array: elems} }

// MakeBlock returns a Block-tagged Payload.
func MakeBlock(c *code.CompiledCode, env []*Object) Payload {
	return Payload{Kind: KindBlock, Block: &Block{Code: c, Environment: env}}
}

// MakeThread returns a Thread-tagged Payload wrapping an opaque thread
// handle (a *vm.Thread in practice).
func MakeThread(handle interface{}) Payload {
	return Payload{Kind: KindThread, Thread: handle}
}

// Object is the basic heap value of spec §3: a stable identity, an
// optional prototype, disjoint attribute/constant/method namespaces, an
// optional human-readable name, a pin flag, and an optional tagged
// payload.
//
// Every field access that can race with another Thread goes through the
// object's RWMutex, except the pin flag and reference count, which are
// atomics. Per spec §5, a handler must never hold the lock of
// two Objects simultaneously; operations that need several Objects'
// state take each lock in turn and release it before taking the next.
type Object struct {
	mu sync.RWMutex

	id uuid.UUID

	proto *Object

	attrs   map[string]*Object
	consts  map[string]*Object
	methods map[string]*code.CompiledCode

	name    string
	hasName bool

	pinned atomic.Bool

	value Payload

	refs atomic.Int64
}

// New creates a prototypeless Object carrying the given payload. Callers
// typically hand this to the vm.Memory manager via AllocatePrepared, or
// assign a prototype with SetPrototype before publishing it.
func New(value Payload) *Object {
	return &Object{
		id:    uuid.New(),
		value: value,
	}
}

// ID returns the object's stable identity.
func (o *Object) ID() uuid.UUID {
	return o.id
}

// Prototype returns the object's prototype, or nil if it has none.
func (o *Object) Prototype() *Object {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.proto
}

// SetPrototype assigns the object's prototype. Used both at allocation
// time and by SetThreadPrototype's prototype backfill (spec §4.4).
func (o *Object) SetPrototype(proto *Object) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.proto = proto
}

// Payload returns the object's tagged value.
func (o *Object) Payload() Payload {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value
}

// Kind returns the object's payload kind.
func (o *Object) Kind() Kind {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value.Kind
}

// Name returns the object's human-readable name, if SetName was ever
// called on it.
func (o *Object) Name() (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.name, o.hasName
}

// SetName assigns the object's human-readable name.
func (o *Object) SetName(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.name = name
	o.hasName = true
}

// Pin exempts the object from reclamation (spec §3, §5). Used while a
// Thread object is alive.
func (o *Object) Pin() {
	o.pinned.Store(true)
}

// Unpin reverses Pin.
func (o *Object) Unpin() {
	o.pinned.Store(false)
}

// IsPinned reports whether the object is currently pinned.
func (o *Object) IsPinned() bool {
	return o.pinned.Load()
}

// Attr reads the object's own attribute named name. It does not walk the
// prototype chain — attributes are not inherited (only methods are looked
// up via a prototype-chain walk, in package vm's method resolution).
func (o *Object) Attr(name string) (*Object, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.attrs[name]
	return v, ok
}

// SetAttr sets an attribute directly on the object.
func (o *Object) SetAttr(name string, value *Object) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.attrs == nil {
		o.attrs = make(map[string]*Object)
	}
	o.attrs[name] = value
}

// Const reads a constant defined directly on the object (not walking the
// prototype chain; chain walking for constant lookup, if needed by a
// caller, composes calls to this method up the Prototype() chain).
func (o *Object) Const(name string) (*Object, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.consts[name]
	return v, ok
}

// SetConst defines a constant directly on the object.
func (o *Object) SetConst(name string, value *Object) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.consts == nil {
		o.consts = make(map[string]*Object)
	}
	o.consts[name] = value
}

// Method returns the CompiledCode registered directly on this object
// under name, without walking the prototype chain.
func (o *Object) Method(name string) (*code.CompiledCode, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	m, ok := o.methods[name]
	return m, ok
}

// DefMethod installs a method directly on the object.
func (o *Object) DefMethod(name string, c *code.CompiledCode) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.methods == nil {
		o.methods = make(map[string]*code.CompiledCode)
	}
	o.methods[name] = c
}

// Retain increments the object's strong reference count.
func (o *Object) Retain() {
	o.refs.Add(1)
}

// Release decrements the object's strong reference count and reports
// whether that was the last reference (the caller, normally the
// vm.Memory manager, is then responsible for removing the object from its
// registry — see spec §3 "Ownership").
func (o *Object) Release() bool {
	return o.refs.Add(-1) == 0
}

// RefCount reports the current strong reference count. Exposed for tests
// of the ownership model; production code should not branch on it.
func (o *Object) RefCount() int64 {
	return o.refs.Load()
}
