package object_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/corevm/object"
)

func TestNewObjectHasDistinctIdentity(t *testing.T) {
	a := object.New(object.Integer(1))
	b := object.New(object.Integer(1))
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestAttrsConstsMethodsAreDisjoint(t *testing.T) {
	o := object.New(object.None)
	v := object.New(object.Integer(1))

	o.SetAttr("x", v)
	o.SetConst("x", v)

	_, hasAttr := o.Attr("x")
	_, hasConst := o.Const("x")
	_, hasMethod := o.Method("x")

	require.True(t, hasAttr)
	require.True(t, hasConst)
	require.False(t, hasMethod)
}

func TestPrototypeIsWriteable(t *testing.T) {
	proto := object.New(object.None)
	child := object.New(object.None)

	require.Nil(t, child.Prototype())
	child.SetPrototype(proto)
	require.Same(t, proto, child.Prototype())
}

func TestPinFlag(t *testing.T) {
	o := object.New(object.None)
	assert.False(t, o.IsPinned())
	o.Pin()
	assert.True(t, o.IsPinned())
	o.Unpin()
	assert.False(t, o.IsPinned())
}

func TestRefCounting(t *testing.T) {
	o := object.New(object.None)
	o.Retain()
	o.Retain()
	assert.False(t, o.Release())
	assert.True(t, o.Release())
}

func TestNameIsOptional(t *testing.T) {
	o := object.New(object.None)
	_, ok := o.Name()
	assert.False(t, ok)

	o.SetName("Integer")
	name, ok := o.Name()
	assert.True(t, ok)
	assert.Equal(t, "Integer", name)
}
