package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMethod_FixedSlots(t *testing.T) {
	// The slot numbers are protocol-fixed and must never drift.
	assert.Equal(t, Method(0), MethodHead)
	assert.Equal(t, Method(1), MethodGet)
	assert.Equal(t, Method(2), MethodPost)
	assert.Equal(t, Method(3), MethodPut)
	assert.Equal(t, Method(4), MethodPatch)
	assert.Equal(t, Method(5), MethodDelete)
	assert.Equal(t, Method(6), MethodOptions)
	assert.Equal(t, Method(7), MethodLocate)
	assert.Equal(t, Method(8), MethodDefine)
}

func TestAllMethods_Is511(t *testing.T) {
	assert.Equal(t, MethodBitmask(511), AllMethods)

	for m := Method(0); m < MethodCount; m++ {
		assert.True(t, AllMethods.Has(m), "expected %s in AllMethods", m)
	}
}

func TestMethodBitmask_WithWithout(t *testing.T) {
	var b MethodBitmask

	b = b.With(MethodGet).With(MethodPut)
	assert.True(t, b.Has(MethodGet))
	assert.True(t, b.Has(MethodPut))
	assert.False(t, b.Has(MethodDelete))

	b = b.Without(MethodPut)
	assert.False(t, b.Has(MethodPut))
	assert.True(t, b.Has(MethodGet))
}

func TestMethod_Mutates(t *testing.T) {
	mutating := map[Method]bool{
		MethodPut:    true,
		MethodPatch:  true,
		MethodDelete: true,
		MethodDefine: true,
	}

	for m := Method(0); m < MethodCount; m++ {
		assert.Equal(t, mutating[m], m.Mutates(), "method %s", m)
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, StatusForbidden, StatusFor(ErrForbidden))
	assert.Equal(t, StatusNotFound, StatusFor(ErrNotFound))
	assert.Equal(t, StatusMethodNotAllowed, StatusFor(ErrMethodNotAllowed))
	assert.Equal(t, StatusMethodNotAllowed, StatusFor(ErrImmutable))
	assert.Equal(t, StatusRangeNotSatisfiable, StatusFor(ErrRangeNotSatisfiable))
	assert.Equal(t, StatusPaymentRequired, StatusFor(ErrInsufficientPayment))
	assert.Equal(t, StatusCode(0), StatusFor(assert.AnError))
}
