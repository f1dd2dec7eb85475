package lazy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bgotink/go-lazy/lazy"
)

func TestEmitter_Multicast(t *testing.T) {
	e := lazy.NewEmitter()

	var a, b []any
	stopA := e.Subscribe(func(v any) { a = append(a, v) })
	stopB := e.Subscribe(func(v any) { b = append(b, v) })

	e.Emit(1)
	e.Emit(2)

	stopA()
	e.Emit(3)
	stopB()
	e.Emit(4)

	assert.Equal(t, []any{1, 2}, a)
	assert.Equal(t, []any{1, 2, 3}, b)
	assert.Zero(t, e.Subscribers())
}

func TestEmitter_StopIsIdempotent(t *testing.T) {
	e := lazy.NewEmitter()
	stop := e.Subscribe(func(any) {})

	stop()
	stop()

	assert.Zero(t, e.Subscribers())
}

func TestStreamFunc_Adapts(t *testing.T) {
	called := false
	s := lazy.StreamFunc(func(next func(v any)) func() {
		next("hello")
		return func() { called = true }
	})

	var got any
	stop := s.Subscribe(func(v any) { got = v })
	stop()

	assert.Equal(t, "hello", got)
	assert.True(t, called)
}
