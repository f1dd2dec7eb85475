package lazy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgotink/go-lazy/lazy"
	"github.com/bgotink/go-lazy/scope"
)

func TestBuilder_ProducesIndependentSurrogates(t *testing.T) {
	loader := newLoader(t)
	builder := loader.NewBuilder(widgetClosure(newWidget("w"))).
		CreateOn(lazy.Explicit)

	a := builder.Build()
	b := builder.Build()

	require.NotSame(t, a, b)
	require.NoError(t, loader.Load(testCtx(t), a))

	assert.True(t, loader.IsReady(a))
	assert.False(t, loader.IsReady(b))
}

func TestBuilder_SnapshotIsolatesLaterChanges(t *testing.T) {
	loader := newLoader(t)
	builder := loader.NewBuilder(widgetClosure(newWidget("w"))).
		CreateOn(lazy.Explicit).
		MarkSafeMethod("Echo", lazy.Promise)

	early := builder.Build()

	// Reconfiguring the builder must not reach back into early.
	builder.MarkSafeMethod("Ping", lazy.Void).CreateOn(lazy.OnInjection)
	late := builder.Build()

	// early: Ping is unsafe and the trigger is still Explicit.
	_, err := early.Get("Ping")
	assert.ErrorIs(t, err, lazy.ErrServiceNotReady)
	assert.False(t, loader.IsReady(early))

	// late: Ping is safe and OnInjection kicked construction off.
	ok, err := late.Has("Ping")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, loader.WhenReady(testCtx(t), late))
}

func TestBuilder_LastDeclarationWins(t *testing.T) {
	loader := newLoader(t)
	sur := loader.NewBuilder(widgetClosure(newWidget("w"))).
		CreateOn(lazy.Explicit).
		MarkSafeMethod("Echo", lazy.Observable).
		MarkSafeMethod("Echo", lazy.Promise).
		Build()

	member, err := sur.Get("Echo")
	require.NoError(t, err)
	_, isPromise := member.(func(args ...any) *lazy.Deferred[any])
	assert.True(t, isPromise, "latest shape declaration should win")
}

func TestBuilder_VoidPropertyPanics(t *testing.T) {
	loader := newLoader(t)
	builder := loader.NewBuilder(widgetClosure(newWidget("w")))

	assert.Panics(t, func() { builder.MarkSafeProperty("Label", lazy.Void) })
}

func TestBuilder_FactoryPlugsIntoScope(t *testing.T) {
	root := scope.New()
	t.Cleanup(root.Destroy)
	loader := lazy.NewLoader(root)

	builder := loader.NewBuilder(widgetClosure(newWidget("w"))).
		CreateOn(lazy.Explicit)
	root.Singleton("widget", builder.Factory())

	sur, err := scope.Resolve[*lazy.Surrogate](root, "widget")
	require.NoError(t, err)

	again, err := scope.Resolve[*lazy.Surrogate](root, "widget")
	require.NoError(t, err)
	assert.Same(t, sur, again)

	require.NoError(t, loader.Load(testCtx(t), sur))
	v, err := sur.Get("Label")
	require.NoError(t, err)
	assert.Equal(t, "w", v)
}
