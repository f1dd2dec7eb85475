package lazy_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgotink/go-lazy/lazy"
	"github.com/bgotink/go-lazy/scope"
)

func tierDeterminant() lazy.Determinant {
	return func(ctx *lazy.Context) (any, error) {
		return ctx.Resolve("tier")
	}
}

func TestDifferential_SelectsMatchingImplementation(t *testing.T) {
	root := scope.New()
	t.Cleanup(root.Destroy)
	root.Instance("tier", "premium")
	loader := lazy.NewLoader(root)

	sur := loader.NewDifferentialBuilder(tierDeterminant()).
		SetImplementation("premium", widgetClosure(newWidget("premium impl"))).
		SetImplementation("basic", widgetClosure(newWidget("basic impl"))).
		CreateOn(lazy.Explicit).
		Build()

	require.NoError(t, loader.Load(testCtx(t), sur))
	v, err := sur.Get("Label")
	require.NoError(t, err)
	assert.Equal(t, "premium impl", v)
}

func TestDifferential_FallsBackToDefault(t *testing.T) {
	root := scope.New()
	t.Cleanup(root.Destroy)
	root.Instance("tier", "trial")
	loader := lazy.NewLoader(root)

	sur := loader.NewDifferentialBuilder(tierDeterminant()).
		SetImplementation("premium", widgetClosure(newWidget("premium impl"))).
		SetDefault(widgetClosure(newWidget("default impl"))).
		CreateOn(lazy.Explicit).
		Build()

	require.NoError(t, loader.Load(testCtx(t), sur))
	v, err := sur.Get("Label")
	require.NoError(t, err)
	assert.Equal(t, "default impl", v)
}

func TestDifferential_UnmatchedWithoutDefaultFails(t *testing.T) {
	root := scope.New()
	t.Cleanup(root.Destroy)
	root.Instance("tier", "enterprise")
	loader := lazy.NewLoader(root)

	sur := loader.NewDifferentialBuilder(tierDeterminant()).
		SetImplementation("premium", widgetClosure(newWidget("premium impl"))).
		CreateOn(lazy.Explicit).
		Build()

	err := loader.Load(testCtx(t), sur)
	require.ErrorIs(t, err, lazy.ErrUnexpectedDeterminant)

	var ue lazy.UnexpectedDeterminantError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "enterprise", ue.Determinant)
}

func TestDifferential_DeterminantErrorFailsConstruction(t *testing.T) {
	loader := newLoader(t)
	boom := errors.New("no tier available")

	sur := loader.NewDifferentialBuilder(func(*lazy.Context) (any, error) {
		return nil, boom
	}).
		SetDefault(widgetClosure(newWidget("unreachable"))).
		CreateOn(lazy.Explicit).
		Build()

	assert.ErrorIs(t, loader.Load(testCtx(t), sur), boom)
}

func TestDifferential_DeterminantRunsPerConstruction(t *testing.T) {
	root := scope.New()
	t.Cleanup(root.Destroy)
	root.Instance("tier", "basic")
	loader := lazy.NewLoader(root)

	builder := loader.NewDifferentialBuilder(tierDeterminant()).
		SetImplementation("basic", widgetClosure(newWidget("basic impl"))).
		SetImplementation("premium", widgetClosure(newWidget("premium impl"))).
		CreateOn(lazy.Explicit)

	first := builder.Build()
	require.NoError(t, loader.Load(testCtx(t), first))
	v, err := first.Get("Label")
	require.NoError(t, err)
	assert.Equal(t, "basic impl", v)

	// A binding change between constructions takes a different branch.
	root.Instance("tier", "premium")

	second := builder.Build()
	require.NoError(t, loader.Load(testCtx(t), second))
	v, err = second.Get("Label")
	require.NoError(t, err)
	assert.Equal(t, "premium impl", v)
}

func TestDifferential_SafeMembersWorkThroughSelection(t *testing.T) {
	root := scope.New()
	t.Cleanup(root.Destroy)
	root.Instance("tier", "basic")
	loader := lazy.NewLoader(root)

	sur := loader.NewDifferentialBuilder(tierDeterminant()).
		SetImplementation("basic", widgetClosure(newWidget("basic impl"))).
		CreateOn(lazy.OnAccess).
		MarkSafeMethod("Echo", lazy.Promise).
		Build()

	out, err := sur.Invoke("Echo", "hello")
	require.NoError(t, err)
	v, err := out.(*lazy.Deferred[any]).Await(testCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "echo:hello", v)
}
