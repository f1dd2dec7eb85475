package lazy_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgotink/go-lazy/lazy"
	"github.com/bgotink/go-lazy/scope"
)

// ── Unsafe member forwarding ──────────────────────────────────────────────────

func TestUnsafeMembers_ForwardAfterReadiness(t *testing.T) {
	loader := newLoader(t)
	sur := loader.NewBuilder(widgetClosure(newWidget("original"))).Build()
	require.NoError(t, loader.Load(testCtx(t), sur))

	v, err := sur.Get("Label")
	require.NoError(t, err)
	assert.Equal(t, "original", v)

	require.NoError(t, sur.Set("Label", "renamed"))

	v, err = sur.Get("Label")
	require.NoError(t, err)
	assert.Equal(t, "renamed", v)

	ok, err := sur.Has("Label")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnsafeMethod_ViaGetAndInvoke(t *testing.T) {
	loader := newLoader(t)
	sur := loader.NewBuilder(widgetClosure(newWidget("w"))).Build()
	require.NoError(t, loader.Load(testCtx(t), sur))

	member, err := sur.Get("Echo")
	require.NoError(t, err)
	fn, ok := member.(func(args ...any) (any, error))
	require.True(t, ok, "unsafe method should come back as a bound callable")

	out, err := fn("via-get")
	require.NoError(t, err)
	assert.Equal(t, "echo:via-get", out)

	out, err = sur.Invoke("Echo", "via-invoke")
	require.NoError(t, err)
	assert.Equal(t, "echo:via-invoke", out)
}

func TestUnsafeMembers_FailBeforeReadiness(t *testing.T) {
	loader := newLoader(t)
	sur := loader.NewBuilder(widgetClosure(newWidget("w"))).
		CreateOn(lazy.Explicit).
		Build()

	_, err := sur.Get("Label")
	assert.ErrorIs(t, err, lazy.ErrServiceNotReady)

	err = sur.Set("Label", "x")
	assert.ErrorIs(t, err, lazy.ErrServiceNotReady)

	_, err = sur.Has("Label")
	assert.ErrorIs(t, err, lazy.ErrServiceNotReady)
}

func TestUnknownMember_OnReadyInstance(t *testing.T) {
	loader := newLoader(t)
	sur := loader.NewBuilder(widgetClosure(newWidget("w"))).Build()
	require.NoError(t, loader.Load(testCtx(t), sur))

	v, err := sur.Get("NoSuchMember")
	assert.NoError(t, err)
	assert.Nil(t, v)

	ok, err := sur.Has("NoSuchMember")
	require.NoError(t, err)
	assert.False(t, ok)
}

// ── Structural operations ─────────────────────────────────────────────────────

func TestStructuralOps_AlwaysRefused(t *testing.T) {
	loader := newLoader(t)
	sur := loader.NewBuilder(widgetClosure(newWidget("w"))).
		CreateOn(lazy.Explicit).
		Build()

	check := func() {
		t.Helper()
		_, err := sur.Enumerate()
		assert.ErrorIs(t, err, lazy.ErrOperationNotSupported)
		_, err = sur.Describe("Label")
		assert.ErrorIs(t, err, lazy.ErrOperationNotSupported)
		assert.ErrorIs(t, sur.Delete("Label"), lazy.ErrOperationNotSupported)
	}

	check() // before readiness
	require.NoError(t, loader.Load(testCtx(t), sur))
	check() // and after
}

func TestSetSafeMember_Refused(t *testing.T) {
	loader := newLoader(t)
	sur := loader.NewBuilder(widgetClosure(newWidget("w"))).
		MarkSafeMethod("Echo", lazy.Promise).
		Build()
	require.NoError(t, loader.Load(testCtx(t), sur))

	err := sur.Set("Echo", func() {})
	assert.ErrorIs(t, err, lazy.ErrOperationNotSupported)
}

// ── Promise-shaped safe members ───────────────────────────────────────────────

func TestSafePromiseProperty_BeforeAndAfterReadiness(t *testing.T) {
	loader := newLoader(t)
	sur := loader.NewBuilder(widgetClosure(newWidget("steady"))).
		CreateOn(lazy.Explicit).
		MarkSafeProperty("Label", lazy.Promise).
		Build()

	before, err := sur.Get("Label")
	require.NoError(t, err)
	early := before.(*lazy.Deferred[any])
	assert.False(t, early.Settled())

	require.NoError(t, loader.Load(testCtx(t), sur))

	v, err := early.Await(testCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "steady", v)

	// Post-readiness access still yields the deferred form.
	after, err := sur.Get("Label")
	require.NoError(t, err)
	v, err = after.(*lazy.Deferred[any]).Await(testCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "steady", v)
}

func TestSafePromiseMethod_CarriesArguments(t *testing.T) {
	loader := newLoader(t)
	sur := loader.NewBuilder(widgetClosure(newWidget("w"))).
		CreateOn(lazy.Explicit).
		MarkSafeMethod("Echo", lazy.Promise).
		Build()

	member, err := sur.Get("Echo")
	require.NoError(t, err)
	call := member.(func(args ...any) *lazy.Deferred[any])
	d := call("queued")

	require.NoError(t, loader.Load(testCtx(t), sur))

	v, err := d.Await(testCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "echo:queued", v)
}

func TestSafePromiseMethod_ViaInvoke(t *testing.T) {
	loader := newLoader(t)
	sur := loader.NewBuilder(widgetClosure(newWidget("w"))).
		MarkSafeMethod("Echo", lazy.Promise).
		Build()

	out, err := sur.Invoke("Echo", "hi")
	require.NoError(t, err)

	v, err := out.(*lazy.Deferred[any]).Await(testCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "echo:hi", v)
}

// gatedService blocks inside its safe method until the gate closes, making
// the evaluation turn observable from the test.
type gatedService struct {
	gate chan struct{}
}

func (g *gatedService) Confirm() string {
	<-g.gate
	return "confirmed"
}

// Safe access is deferred past at least one scheduling turn even when the
// real instance already exists: the returned deferred must still be pending
// at the moment the call returns. Safe and unsafe accesses issued in the
// same turn are therefore not ordered relative to each other.
func TestSafeAccess_DefersEvenWhenReady(t *testing.T) {
	loader := newLoader(t)
	svc := &gatedService{gate: make(chan struct{})}
	sur := loader.NewBuilder(func(ctx *lazy.Context) (*lazy.Result, error) {
		return lazy.FromInstance(ctx, func(*scope.Scope) any { return svc })
	}).
		MarkSafeMethod("Confirm", lazy.Promise).
		Build()
	require.NoError(t, loader.Load(testCtx(t), sur))

	member, err := sur.Get("Confirm")
	require.NoError(t, err)
	d := member.(func(args ...any) *lazy.Deferred[any])()

	// The real method is still parked on the gate, so the call returning at
	// all proves evaluation did not happen inline.
	assert.False(t, d.Settled())

	close(svc.gate)
	v, err := d.Await(testCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "confirmed", v)
}

// ── Void-shaped safe members ──────────────────────────────────────────────────

func TestSafeVoidMethod_QueuesInOrder(t *testing.T) {
	loader := newLoader(t)
	w := newWidget("w")
	gate := make(chan struct{})
	sur := loader.NewBuilder(gatedClosure(w, gate)).
		CreateOn(lazy.Explicit).
		MarkSafeMethod("Ping", lazy.Void).
		Build()

	_, err := sur.Invoke("Ping", "first")
	require.NoError(t, err)
	_, err = sur.Invoke("Ping", "second")
	require.NoError(t, err)

	// Nothing runs until the service exists.
	select {
	case tag := <-w.calls:
		t.Fatalf("void call %q ran before construction", tag)
	case <-time.After(50 * time.Millisecond):
	}

	close(gate)
	require.NoError(t, loader.Load(testCtx(t), sur))

	assert.Equal(t, "first", <-w.calls)
	assert.Equal(t, "second", <-w.calls)
}

func TestSafeVoidMethod_RunsDirectlyWhenReady(t *testing.T) {
	loader := newLoader(t)
	w := newWidget("w")
	sur := loader.NewBuilder(widgetClosure(w)).
		MarkSafeMethod("Ping", lazy.Void).
		Build()
	require.NoError(t, loader.Load(testCtx(t), sur))

	_, err := sur.Invoke("Ping", "now")
	require.NoError(t, err)
	assert.Equal(t, "now", <-w.calls)
}

func TestSafeVoidMethod_DroppedAfterFailure(t *testing.T) {
	loader := newLoader(t)
	sur := loader.NewBuilder(failingClosure()).
		MarkSafeMethod("Ping", lazy.Void).
		Build()
	require.NoError(t, loader.WhenReady(testCtx(t), sur))

	// Invoking a safe member never surfaces the failure; the call vanishes.
	_, err := sur.Invoke("Ping", "lost")
	assert.NoError(t, err)
}

// ── Observable-shaped safe members ────────────────────────────────────────────

func TestSafeObservableMethod_ViaInvoke(t *testing.T) {
	loader := newLoader(t)
	w := newWidget("w")
	sur := loader.NewBuilder(widgetClosure(w)).
		MarkSafeMethod("Updates", lazy.Observable).
		Build()
	require.NoError(t, loader.Load(testCtx(t), sur))

	out, err := sur.Invoke("Updates")
	require.NoError(t, err)
	stream, ok := out.(lazy.Stream)
	require.True(t, ok, "invoking an observable-shaped member should yield its Stream")

	got := make(chan any, 1)
	stop := stream.Subscribe(func(v any) { got <- v })
	defer stop()

	assert.Eventually(t, func() bool { return w.updates.Subscribers() == 1 },
		time.Second, 5*time.Millisecond)
	w.updates.Emit("via-invoke")
	assert.Equal(t, "via-invoke", <-got)
}

func TestSafeObservableMethod_DeliversAfterReadiness(t *testing.T) {
	loader := newLoader(t)
	w := newWidget("w")
	sur := loader.NewBuilder(widgetClosure(w)).
		CreateOn(lazy.Explicit).
		MarkSafeMethod("Updates", lazy.Observable).
		Build()

	member, err := sur.Get("Updates")
	require.NoError(t, err)
	stream := member.(func(args ...any) lazy.Stream)()

	got := make(chan any, 4)
	stop := stream.Subscribe(func(v any) { got <- v })
	defer stop()

	require.NoError(t, loader.Load(testCtx(t), sur))

	// The subscription attaches asynchronously once construction settles.
	assert.Eventually(t, func() bool { return w.updates.Subscribers() == 1 },
		time.Second, 5*time.Millisecond)

	w.updates.Emit("tick")

	select {
	case v := <-got:
		assert.Equal(t, "tick", v)
	case <-time.After(time.Second):
		t.Fatal("emission not delivered to pre-readiness subscriber")
	}
}

func TestSafeObservable_EachSubscriptionIsIndependent(t *testing.T) {
	loader := newLoader(t)
	w := newWidget("w")
	sur := loader.NewBuilder(widgetClosure(w)).
		MarkSafeMethod("Updates", lazy.Observable).
		Build()
	require.NoError(t, loader.Load(testCtx(t), sur))

	member, err := sur.Get("Updates")
	require.NoError(t, err)
	stream := member.(func(args ...any) lazy.Stream)()

	a := make(chan any, 4)
	b := make(chan any, 4)
	stopA := stream.Subscribe(func(v any) { a <- v })
	defer stopA()
	stopB := stream.Subscribe(func(v any) { b <- v })
	defer stopB()

	assert.Eventually(t, func() bool { return w.updates.Subscribers() == 2 },
		time.Second, 5*time.Millisecond)

	w.updates.Emit("both")
	assert.Equal(t, "both", <-a)
	assert.Equal(t, "both", <-b)
}

func TestSafeObservable_StopBeforeReadiness(t *testing.T) {
	loader := newLoader(t)
	w := newWidget("w")
	gate := make(chan struct{})
	sur := loader.NewBuilder(gatedClosure(w, gate)).
		CreateOn(lazy.Explicit).
		MarkSafeMethod("Updates", lazy.Observable).
		Build()

	member, err := sur.Get("Updates")
	require.NoError(t, err)
	stream := member.(func(args ...any) lazy.Stream)()

	stop := stream.Subscribe(func(v any) { t.Error("stopped subscription received a value") })
	stop()

	close(gate)
	require.NoError(t, loader.Load(testCtx(t), sur))

	assert.Never(t, func() bool { return w.updates.Subscribers() > 0 },
		200*time.Millisecond, 10*time.Millisecond)

	w.updates.Emit("ignored")
}

// failingClosure always fails construction.
func failingClosure() lazy.Closure {
	return func(*lazy.Context) (*lazy.Result, error) {
		return nil, assert.AnError
	}
}
