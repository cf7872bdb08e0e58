package want_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/seer/internal/core/ports/mocks"
	"go.trai.ch/seer/internal/engine/waits"
	"go.trai.ch/seer/internal/engine/want"
	"go.uber.org/mock/gomock"
)

type requestFunc func(ctx context.Context, path string, tctx *domain.TargetContext) error

func (f requestFunc) Request(ctx context.Context, path string, tctx *domain.TargetContext) error {
	return f(ctx, path, tctx)
}

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	return log
}

func TestTracker_Want_BuildsOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	requester := mocks.NewMockFileRequester(ctrl)
	tracker := want.New(requester, quietLogger(t))

	requester.EXPECT().
		Request(gomock.Any(), "out/a", gomock.Any()).
		DoAndReturn(func(_ context.Context, path string, tctx *domain.TargetContext) error {
			assert.Equal(t, path, tctx.Path())
			assert.Equal(t, domain.PathPending, tracker.Status(path))
			return nil
		}).
		Times(1)

	require.NoError(t, tracker.Want(t.Context(), "out/a", domain.RootContext()))
	require.NoError(t, tracker.Want(t.Context(), "out/a", domain.RootContext()))
	assert.Equal(t, domain.PathReady, tracker.Status("out/a"))
}

func TestTracker_Want_SelfReferenceShortCircuits(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	requester := mocks.NewMockFileRequester(ctrl)
	requester.EXPECT().Request(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	tracker := want.New(requester, quietLogger(t))

	chain := domain.RootContext().Push("out/app").Push("obj/main.o")

	require.NoError(t, tracker.Want(t.Context(), "out/app", chain))
	require.NoError(t, tracker.Want(t.Context(), "obj/main.o", chain))
	assert.Equal(t, domain.PathUnknown, tracker.Status("out/app"))
}

func TestTracker_Want_ConcurrentConvergence(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		const callers = 8

		gate := make(chan struct{})
		var builds atomic.Int32

		tracker := want.New(requestFunc(func(context.Context, string, *domain.TargetContext) error {
			builds.Add(1)
			<-gate
			return nil
		}), quietLogger(t))

		var returned atomic.Int32
		var wg sync.WaitGroup
		for range callers {
			wg.Go(func() {
				assert.NoError(t, tracker.Want(t.Context(), "gen/big.h", domain.RootContext()))
				returned.Add(1)
			})
		}

		synctest.Wait()
		assert.Equal(t, int32(1), builds.Load())
		assert.Equal(t, int32(0), returned.Load())
		assert.Equal(t, domain.PathPending, tracker.Status("gen/big.h"))

		close(gate)
		wg.Wait()

		assert.Equal(t, int32(1), builds.Load())
		assert.Equal(t, int32(callers), returned.Load())
		assert.Equal(t, domain.PathReady, tracker.Status("gen/big.h"))
	})
}

func TestTracker_Want_WaitersShareError(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		boom := errors.New("boom")
		gate := make(chan struct{})

		tracker := want.New(requestFunc(func(context.Context, string, *domain.TargetContext) error {
			<-gate
			return boom
		}), quietLogger(t))

		errs := make(chan error, 2)
		for range 2 {
			go func() {
				errs <- tracker.Want(t.Context(), "lib.a", domain.RootContext())
			}()
		}

		synctest.Wait()
		close(gate)

		assert.ErrorIs(t, <-errs, boom)
		assert.ErrorIs(t, <-errs, boom)
		assert.ErrorIs(t, tracker.Want(t.Context(), "lib.a", domain.RootContext()), boom)
	})
}

func TestTracker_Want_WaiterHonorsCancellation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		gate := make(chan struct{})
		tracker := want.New(requestFunc(func(context.Context, string, *domain.TargetContext) error {
			<-gate
			return nil
		}), quietLogger(t))

		go func() {
			_ = tracker.Want(t.Context(), "slow", domain.RootContext())
		}()
		synctest.Wait()

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() {
			done <- tracker.Want(ctx, "slow", domain.RootContext())
		}()
		synctest.Wait()

		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
		assert.Equal(t, domain.PathPending, tracker.Status("slow"))

		close(gate)
	})
}

func TestTracker_Transitions_AreMonotonic(t *testing.T) {
	var mu sync.Mutex
	seen := map[string][]domain.PathStatus{}

	observer := func(path string, from, to domain.PathStatus) {
		mu.Lock()
		defer mu.Unlock()
		if len(seen[path]) == 0 {
			seen[path] = append(seen[path], from)
		}
		seen[path] = append(seen[path], to)
	}

	var tracker *want.Tracker
	tracker = want.New(requestFunc(func(ctx context.Context, path string, tctx *domain.TargetContext) error {
		if path == "a" {
			return tracker.Want(ctx, "b", tctx)
		}
		return nil
	}), quietLogger(t), want.WithObserver(observer))

	var wg sync.WaitGroup
	for _, p := range []string{"a", "b", "a", "b", "c"} {
		wg.Go(func() {
			assert.NoError(t, tracker.Want(t.Context(), p, domain.RootContext()))
		})
	}
	wg.Wait()

	expected := []domain.PathStatus{domain.PathUnknown, domain.PathPending, domain.PathReady}
	for _, p := range []string{"a", "b", "c"} {
		assert.Equal(t, expected, seen[p], p)
	}
}

func TestTracker_ClaimRelease(t *testing.T) {
	tracker := want.New(requestFunc(func(context.Context, string, *domain.TargetContext) error {
		t.Fatal("claimed paths must not be requested")
		return nil
	}), quietLogger(t))

	require.True(t, tracker.Claim("out.o"))
	require.False(t, tracker.Claim("out.o"))
	assert.Equal(t, domain.PathPending, tracker.Status("out.o"))

	tracker.Release("out.o", nil)
	assert.Equal(t, domain.PathReady, tracker.Status("out.o"))
	require.NoError(t, tracker.Want(t.Context(), "out.o", domain.RootContext()))
	require.NoError(t, tracker.Wait(t.Context(), "out.o"))
	assert.Equal(t, map[string]domain.PathStatus{"out.o": domain.PathReady}, tracker.Snapshot())
}

func TestTracker_Release_IllegalTransitionPanics(t *testing.T) {
	tracker := want.New(requestFunc(func(context.Context, string, *domain.TargetContext) error {
		return nil
	}), quietLogger(t))

	assert.Panics(t, func() { tracker.Release("never-claimed", nil) })

	require.True(t, tracker.Claim("x"))
	tracker.Release("x", nil)
	assert.Panics(t, func() { tracker.Release("x", nil) })
}

func TestTracker_Want_RefusesWaitOnOwnClaim(t *testing.T) {
	graph := waits.New()
	tracker := want.New(requestFunc(func(ctx context.Context, path string, _ *domain.TargetContext) error {
		assert.Equal(t, waits.Path(path), waits.NodeOf(ctx))
		return nil
	}), quietLogger(t), want.WithGraph(graph))

	require.True(t, tracker.Claim("out.o"))
	release, err := graph.Add(waits.Path("out.o"), "linker")
	require.NoError(t, err)

	ctx := waits.WithNode(t.Context(), "linker")
	err = tracker.Want(ctx, "out.o", domain.RootContext())
	require.ErrorIs(t, err, domain.ErrDependencyCycle)
	assert.ErrorContains(t, err, "out.o")
	assert.Equal(t, domain.PathPending, tracker.Status("out.o"))

	require.NoError(t, tracker.Want(ctx, "gen.h", domain.RootContext()))

	tracker.Release("out.o", nil)
	release()
	require.NoError(t, tracker.Want(ctx, "out.o", domain.RootContext()))
	assert.Equal(t, 0, graph.Len())
}
