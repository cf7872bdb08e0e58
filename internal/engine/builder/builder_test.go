package builder_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/seer/internal/core/ports"
	"go.trai.ch/seer/internal/core/ports/mocks"
	"go.trai.ch/seer/internal/engine/builder"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	db       *mocks.MockRuleDatabase
	executor *mocks.MockExecutor
	log      *mocks.MockLogger
	builder  *builder.Builder

	mu       sync.Mutex
	rules    map[string]*domain.Rule
	executed []string
}

func newFixture(t *testing.T, rules ...*domain.Rule) *fixture {
	t.Helper()
	t.Chdir(t.TempDir())

	ctrl := gomock.NewController(t)
	f := &fixture{
		db:       mocks.NewMockRuleDatabase(ctrl),
		executor: mocks.NewMockExecutor(ctrl),
		log:      mocks.NewMockLogger(ctrl),
		rules:    make(map[string]*domain.Rule),
	}
	for _, r := range rules {
		for _, out := range r.Outputs() {
			f.rules[out] = r
		}
	}

	f.log.EXPECT().Debug(gomock.Any()).AnyTimes()
	f.log.EXPECT().Info(gomock.Any()).AnyTimes()

	vertex := mocks.NewMockVertex(ctrl)
	vertex.EXPECT().Complete(gomock.Any()).AnyTimes()
	vertex.EXPECT().Cached().AnyTimes()
	telemetry := mocks.NewMockTelemetry(ctrl)
	telemetry.EXPECT().Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string) (context.Context, ports.Vertex) {
			return ctx, vertex
		}).AnyTimes()

	f.builder = builder.New(f.executor, telemetry, f.log)
	return f
}

func (f *fixture) lookup() {
	f.db.EXPECT().Query(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, name string) (*domain.Rule, error) {
			return f.rules[name], nil
		}).AnyTimes()
}

func (f *fixture) produce(t *testing.T) func(context.Context, *domain.Rule, *domain.TargetContext, ports.WantFunc) ([]domain.Access, error) {
	return func(_ context.Context, rule *domain.Rule, _ *domain.TargetContext, _ ports.WantFunc) ([]domain.Access, error) {
		for _, in := range rule.Inputs() {
			assert.FileExists(t, in, "input of %s", rule)
		}
		for _, out := range rule.Outputs() {
			require.NoError(t, os.WriteFile(out, []byte(rule.Command()), 0o600))
		}

		f.mu.Lock()
		f.executed = append(f.executed, rule.Command())
		f.mu.Unlock()
		return nil, nil
	}
}

func TestBuilder_WantBuildsDeclaredInputsFirst(t *testing.T) {
	app := domain.NewRule("app", "ld app", []string{"app.o", "main.c"}, []string{"app"})
	obj := domain.NewRule("app.o", "cc app.o", []string{"main.c"}, []string{"app.o"})
	f := newFixture(t, app, obj)
	f.lookup()
	require.NoError(t, os.WriteFile("main.c", nil, 0o600))

	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(f.produce(t)).Times(2)

	res, err := f.builder.Want(t.Context(), f.db, "app", builder.Options{Jobs: 2})

	require.NoError(t, err)
	assert.Equal(t, []string{"cc app.o", "ld app"}, f.executed)
	assert.Equal(t, 2, res.Built)
	assert.Equal(t, 3, res.Queries)
}

func TestBuilder_DynamicInputWithSingleSlot(t *testing.T) {
	app := domain.NewRule("app", "cc app", nil, []string{"app"})
	gen := domain.NewRule("gen.h", "gen gen.h", nil, []string{"gen.h"})
	f := newFixture(t, app, gen)
	f.lookup()

	f.executor.EXPECT().Execute(gomock.Any(), gen, gomock.Any(), gomock.Any()).
		DoAndReturn(f.produce(t)).Times(1)
	f.executor.EXPECT().Execute(gomock.Any(), app, gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, rule *domain.Rule, tctx *domain.TargetContext, wantFn ports.WantFunc) ([]domain.Access, error) {
			require.NoError(t, wantFn(ctx, "gen.h", tctx))
			assert.FileExists(t, "gen.h")
			require.NoError(t, wantFn(ctx, "app", tctx))
			return f.produce(t)(ctx, rule, tctx, wantFn)
		}).Times(1)

	res, err := f.builder.Want(t.Context(), f.db, "app", builder.Options{Jobs: 1})

	require.NoError(t, err)
	assert.Equal(t, []string{"gen gen.h", "cc app"}, f.executed)
	assert.Equal(t, 2, res.Built)
}

func TestBuilder_SharedProducerRunsOnce(t *testing.T) {
	gen := domain.NewRule("parser.c", "yacc", nil, []string{"parser.c", "parser.h"})
	app := domain.NewRule("app", "cc app", []string{"parser.c", "parser.h"}, []string{"app"})
	f := newFixture(t, gen, app)
	f.lookup()

	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(f.produce(t)).Times(2)

	res, err := f.builder.Want(t.Context(), f.db, "app", builder.Options{Jobs: 4})

	require.NoError(t, err)
	assert.Equal(t, []string{"yacc", "cc app"}, f.executed)
	assert.Equal(t, 2, res.Built)
}

func TestBuilder_FailurePropagatesToDependents(t *testing.T) {
	app := domain.NewRule("app", "ld app", []string{"app.o"}, []string{"app"})
	obj := domain.NewRule("app.o", "cc app.o", nil, []string{"app.o"})
	f := newFixture(t, app, obj)
	f.lookup()

	f.executor.EXPECT().Execute(gomock.Any(), obj, gomock.Any(), gomock.Any()).
		Return(nil, errors.New("syntax error")).Times(1)

	res, err := f.builder.Want(t.Context(), f.db, "app", builder.Options{Jobs: 2})

	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrRuleExecutionFailed.Error())
	assert.NotErrorIs(t, err, domain.ErrDependencyFailed)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 0, res.Built)
	assert.NoFileExists(t, "app")
}

func TestBuilder_WarnsAboutUnknownTarget(t *testing.T) {
	f := newFixture(t)
	f.lookup()
	f.log.EXPECT().Warn("no rule to build missing.c").Times(1)

	res, err := f.builder.Want(t.Context(), f.db, "missing.c", builder.Options{})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Queries)
}

func TestBuilder_ExistingSourceIsQuiet(t *testing.T) {
	f := newFixture(t)
	f.lookup()
	require.NoError(t, os.WriteFile("main.c", nil, 0o600))

	res, err := f.builder.Want(t.Context(), f.db, "main.c", builder.Options{})

	require.NoError(t, err)
	assert.Equal(t, builder.Result{Queries: 1}, *res)
}

func TestBuilder_QueryFailure(t *testing.T) {
	f := newFixture(t)
	f.db.EXPECT().Query(gomock.Any(), "app").Return(nil, errors.New("pipe closed"))

	_, err := f.builder.Want(t.Context(), f.db, "app", builder.Options{})

	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrRuleQueryFailed.Error())
	assert.ErrorContains(t, err, "pipe closed")
}
