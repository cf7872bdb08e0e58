package trigger_test

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/seer/internal/adapters/trigger"
	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/seer/internal/core/ports"
	"go.trai.ch/seer/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newExecutor(t *testing.T, log ports.Logger) (*trigger.Executor, string) {
	t.Helper()

	sockDir := t.TempDir()
	settings := domain.DefaultSettings()
	settings.ShimPath = ""
	settings.SocketDir = sockDir
	settings.RootFilter = "/src/project"

	e, err := trigger.NewExecutor(settings, log)
	require.NoError(t, err)
	return e, sockDir
}

func noWant(t *testing.T) ports.WantFunc {
	return func(_ context.Context, path string, _ *domain.TargetContext) error {
		t.Errorf("unexpected want of %s", path)
		return nil
	}
}

func TestExecutor_Environment(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()

	e, sockDir := newExecutor(t, log)
	sock := filepath.Join(sockDir, fmt.Sprintf("trigger.sock.%d.0", os.Getpid()))

	gomock.InOrder(
		log.EXPECT().Info("job=0").Times(1),
		log.EXPECT().Info("root=/src/project").Times(1),
		log.EXPECT().Info("addr="+sock).Times(1),
		log.EXPECT().Info("listening").Times(1),
	)

	rule := domain.NewRule("env", strings.Join([]string{
		`echo "job=$BUILDSOME_JOB_ID"`,
		`echo "root=$BUILDSOME_ROOT_FILTER"`,
		`echo "addr=$BUILDSOME_MASTER_UNIX_SOCKADDR"`,
		`test -S "$BUILDSOME_MASTER_UNIX_SOCKADDR" && echo listening`,
	}, "\n"), nil, []string{"env"})

	accesses, err := e.Execute(t.Context(), rule, domain.RootContext(), noWant(t))
	require.NoError(t, err)
	assert.Empty(t, accesses)
	assert.NoFileExists(t, sock)
}

func TestExecutor_JobIDsAreUnique(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()

	var mu sync.Mutex
	var ids []string
	log.EXPECT().Info(gomock.Any()).Do(func(msg string) {
		mu.Lock()
		ids = append(ids, msg)
		mu.Unlock()
	}).Times(3)

	e, _ := newExecutor(t, log)
	rule := domain.NewRule("id", `echo "$BUILDSOME_JOB_ID"`, nil, []string{"id"})

	for range 3 {
		_, err := e.Execute(t.Context(), rule, domain.RootContext(), noWant(t))
		require.NoError(t, err)
	}
	assert.ElementsMatch(t, []string{"0", "1", "2"}, ids)
}

func TestExecutor_ServesDelayedAccesses(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()

	e, sockDir := newExecutor(t, log)
	sock := filepath.Join(sockDir, fmt.Sprintf("trigger.sock.%d.0", os.Getpid()))
	release := filepath.Join(t.TempDir(), "release")

	rule := domain.NewRule("app",
		fmt.Sprintf(`while [ ! -f %q ]; do sleep 0.01; done`, release),
		nil, []string{"app"})
	tctx := domain.RootContext().Push("app")

	var wanted []string
	want := func(_ context.Context, path string, got *domain.TargetContext) error {
		assert.Same(t, tctx, got)
		wanted = append(wanted, path)
		return nil
	}

	// Stand in for the shim of the running command.
	go func() {
		var conn net.Conn
		assert.Eventually(t, func() bool {
			c, err := net.Dial("unix", sock)
			if err != nil {
				return false
			}
			conn = c
			return true
		}, 5*time.Second, 5*time.Millisecond)
		if conn == nil {
			return
		}
		defer conn.Close()

		client := &shim{t: t, conn: conn}
		client.hello("sh")
		client.send(domain.Access{Func: domain.FuncOpenR, Path: "gen.h", Delayed: true})
		client.send(domain.Access{Func: domain.FuncStat, Path: "main.c"})
		_ = conn.Close()

		assert.NoError(t, os.WriteFile(release, nil, 0o600))
	}()

	accesses, err := e.Execute(t.Context(), rule, tctx, want)
	require.NoError(t, err)

	assert.Equal(t, []string{"gen.h"}, wanted)
	require.Len(t, accesses, 2)
	assert.Equal(t, domain.Access{Func: domain.FuncOpenR, Path: "gen.h", Delayed: true}, accesses[0])
	assert.Equal(t, domain.Access{Func: domain.FuncStat, Path: "main.c"}, accesses[1])
}

func TestExecutor_LingeringDescendantDoesNotHoldJob(t *testing.T) {
	e, sockDir := newExecutor(t, quietLogger(t))
	sock := filepath.Join(sockDir, fmt.Sprintf("trigger.sock.%d.0", os.Getpid()))
	release := filepath.Join(t.TempDir(), "release")

	rule := domain.NewRule("app",
		fmt.Sprintf(`while [ ! -f %q ]; do sleep 0.01; done`, release),
		nil, []string{"app"})

	// A background process of the command that greets and then keeps its
	// connection open after the command itself has exited.
	dropped := make(chan error, 1)
	go func() {
		var conn net.Conn
		assert.Eventually(t, func() bool {
			c, err := net.Dial("unix", sock)
			if err != nil {
				return false
			}
			conn = c
			return true
		}, 5*time.Second, 5*time.Millisecond)
		if conn == nil {
			dropped <- nil
			return
		}
		defer conn.Close()

		client := &shim{t: t, conn: conn}
		client.hello("daemon")
		assert.NoError(t, os.WriteFile(release, nil, 0o600))

		_, err := conn.Read(make([]byte, 1))
		dropped <- err
	}()

	start := time.Now()
	_, err := e.Execute(t.Context(), rule, domain.RootContext(), noWant(t))
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 10*time.Second)
	select {
	case err := <-dropped:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("connection of the background process was left open")
	}
	assert.NoFileExists(t, sock)
}

func TestExecutor_CommandFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.Equal(t, "no such target", err.Error())
	}).Times(1)

	e, _ := newExecutor(t, log)
	rule := domain.NewRule("bad", "echo 'no such target' >&2; exit 3", nil, []string{"bad"})

	_, err := e.Execute(t.Context(), rule, domain.RootContext(), noWant(t))
	require.Error(t, err)
	assert.ErrorContains(t, err, "command failed")
}

func TestExecutor_OutputGoesToVertex(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info("to stdout").Times(1)
	log.EXPECT().Error(gomock.Any()).Times(1)

	var stdout, stderr bytes.Buffer
	vertex := mocks.NewMockVertex(ctrl)
	vertex.EXPECT().Stdout().Return(&stdout).AnyTimes()
	vertex.EXPECT().Stderr().Return(&stderr).AnyTimes()

	e, _ := newExecutor(t, log)
	rule := domain.NewRule("out", "echo to stdout; echo to stderr >&2", nil, []string{"out"})

	ctx := ports.ContextWithVertex(t.Context(), vertex)
	_, err := e.Execute(ctx, rule, domain.RootContext(), noWant(t))
	require.NoError(t, err)

	assert.Equal(t, "to stdout\n", stdout.String())
	assert.Equal(t, "to stderr\n", stderr.String())
}

func TestExecutor_EmptyCommand(t *testing.T) {
	e, sockDir := newExecutor(t, mocks.NewMockLogger(gomock.NewController(t)))

	accesses, err := e.Execute(t.Context(), domain.NewRule("stamp", "", nil, []string{"stamp"}), domain.RootContext(), noWant(t))
	require.NoError(t, err)
	assert.Nil(t, accesses)

	entries, err := os.ReadDir(sockDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExecutor_Cancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()

	e, _ := newExecutor(t, log)
	rule := domain.NewRule("slow", "sleep 30", nil, []string{"slow"})

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := e.Execute(ctx, rule, domain.RootContext(), noWant(t))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
}
