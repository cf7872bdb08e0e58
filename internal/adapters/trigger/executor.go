// Package trigger runs rule commands as traced processes and serves the
// interception protocol their shim speaks over a private unix socket.
package trigger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/seer/internal/core/ports"
	"go.trai.ch/zerr"
)

// waitDelay bounds how long output pipes and sessions held open by leftover
// descendants delay the end of a job once the command has exited.
const waitDelay = 2 * time.Second

// Executor implements ports.Executor. Every call gets a fresh job id and
// socket.
type Executor struct {
	shimPath   string
	socketDir  string
	rootFilter string
	limit      int
	logger     ports.Logger

	nextID atomic.Uint64
}

// NewExecutor creates an Executor from settings. Relative shim and root
// filter paths are resolved against the working directory.
func NewExecutor(settings domain.Settings, logger ports.Logger) (*Executor, error) {
	shim, err := absolute(settings.ShimPath)
	if err != nil {
		return nil, err
	}
	root, err := absolute(settings.RootFilter)
	if err != nil {
		return nil, err
	}
	if root == "" {
		if root, err = os.Getwd(); err != nil {
			return nil, zerr.Wrap(err, "failed to get working directory")
		}
	}

	return &Executor{
		shimPath:   shim,
		socketDir:  settings.SocketDir,
		rootFilter: root,
		limit:      settings.ConnectionLimit,
		logger:     logger,
	}, nil
}

// Execute runs the command of rule under /bin/sh with the shim wired to a
// private socket, serving its sessions until the command exits.
func (e *Executor) Execute(
	ctx context.Context,
	rule *domain.Rule,
	tctx *domain.TargetContext,
	want ports.WantFunc,
) ([]domain.Access, error) {
	if rule.Command() == "" {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	id := e.nextID.Add(1) - 1
	sock := filepath.Join(e.socketDir, fmt.Sprintf("trigger.sock.%d.%d", os.Getpid(), id))
	tr := &trace{}

	srv, err := Listen(sock, e.limit, func(ctx context.Context, conn net.Conn) error {
		s := &session{conn: conn, tctx: tctx, want: want, trace: tr, logger: e.logger}
		return s.serve(ctx)
	}, e.logger)
	if err != nil {
		return nil, zerr.With(err, "rule", rule.String())
	}

	served := make(chan error, 1)
	go func() {
		served <- srv.Serve(ctx)
	}()

	cmd := exec.CommandContext(ctx, domain.Shell, "-c", rule.Command()) //nolint:gosec // rule commands are user provided
	cmd.Env = e.environ(sock, id)
	// Cancellation kills the whole process group, not just the shell.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay

	stdout, stderr := e.outputs(ctx)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	runErr := cmd.Run()
	_ = stdout.Close()
	_ = stderr.Close()

	sessionErr := srv.Shutdown(waitDelay)
	if err := <-served; err != nil {
		e.logger.Debug("connection server stopped: " + err.Error())
	}

	accesses, wantErr := tr.result()

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return accesses, zerr.With(zerr.Wrap(runErr, "command failed"), "exit_code", exitErr.ExitCode())
		}
		return accesses, zerr.With(zerr.Wrap(runErr, domain.ErrCommandStartFailed.Error()), "rule", rule.String())
	}
	if err := errors.Join(sessionErr, wantErr); err != nil {
		return accesses, err
	}
	return accesses, nil
}

func (e *Executor) environ(sock string, id uint64) []string {
	env := os.Environ()
	if e.shimPath != "" {
		env = append(env, domain.EnvPreload+"="+e.shimPath)
	}
	return append(env,
		domain.EnvMasterAddr+"="+sock,
		domain.EnvJobID+"="+strconv.FormatUint(id, 10),
		domain.EnvRootFilter+"="+e.rootFilter,
	)
}

// outputs returns the child's stdout and stderr writers. Lines go to the
// logger, and to the vertex carried by ctx when there is one.
func (e *Executor) outputs(ctx context.Context) (stdout, stderr *outputWriter) {
	stdout = &outputWriter{log: &logWriter{logger: e.logger, level: "info"}}
	stderr = &outputWriter{log: &logWriter{logger: e.logger, level: "error"}}

	if vertex, ok := ports.VertexFromContext(ctx); ok {
		stdout.sink = vertex.Stdout()
		stderr.sink = vertex.Stderr()
	}
	return stdout, stderr
}

func absolute(path string) (string, error) {
	if path == "" || filepath.IsAbs(path) {
		return path, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to resolve path"), "path", path)
	}
	return abs, nil
}

// outputWriter tees child output into its line logger and an optional sink.
type outputWriter struct {
	log  *logWriter
	sink io.Writer
}

func (w *outputWriter) Write(p []byte) (int, error) {
	if w.sink != nil {
		_, _ = w.sink.Write(p)
	}
	return w.log.Write(p)
}

func (w *outputWriter) Close() error {
	return w.log.Close()
}

// logWriter turns a byte stream into one log record per line.
type logWriter struct {
	logger ports.Logger
	level  string
	buf    []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	msg := strings.TrimSuffix(string(line), "\r")

	if w.level == "info" {
		w.logger.Info(msg)
	} else {
		w.logger.Error(zerr.New(msg))
	}
}
