// Package ruledb provides the rule databases a build resolves targets with:
// a long-running query program and a static YAML rules file.
package ruledb

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/zerr"
)

// Program is a RuleDatabase backed by a query program. The program reads
// one target name per line on stdin and answers with three blocks, each a
// decimal line count followed by that many lines: command, inputs, outputs.
// An empty command block together with an empty outputs block means the
// target has no rule.
type Program struct {
	command string
	cmd     *exec.Cmd

	mu     sync.Mutex
	stdin  io.WriteCloser
	stdout *bufio.Reader
	dead   error
}

// StartProgram starts command under /bin/sh. The program lives until Close
// or until ctx is done.
func StartProgram(ctx context.Context, command string) (*Program, error) {
	cmd := exec.CommandContext(ctx, domain.Shell, "-c", command) //nolint:gosec // user provided query program
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrQueryProgramFailed.Error()), "program", command)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrQueryProgramFailed.Error()), "program", command)
	}

	if err := cmd.Start(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrQueryProgramFailed.Error()), "program", command)
	}

	return &Program{
		command: command,
		cmd:     cmd,
		stdin:   stdin,
		stdout:  bufio.NewReader(stdout),
	}, nil
}

// Query asks the program for the rule of target. Queries are serialized.
// Any I/O or format error leaves the program unusable.
func (p *Program) Query(_ context.Context, target string) (*domain.Rule, error) {
	if strings.ContainsRune(target, '\n') {
		return nil, zerr.With(zerr.New("target name contains a newline"), "target", target)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dead != nil {
		return nil, p.dead
	}

	rule, err := p.query(target)
	if err != nil {
		p.dead = err
		return nil, err
	}
	return rule, nil
}

func (p *Program) query(target string) (*domain.Rule, error) {
	if _, err := io.WriteString(p.stdin, target+"\n"); err != nil {
		return nil, p.failed(err, target)
	}

	command, err := p.readBlock(target)
	if err != nil {
		return nil, err
	}
	inputs, err := p.readBlock(target)
	if err != nil {
		return nil, err
	}
	outputs, err := p.readBlock(target)
	if err != nil {
		return nil, err
	}

	if len(command) == 0 && len(outputs) == 0 {
		return nil, nil
	}
	return domain.NewRule(target, strings.Join(command, "\n"), inputs, outputs), nil
}

func (p *Program) readBlock(target string) ([]string, error) {
	line, err := p.readLine()
	if err != nil {
		return nil, p.failed(err, target)
	}

	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 0 {
		return nil, zerr.With(zerr.With(domain.ErrMalformedQueryReply, "target", target), "count", line)
	}

	lines := make([]string, 0, n)
	for range n {
		line, err := p.readLine()
		if err != nil {
			return nil, p.failed(err, target)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (p *Program) readLine() (string, error) {
	line, err := p.stdout.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return strings.TrimSuffix(line, "\n"), nil
}

func (p *Program) failed(err error, target string) error {
	return zerr.With(zerr.With(zerr.Wrap(err, domain.ErrQueryProgramFailed.Error()), "program", p.command), "target", target)
}

// Close closes the program's stdin and waits for it to exit.
func (p *Program) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	_ = p.stdin.Close()
	if err := p.cmd.Wait(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrQueryProgramFailed.Error()), "program", p.command)
	}
	return nil
}
