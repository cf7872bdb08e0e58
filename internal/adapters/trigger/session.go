package trigger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/seer/internal/core/ports"
	"go.trai.ch/zerr"
)

// session serves one connection of a traced process.
type session struct {
	conn   io.ReadWriter
	tctx   *domain.TargetContext
	want   ports.WantFunc
	trace  *trace
	logger ports.Logger
}

// serve runs the session until the peer disconnects. It returns an error
// only for wire-format violations or cancellation; I/O errors end the
// session quietly.
func (s *session) serve(ctx context.Context) error {
	buf := make([]byte, domain.MaxFrameSize)

	identity, err := s.greet(buf)
	if err != nil {
		return s.end(err)
	}

	for {
		frame, err := readFrame(s.conn, buf)
		if err != nil {
			return s.end(err)
		}

		access, err := decodeAccess(frame)
		if err != nil {
			return s.end(err)
		}
		s.trace.record(access)

		if access.Func == domain.FuncTrace {
			s.logger.Debug(fmt.Sprintf("%s: trace: %s", identity, access.Message))
		} else {
			s.logger.Debug(fmt.Sprintf("%s: %s %q delayed=%t", identity, access.Func, access.Path, access.Delayed))
		}

		if !access.Delayed {
			continue
		}

		if access.Func.ReadsInput() && access.Path != "" {
			if err := s.want(ctx, access.Path, s.tctx); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				// The call proceeds and sees whatever is on disk.
				s.trace.fail(errors.Join(domain.ErrDependencyFailed,
					zerr.With(zerr.Wrap(err, "dynamic input failed"), "path", access.Path)))
			}
		}

		if err := writeAck(s.conn); err != nil {
			return s.end(err)
		}
	}
}

// greet validates the greeting frame and returns the peer's identity.
func (s *session) greet(buf []byte) (string, error) {
	hello, err := readFrame(s.conn, buf)
	if err != nil {
		return "", err
	}

	prefix := []byte(domain.ProtocolGreeting)
	if !bytes.HasPrefix(hello, prefix) {
		got := hello[:min(len(hello), len(prefix))]
		return "", &protocolError{err: zerr.With(domain.ErrBadGreeting, "got", string(got))}
	}

	identity := hello[len(prefix):]
	if i := bytes.IndexByte(identity, 0); i >= 0 {
		identity = identity[:i]
	}

	if err := writeAck(s.conn); err != nil {
		return "", err
	}
	return string(identity), nil
}

func (s *session) end(err error) error {
	var perr *protocolError
	if errors.As(err, &perr) {
		return err
	}
	if !errors.Is(err, io.EOF) {
		s.logger.Debug("session closed: " + err.Error())
	}
	return nil
}
