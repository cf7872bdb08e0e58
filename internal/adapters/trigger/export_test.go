package trigger

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"

	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/seer/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	ReadFrame    = readFrame
	DecodeAccess = decodeAccess
)

// WriteFrame writes payload as one frame.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) >= domain.MaxFrameSize {
		return zerr.With(domain.ErrFrameTooLarge, "size", len(payload))
	}

	frame := make([]byte, lengthSize+len(payload))
	binary.BigEndian.PutUint32(frame, uint32(len(payload))) //nolint:gosec // bounded above
	copy(frame[lengthSize:], payload)

	_, err := w.Write(frame)
	return err
}

// EncodeAccess is the inverse of decodeAccess, standing in for the shim.
func EncodeAccess(a domain.Access) []byte {
	size := domain.MaxPath
	switch a.Func {
	case domain.FuncTrace:
		size = domain.MaxTraceMessage
	case domain.FuncSymlink:
		size = 2 * domain.MaxPath
	}

	payload := make([]byte, headerSize+size)
	if a.Delayed {
		payload[0] = 1
	}
	binary.LittleEndian.PutUint32(payload[1:headerSize], uint32(a.Func))

	body := payload[headerSize:]
	switch a.Func {
	case domain.FuncTrace:
		copy(body[:size-1], a.Message)
	case domain.FuncSymlink:
		copy(body[domain.MaxPath:2*domain.MaxPath-1], a.Path)
	default:
		copy(body[:size-1], a.Path)
	}
	return payload
}

// ServeSession runs one session on conn and returns what it recorded.
func ServeSession(
	ctx context.Context,
	conn net.Conn,
	tctx *domain.TargetContext,
	want ports.WantFunc,
	logger ports.Logger,
) ([]domain.Access, error) {
	tr := &trace{}
	s := &session{conn: conn, tctx: tctx, want: want, trace: tr, logger: logger}
	err := s.serve(ctx)

	accesses, wantErr := tr.result()
	return accesses, errors.Join(err, wantErr)
}
