package trigger

import (
	"bytes"
	"encoding/binary"
	"io"

	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/zerr"
)

// A frame is {uint32 big-endian length}{payload}. The payload of a call is
// {1-byte delayed}{uint32 little-endian function id}{call struct}.
const (
	lengthSize = 4
	headerSize = 5
)

// protocolError marks a violation of the wire format. Unlike plain I/O
// errors, it fails the job that owns the session.
type protocolError struct {
	err error
}

func (e *protocolError) Error() string {
	return e.err.Error()
}

func (e *protocolError) Unwrap() error {
	return e.err
}

// readFrame reads one frame into buf, which must hold MaxFrameSize bytes.
func readFrame(r io.Reader, buf []byte) ([]byte, error) {
	var length [lengthSize]byte
	if _, err := io.ReadFull(r, length[:]); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(length[:])
	if size >= domain.MaxFrameSize {
		return nil, &protocolError{err: zerr.With(domain.ErrFrameTooLarge, "size", size)}
	}

	frame := buf[:size]
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, err
	}
	return frame, nil
}

func writeAck(w io.Writer) error {
	_, err := io.WriteString(w, domain.GoAhead)
	return err
}

// decodeAccess decodes the payload of a call frame.
func decodeAccess(frame []byte) (domain.Access, error) {
	if len(frame) < headerSize {
		return domain.Access{}, &protocolError{err: zerr.With(domain.ErrFrameTruncated, "size", len(frame))}
	}

	access := domain.Access{
		Delayed: frame[0] != 0,
		Func:    domain.FuncID(binary.LittleEndian.Uint32(frame[1:headerSize])),
	}
	if !access.Func.Valid() {
		return access, &protocolError{err: zerr.With(domain.ErrUnknownFunction, "func", uint32(access.Func))}
	}

	body := frame[headerSize:]
	var err error
	switch access.Func {
	case domain.FuncTrace:
		access.Message, err = field(body, 0, domain.MaxTraceMessage)
	case domain.FuncSymlink:
		// {target[MaxPath]}{linkpath[MaxPath]}: the link is what gets created or inspected.
		access.Path, err = field(body, domain.MaxPath, domain.MaxPath)
	default:
		access.Path, err = field(body, 0, domain.MaxPath)
	}
	if err != nil {
		return access, &protocolError{err: zerr.With(err, "func", access.Func.String())}
	}
	return access, nil
}

// field returns the NUL-terminated string stored in the size-byte field
// at off. A field cut short by the end of the frame is accepted.
func field(body []byte, off, size int) (string, error) {
	if len(body) <= off {
		return "", zerr.With(domain.ErrFrameTruncated, "size", len(body))
	}

	raw := body[off:min(len(body), off+size)]
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return string(raw), nil
}
