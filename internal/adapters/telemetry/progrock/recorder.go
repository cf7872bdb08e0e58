// Package progrock records one progrock vertex per executed rule.
package progrock

import (
	"context"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/seer/internal/core/ports"
)

// Recorder implements ports.Telemetry on a progrock writer.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

// New creates a Recorder writing to an in-memory tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// Record starts a vertex named after the rule (or the build) and returns a
// context carrying it, which the executor picks up for child output. A
// vertex recorded under another one lists it as input.
func (r *Recorder) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	v := &ruleVertex{digest: digest.FromString(name)}

	var opts []progrock.VertexOpt
	if parent, ok := ports.VertexFromContext(ctx); ok {
		if p, ok := parent.(*ruleVertex); ok {
			opts = append(opts, progrock.WithInputs(p.digest))
		}
	}
	v.rec = r.rec.Vertex(v.digest, name, opts...)

	return ports.ContextWithVertex(ctx, v), v
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	return r.w.Close()
}

type ruleVertex struct {
	digest digest.Digest
	rec    *progrock.VertexRecorder
}

func (v *ruleVertex) Stdout() io.Writer { return v.rec.Stdout() }
func (v *ruleVertex) Stderr() io.Writer { return v.rec.Stderr() }

// Log writes warnings and errors to the vertex's stderr, anything else to
// its stdout.
func (v *ruleVertex) Log(level domain.LogLevel, msg string) {
	w := v.rec.Stdout()
	if level >= domain.LogLevelWarn {
		w = v.rec.Stderr()
	}
	_, _ = fmt.Fprintf(w, "[%s] %s\n", level, msg)
}

func (v *ruleVertex) Complete(err error) {
	v.rec.Done(err)
}

// Cached marks a rule whose outputs were all ready. The vertex is completed
// too: a skipped rule never reaches Complete.
func (v *ruleVertex) Cached() {
	v.rec.Cached()
	v.rec.Done(nil)
}
