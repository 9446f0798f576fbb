package redact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/majorcontext/scrub/internal/log"
	"github.com/majorcontext/scrub/internal/schema"
	"github.com/majorcontext/scrub/internal/wire"
)

// runState tracks how far a run progressed. Failure at any stage is
// terminal and guarantees the destination path is untouched.
type runState int

const (
	stateCreated runState = iota
	stateBuilt
	stateTransformed
	stateWritten
	stateFailed
)

func (s runState) String() string {
	switch s {
	case stateCreated:
		return "created"
	case stateBuilt:
		return "built"
	case stateTransformed:
		return "transformed"
	case stateWritten:
		return "written"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Redactor drives a redaction run: collectors in registration order, then
// transforms in registration order over every packet, then an atomic
// publish of the output file. Registration order is a caller contract;
// the redactor does not reorder passes to satisfy slot dependencies.
type Redactor struct {
	collectors []Collector
	transforms []Transform

	// Workers bounds the transform worker pool. Zero means GOMAXPROCS.
	Workers int
}

// NewRedactor returns a Redactor with no passes registered.
func NewRedactor() *Redactor {
	return &Redactor{}
}

// AddCollector appends a collector to the collect phase.
func (r *Redactor) AddCollector(c Collector) *Redactor {
	r.collectors = append(r.collectors, c)
	return r
}

// AddTransform appends a transform to the transform phase.
func (r *Redactor) AddTransform(t Transform) *Redactor {
	r.transforms = append(r.transforms, t)
	return r
}

// Redact reads the trace at src, runs the registered passes, and writes
// the redacted trace to dst. On any failure dst is left exactly as it
// was: output goes to a temp file in dst's directory and is renamed into
// place only after the whole pipeline succeeds.
func (r *Redactor) Redact(ctx context.Context, src, dst string, rctx *Context) error {
	state := stateCreated
	start := time.Now()
	rlog := log.With("src", src)

	fail := func(err error) error {
		rlog.Error("redaction failed", "stage", state.String(), "error", err)
		state = stateFailed
		return err
	}

	raw, err := os.ReadFile(src)
	if err != nil {
		return fail(fmt.Errorf("reading source trace %s: %w", src, err))
	}

	packets, err := splitPackets(raw)
	if err != nil {
		return fail(fmt.Errorf("parsing source trace %s: %w", src, err))
	}
	rlog.Debug("source trace parsed", "packets", len(packets), "bytes", len(raw))

	for _, c := range r.collectors {
		if err := c.Collect(packets, rctx); err != nil {
			return fail(fmt.Errorf("collector %s: %w", c.Name(), err))
		}
	}
	rctx.seal()
	state = stateBuilt

	out, err := r.transformAll(ctx, packets, rctx)
	if err != nil {
		return fail(err)
	}
	state = stateTransformed

	if kept := countKept(out); kept == 0 && len(packets) > 0 {
		rlog.Warn("every packet was removed; the redacted trace is empty")
	}

	if err := writeTrace(dst, out); err != nil {
		return fail(err)
	}
	state = stateWritten

	rlog.Info("trace redacted",
		"state", state.String(),
		"dst", dst,
		"packets_in", len(packets),
		"packets_out", countKept(out),
		"duration", time.Since(start))
	return nil
}

// transformAll applies every transform, in order, to every packet. Packets
// are independent once the Context is sealed, so they are processed by a
// bounded worker pool; output order is restored by writing results into a
// slice indexed by input position. Cancellation is honored at packet
// boundaries only.
func (r *Redactor) transformAll(ctx context.Context, packets [][]byte, rctx *Context) ([][]byte, error) {
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([][]byte, len(packets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, packet := range packets {
		i, packet := i, packet
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := packet
			for _, t := range r.transforms {
				var err error
				p, err = t.Transform(p, rctx)
				if err != nil {
					return fmt.Errorf("transform %s: packet %d: %w", t.Name(), i, err)
				}
				if p == nil {
					break
				}
			}
			out[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// splitPackets decodes the top-level trace message into its packets. The
// only legal top-level field is the repeated packet field; anything else
// means the buffer is not a trace.
func splitPackets(raw []byte) ([][]byte, error) {
	var packets [][]byte

	d := wire.NewDecoder(raw)
	for d.More() {
		f, err := d.Next()
		if err != nil {
			return nil, err
		}
		if f.Num != schema.TracePacketField || f.Type != protowire.BytesType {
			return nil, fmt.Errorf("unexpected top-level field %d (wire type %d); not a trace", f.Num, f.Type)
		}
		packets = append(packets, f.Bytes)
	}

	return packets, nil
}

// writeTrace serializes packets to a temp file next to dst and renames it
// into place. A nil packet was dropped by a transform and is omitted.
func writeTrace(dst string, packets [][]byte) error {
	a := wire.NewAppender(traceSize(packets))
	for _, p := range packets {
		if p == nil {
			continue
		}
		a.AppendBytes(schema.TracePacketField, p)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".scrub-*")
	if err != nil {
		return fmt.Errorf("creating temp output near %s: %w", dst, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(a.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing redacted trace: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing redacted trace: %w", err)
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("publishing redacted trace to %s: %w", dst, err)
	}
	return nil
}

func traceSize(packets [][]byte) int {
	n := 0
	for _, p := range packets {
		n += len(p) + 8
	}
	return n
}

func countKept(packets [][]byte) int {
	n := 0
	for _, p := range packets {
		if p != nil {
			n++
		}
	}
	return n
}
