package redact

import (
	"fmt"

	"github.com/majorcontext/scrub/internal/wire"
)

// A FieldFilter is one rewrite rule over top-level packet fields.
type FieldFilter interface {
	Name() string
	Filter(field wire.Field, ctx *Context) (Verdict, error)
}

// ScrubTracePacket applies its field filters, in order, to every
// top-level field of every packet. A field survives only if every filter
// keeps it; surviving fields are re-emitted byte-identical. A packet
// whose fields are all dropped is removed from the trace.
type ScrubTracePacket struct {
	filters []FieldFilter
}

// NewScrubTracePacket returns the transform with the given filter chain.
func NewScrubTracePacket(filters ...FieldFilter) *ScrubTracePacket {
	return &ScrubTracePacket{filters: filters}
}

// AddFilter appends a filter to the chain.
func (s *ScrubTracePacket) AddFilter(f FieldFilter) *ScrubTracePacket {
	s.filters = append(s.filters, f)
	return s
}

func (*ScrubTracePacket) Name() string { return "scrub-trace-packet" }

// Transform rebuilds the packet from its surviving fields.
func (s *ScrubTracePacket) Transform(packet []byte, ctx *Context) ([]byte, error) {
	out := wire.NewAppender(len(packet))

	d := wire.NewDecoder(packet)
	for d.More() {
		f, err := d.Next()
		if err != nil {
			return nil, err
		}

		keep := true
		for _, filter := range s.filters {
			v, err := filter.Filter(f, ctx)
			if err != nil {
				return nil, fmt.Errorf("filter %s: field %d: %w", filter.Name(), f.Num, err)
			}
			if v == Drop {
				keep = false
				break
			}
		}
		if keep {
			out.AppendField(f)
		}
	}

	if out.Len() == 0 {
		return nil, nil
	}
	return out.Bytes(), nil
}

// FilterPacketUsingAllowlist drops top-level packet fields whose numbers
// are not on the Context's packet allowlist. Every field number is its
// own classification, so there is no unclassified case here.
type FilterPacketUsingAllowlist struct{}

func (FilterPacketUsingAllowlist) Name() string { return "filter-packet-using-allowlist" }

// Filter keeps a field only when its number is allowlisted.
func (FilterPacketUsingAllowlist) Filter(field wire.Field, ctx *Context) (Verdict, error) {
	allowed, err := ctx.PacketAllowlist()
	if err != nil {
		return Drop, err
	}
	if allowed.Has(field.Num) {
		return Keep, nil
	}
	return Drop, nil
}
