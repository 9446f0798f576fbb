package redact

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/majorcontext/scrub/internal/schema"
	"github.com/majorcontext/scrub/internal/wire"
)

// ErrUnclassifiedEvent reports a bundle sub-event with no event-type
// field, which makes keep/drop undecidable.
var ErrUnclassifiedEvent = errors.New("event has no type field")

// An EventFilter is one rewrite rule over ftrace bundle sub-events. The
// event bytes passed in are the complete encoded sub-event; the filter
// decides whether it stays in the bundle. Dropping is all-or-nothing per
// event.
type EventFilter interface {
	Name() string
	Filter(event []byte, ctx *Context) (Verdict, error)
}

// ScrubFtraceEvents rewrites packets that carry an ftrace event bundle.
// It applies its filters, in order, to every sub-event; an event survives
// only if every filter keeps it. Bundle fields that are not events (cpu,
// lost_events) and packet fields outside the bundle pass through
// byte-identical.
type ScrubFtraceEvents struct {
	filters []EventFilter
}

// NewScrubFtraceEvents returns the transform with the given filter chain.
func NewScrubFtraceEvents(filters ...EventFilter) *ScrubFtraceEvents {
	return &ScrubFtraceEvents{filters: filters}
}

// AddFilter appends a filter to the chain.
func (s *ScrubFtraceEvents) AddFilter(f EventFilter) *ScrubFtraceEvents {
	s.filters = append(s.filters, f)
	return s
}

func (*ScrubFtraceEvents) Name() string { return "scrub-ftrace-events" }

// Transform rebuilds the packet, replacing its event bundle with a
// filtered copy. Packets without a bundle are returned unchanged.
func (s *ScrubFtraceEvents) Transform(packet []byte, ctx *Context) ([]byte, error) {
	found, err := hasField(packet, schema.PacketFtraceEvents)
	if err != nil {
		return nil, err
	}
	if !found {
		return packet, nil
	}

	out := wire.NewAppender(len(packet))

	d := wire.NewDecoder(packet)
	for d.More() {
		f, err := d.Next()
		if err != nil {
			return nil, err
		}

		if f.Num != schema.PacketFtraceEvents || f.Type != protowire.BytesType {
			out.AppendField(f)
			continue
		}

		bundle, err := s.filterBundle(f.Bytes, ctx)
		if err != nil {
			return nil, err
		}
		out.AppendBytes(schema.PacketFtraceEvents, bundle)
	}

	return out.Bytes(), nil
}

// filterBundle rebuilds one event bundle, keeping only the sub-events the
// filter chain permits. The bundle's length prefix is recomputed by the
// appender when the bundle is re-parented.
func (s *ScrubFtraceEvents) filterBundle(bundle []byte, ctx *Context) ([]byte, error) {
	out := wire.NewAppender(len(bundle))

	d := wire.NewDecoder(bundle)
	for d.More() {
		f, err := d.Next()
		if err != nil {
			return nil, err
		}

		if f.Num != schema.BundleEvent {
			out.AppendField(f)
			continue
		}
		if f.Type != protowire.BytesType {
			return nil, fmt.Errorf("bundle event field has wire type %d, want length-delimited", f.Type)
		}

		keep := true
		for _, filter := range s.filters {
			v, err := filter.Filter(f.Bytes, ctx)
			if err != nil {
				return nil, fmt.Errorf("filter %s: %w", filter.Name(), err)
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

	return out.Bytes(), nil
}

// eventType returns the event-type field number of one encoded sub-event.
// Shared fields (timestamp, pid) never discriminate. An event carrying no
// type field at all returns ErrUnclassifiedEvent.
func eventType(event []byte) (protowire.Number, error) {
	d := wire.NewDecoder(event)
	for d.More() {
		f, err := d.Next()
		if err != nil {
			return 0, err
		}
		if schema.IsSharedEventField(f.Num) {
			continue
		}
		return f.Num, nil
	}
	return 0, ErrUnclassifiedEvent
}

// FilterEventsUsingAllowlist drops every sub-event whose type is not on
// the Context's event allowlist. The unclassified policy is explicit:
// redaction exists to stop leaks, so events that cannot be classified are
// never silently kept.
type FilterEventsUsingAllowlist struct {
	Unclassified UnclassifiedPolicy
}

func (FilterEventsUsingAllowlist) Name() string { return "filter-events-using-allowlist" }

// Filter keeps an event only when its type is allowlisted.
func (f FilterEventsUsingAllowlist) Filter(event []byte, ctx *Context) (Verdict, error) {
	allowed, err := ctx.EventAllowlist()
	if err != nil {
		return Drop, err
	}

	num, err := eventType(event)
	if err != nil {
		if errors.Is(err, ErrUnclassifiedEvent) && f.Unclassified == DropUnclassified {
			return Drop, nil
		}
		return Drop, err
	}

	if allowed.Has(num) {
		return Keep, nil
	}
	return Drop, nil
}

// hasField reports whether the message contains a field with the given
// number. A malformed message is an error, never a "not present": an
// answer based on a partial decode could pass sensitive content through.
func hasField(msg []byte, num protowire.Number) (bool, error) {
	d := wire.NewDecoder(msg)
	for d.More() {
		f, err := d.Next()
		if err != nil {
			return false, err
		}
		if f.Num == num {
			return true, nil
		}
	}
	return false, nil
}
