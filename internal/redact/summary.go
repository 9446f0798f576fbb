package redact

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/majorcontext/scrub/internal/schema"
	"github.com/majorcontext/scrub/internal/wire"
)

// Summary tallies what a trace contains. It is produced by re-parsing a
// trace with the same decoder the pipeline uses, which is how redaction
// results are verified: an event type absent from the summary is absent
// from the trace.
type Summary struct {
	Packets int
	Events  int

	// PacketFields counts top-level packet fields by number.
	PacketFields map[protowire.Number]int

	// EventFields counts ftrace event fields by number, shared fields
	// (timestamp, pid) included.
	EventFields map[protowire.Number]int
}

// Summarize parses a raw trace and tallies its packet and event fields.
func Summarize(raw []byte) (*Summary, error) {
	packets, err := splitPackets(raw)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		Packets:      len(packets),
		PacketFields: make(map[protowire.Number]int),
		EventFields:  make(map[protowire.Number]int),
	}

	for _, packet := range packets {
		d := wire.NewDecoder(packet)
		for d.More() {
			f, err := d.Next()
			if err != nil {
				return nil, err
			}
			s.PacketFields[f.Num]++

			if f.Num == schema.PacketFtraceEvents && f.Type == protowire.BytesType {
				if err := s.tallyBundle(f.Bytes); err != nil {
					return nil, err
				}
			}
		}
	}

	return s, nil
}

func (s *Summary) tallyBundle(bundle []byte) error {
	d := wire.NewDecoder(bundle)
	for d.More() {
		f, err := d.Next()
		if err != nil {
			return err
		}
		if f.Num != schema.BundleEvent || f.Type != protowire.BytesType {
			continue
		}

		s.Events++
		ed := wire.NewDecoder(f.Bytes)
		for ed.More() {
			ef, err := ed.Next()
			if err != nil {
				return err
			}
			s.EventFields[ef.Num]++
		}
	}
	return nil
}

// EventTypes returns the set of event-type field numbers present, shared
// fields excluded.
func (s *Summary) EventTypes() IDSet {
	types := make(IDSet)
	for num := range s.EventFields {
		if !schema.IsSharedEventField(num) {
			types.Add(num)
		}
	}
	return types
}
