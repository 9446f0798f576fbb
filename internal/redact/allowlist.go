package redact

import (
	"github.com/majorcontext/scrub/internal/schema"
	"google.golang.org/protobuf/encoding/protowire"
)

// defaultPacketAllowlist names the top-level packet fields that are safe
// to retain. Anything else a producer recorded is dropped.
var defaultPacketAllowlist = []protowire.Number{
	schema.PacketFtraceEvents,
	schema.PacketProcessTree,
	schema.PacketClockSnapshot,
	schema.PacketTimestamp,
	schema.PacketProcessStats,
	schema.PacketTrustedPacketSequenceID,
	schema.PacketSystemInfo,
	schema.PacketPackagesList,
}

// defaultEventAllowlist names the kernel event types that are safe to
// retain. Scheduling and cpu state are needed to reconstruct timelines;
// everything else (print, wakeup chains, oom scoring) can carry
// identifying content and is excluded.
var defaultEventAllowlist = []protowire.Number{
	schema.EventSchedSwitch,
	schema.EventCpuFrequency,
	schema.EventCpuIdle,
	schema.EventSchedWaking,
	schema.EventTaskNewtask,
	schema.EventTaskRename,
	schema.EventSchedProcessFree,
}

// PopulateAllowlists is the collector that installs the fixed safety
// policy into the Context. The lists are static: they do not depend on
// what the given trace happens to contain, only on what is known safe.
type PopulateAllowlists struct {
	// ExtraAllow and ExtraDeny adjust the event allowlist, typically from
	// a policy file. Deny wins over allow.
	ExtraAllow []protowire.Number
	ExtraDeny  []protowire.Number
}

func (PopulateAllowlists) Name() string { return "populate-allowlists" }

// Collect installs both allowlists. The trace content is ignored.
func (p PopulateAllowlists) Collect(_ [][]byte, ctx *Context) error {
	if err := ctx.SetPacketAllowlist(NewIDSet(defaultPacketAllowlist...)); err != nil {
		return err
	}

	events := NewIDSet(defaultEventAllowlist...)
	for _, num := range p.ExtraAllow {
		events.Add(num)
	}
	for _, num := range p.ExtraDeny {
		events.Remove(num)
	}
	return ctx.SetEventAllowlist(events)
}
