// Package schema names the wire field numbers of the trace format. The
// redaction passes work on raw wire fields, so these constants are the only
// schema knowledge in the tree; there is no generated code.
package schema

import "google.golang.org/protobuf/encoding/protowire"

// TracePacketField is the single repeated field of the top-level trace
// message. Every top-level field must carry this number.
const TracePacketField protowire.Number = 1

// Fields of a trace packet.
const (
	PacketFtraceEvents            protowire.Number = 1
	PacketProcessTree             protowire.Number = 2
	PacketTrustedUID              protowire.Number = 3
	PacketClockSnapshot           protowire.Number = 6
	PacketTimestamp               protowire.Number = 8
	PacketProcessStats            protowire.Number = 9
	PacketTrustedPacketSequenceID protowire.Number = 10
	PacketInternedData            protowire.Number = 12
	PacketSystemInfo              protowire.Number = 45
	PacketPackagesList            protowire.Number = 79
)

// Fields of an ftrace event bundle.
const (
	BundleCpu          protowire.Number = 1
	BundleEvent        protowire.Number = 2
	BundleLostEvents   protowire.Number = 3
	BundleCompactSched protowire.Number = 4
)

// Fields shared by every ftrace event, regardless of its type. They never
// discriminate between event types and survive redaction whenever the
// event itself does.
const (
	EventTimestamp protowire.Number = 1
	EventPid       protowire.Number = 2
)

// Event-type fields of an ftrace event. Exactly one of these is present
// per event and identifies its type.
const (
	EventPrint             protowire.Number = 3
	EventSchedSwitch       protowire.Number = 4
	EventCpuFrequency      protowire.Number = 11
	EventCpuIdle           protowire.Number = 12
	EventSchedWakeupNew    protowire.Number = 16
	EventSchedWakeup       protowire.Number = 17
	EventSchedWaking       protowire.Number = 27
	EventTaskNewtask       protowire.Number = 44
	EventTaskRename        protowire.Number = 45
	EventSchedProcessExit  protowire.Number = 47
	EventSchedProcessFree  protowire.Number = 49
	EventOomScoreAdjUpdate protowire.Number = 63
)

// Fields of a process tree and its nested messages.
const (
	ProcessTreeProcesses protowire.Number = 1
	ProcessTreeThreads   protowire.Number = 2

	ProcessPid     protowire.Number = 1
	ProcessPpid    protowire.Number = 2
	ProcessCmdline protowire.Number = 3
	ProcessUID     protowire.Number = 5

	ThreadTid  protowire.Number = 1
	ThreadName protowire.Number = 2
	ThreadTgid protowire.Number = 3
)

// Fields of a packages list and its nested package info.
const (
	PackagesListPackage protowire.Number = 1

	PackageName protowire.Number = 1
	PackageUID  protowire.Number = 2
)

// EventNames maps ftrace event-type field numbers to their trace names.
// Used by policy files and by inspect output.
var EventNames = map[protowire.Number]string{
	EventPrint:             "print",
	EventSchedSwitch:       "sched_switch",
	EventCpuFrequency:      "cpu_frequency",
	EventCpuIdle:           "cpu_idle",
	EventSchedWakeupNew:    "sched_wakeup_new",
	EventSchedWakeup:       "sched_wakeup",
	EventSchedWaking:       "sched_waking",
	EventTaskNewtask:       "task_newtask",
	EventTaskRename:        "task_rename",
	EventSchedProcessExit:  "sched_process_exit",
	EventSchedProcessFree:  "sched_process_free",
	EventOomScoreAdjUpdate: "oom_score_adj_update",
}

// EventByName is the inverse of EventNames.
var EventByName = func() map[string]protowire.Number {
	m := make(map[string]protowire.Number, len(EventNames))
	for num, name := range EventNames {
		m[name] = num
	}
	return m
}()

// IsSharedEventField reports whether num is one of the fields that
// accompany every ftrace event rather than identifying its type.
func IsSharedEventField(num protowire.Number) bool {
	return num == EventTimestamp || num == EventPid
}
