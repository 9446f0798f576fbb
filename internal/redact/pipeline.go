package redact

import "google.golang.org/protobuf/encoding/protowire"

// PipelineOptions configures the standard redaction pipeline.
type PipelineOptions struct {
	// ExtraAllow and ExtraDeny adjust the static event allowlist.
	ExtraAllow []protowire.Number
	ExtraDeny  []protowire.Number

	// TargetPackage enables process-name scrubbing: processes not owned
	// by this package lose their names. Empty disables the pass.
	TargetPackage string

	// Workers bounds the transform worker pool. Zero means GOMAXPROCS.
	Workers int
}

// NewDefaultRedactor assembles the standard pipeline. Registration order
// matters and is part of the contract: FindPackageUid must run before
// ScrubProcessTrees reads the target uid, and the packet filter runs
// first so later passes only see allowlisted fields.
func NewDefaultRedactor(opts PipelineOptions) *Redactor {
	r := NewRedactor()
	r.Workers = opts.Workers

	r.AddCollector(PopulateAllowlists{
		ExtraAllow: opts.ExtraAllow,
		ExtraDeny:  opts.ExtraDeny,
	})
	if opts.TargetPackage != "" {
		r.AddCollector(FindPackageUid{PackageName: opts.TargetPackage})
	}

	r.AddTransform(NewScrubTracePacket(FilterPacketUsingAllowlist{}))
	r.AddTransform(NewScrubFtraceEvents(FilterEventsUsingAllowlist{
		Unclassified: AbortOnUnclassified,
	}))
	if opts.TargetPackage != "" {
		r.AddTransform(ScrubProcessTrees{Unclassified: DropUnclassified})
	}

	return r
}
