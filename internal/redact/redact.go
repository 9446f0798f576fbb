package redact

// Verdict is a primitive's decision for one candidate field or sub-event.
type Verdict int

const (
	// Keep retains the candidate byte-for-byte.
	Keep Verdict = iota
	// Drop excises the candidate entirely.
	Drop
)

// UnclassifiedPolicy says what a primitive does with content it cannot
// classify. Redaction is safety filtering, so there is no silent default:
// every primitive that can meet ambiguous input declares one of these.
type UnclassifiedPolicy int

const (
	// AbortOnUnclassified fails the whole run when classification fails.
	AbortOnUnclassified UnclassifiedPolicy = iota
	// DropUnclassified excises content that cannot be classified.
	DropUnclassified
)

// A Collector derives facts from the source trace before any rewriting
// happens. Collectors see the original packets in trace order and must
// not retain or mutate them; their only output is the Context.
type Collector interface {
	Name() string
	Collect(packets [][]byte, ctx *Context) error
}

// A Transform rewrites one packet using the sealed Context. Returning the
// input slice unchanged passes the packet through byte-identical.
// Returning a nil packet drops it from the output. Transforms run
// concurrently across packets and must not carry per-packet state.
type Transform interface {
	Name() string
	Transform(packet []byte, ctx *Context) ([]byte, error)
}
