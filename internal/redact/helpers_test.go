package redact

import (
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/majorcontext/scrub/internal/schema"
	"github.com/majorcontext/scrub/internal/wire"
)

// Builders for synthetic traces. Events carry the shared timestamp and
// pid fields plus one event-type field with an opaque payload.

func buildEvent(ts, pid uint64, typeNum protowire.Number) []byte {
	a := wire.NewAppender(0)
	a.AppendVarint(schema.EventTimestamp, ts)
	a.AppendVarint(schema.EventPid, pid)
	a.AppendBytes(typeNum, []byte{0x08, 0x01}) // minimal event body
	return a.Bytes()
}

func buildTypelessEvent(ts, pid uint64) []byte {
	a := wire.NewAppender(0)
	a.AppendVarint(schema.EventTimestamp, ts)
	a.AppendVarint(schema.EventPid, pid)
	return a.Bytes()
}

func buildBundle(cpu uint64, events ...[]byte) []byte {
	a := wire.NewAppender(0)
	a.AppendVarint(schema.BundleCpu, cpu)
	for _, e := range events {
		a.AppendBytes(schema.BundleEvent, e)
	}
	return a.Bytes()
}

func buildFtracePacket(bundle []byte) []byte {
	a := wire.NewAppender(0)
	a.AppendVarint(schema.PacketTimestamp, 1000)
	a.AppendBytes(schema.PacketFtraceEvents, bundle)
	return a.Bytes()
}

func buildTrace(packets ...[]byte) []byte {
	a := wire.NewAppender(0)
	for _, p := range packets {
		a.AppendBytes(schema.TracePacketField, p)
	}
	return a.Bytes()
}

// buildTrustedUIDOnlyPacket carries a single field that the default
// packet allowlist rejects, so the whole packet gets emptied.
func buildTrustedUIDOnlyPacket() []byte {
	a := wire.NewAppender(0)
	a.AppendVarint(schema.PacketTrustedUID, 9999)
	return a.Bytes()
}

func buildPackage(name string, uid uint64) []byte {
	a := wire.NewAppender(0)
	a.AppendString(schema.PackageName, name)
	a.AppendVarint(schema.PackageUID, uid)
	return a.Bytes()
}

func buildPackagesListPacket(packages ...[]byte) []byte {
	list := wire.NewAppender(0)
	for _, p := range packages {
		list.AppendBytes(schema.PackagesListPackage, p)
	}

	a := wire.NewAppender(0)
	a.AppendBytes(schema.PacketPackagesList, list.Bytes())
	return a.Bytes()
}

func buildProcess(pid, ppid, uid uint64, cmdline string) []byte {
	a := wire.NewAppender(0)
	a.AppendVarint(schema.ProcessPid, pid)
	a.AppendVarint(schema.ProcessPpid, ppid)
	a.AppendString(schema.ProcessCmdline, cmdline)
	a.AppendVarint(schema.ProcessUID, uid)
	return a.Bytes()
}

func buildThread(tid, tgid uint64, name string) []byte {
	a := wire.NewAppender(0)
	a.AppendVarint(schema.ThreadTid, tid)
	a.AppendString(schema.ThreadName, name)
	a.AppendVarint(schema.ThreadTgid, tgid)
	return a.Bytes()
}

func buildProcessTreePacket(processes [][]byte, threads [][]byte) []byte {
	tree := wire.NewAppender(0)
	for _, p := range processes {
		tree.AppendBytes(schema.ProcessTreeProcesses, p)
	}
	for _, th := range threads {
		tree.AppendBytes(schema.ProcessTreeThreads, th)
	}

	a := wire.NewAppender(0)
	a.AppendBytes(schema.PacketProcessTree, tree.Bytes())
	return a.Bytes()
}

// collectedContext returns a Context populated by the standard allowlist
// collector and sealed, as transforms see it.
func collectedContext(t *testing.T) *Context {
	t.Helper()
	ctx := NewContext()
	if err := (PopulateAllowlists{}).Collect(nil, ctx); err != nil {
		t.Fatalf("PopulateAllowlists: %v", err)
	}
	ctx.seal()
	return ctx
}
