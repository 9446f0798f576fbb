package redact

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/majorcontext/scrub/internal/schema"
	"github.com/majorcontext/scrub/internal/wire"
)

// ErrProcessWithoutUid reports a process-tree entry with no uid, which
// makes target-or-not undecidable.
var ErrProcessWithoutUid = errors.New("process entry has no uid field")

// ScrubProcessTrees removes names from process-tree packets. Processes
// owned by the target uid (recorded by FindPackageUid) keep their cmdline
// and thread names; every other process has them excised. Pids, ppids and
// tids always survive so the tree shape stays intact.
type ScrubProcessTrees struct {
	// Unclassified says what happens to a process entry with no uid.
	// DropUnclassified scrubs its names as if it were not the target.
	Unclassified UnclassifiedPolicy
}

func (ScrubProcessTrees) Name() string { return "scrub-process-trees" }

// Transform rebuilds the packet, replacing its process tree with a
// scrubbed copy. Packets without a tree pass through unchanged.
func (s ScrubProcessTrees) Transform(packet []byte, ctx *Context) ([]byte, error) {
	found, err := hasField(packet, schema.PacketProcessTree)
	if err != nil {
		return nil, err
	}
	if !found {
		return packet, nil
	}

	target, err := ctx.TargetUID()
	if err != nil {
		return nil, err
	}

	out := wire.NewAppender(len(packet))

	d := wire.NewDecoder(packet)
	for d.More() {
		f, err := d.Next()
		if err != nil {
			return nil, err
		}

		if f.Num != schema.PacketProcessTree || f.Type != protowire.BytesType {
			out.AppendField(f)
			continue
		}

		tree, err := s.scrubTree(f.Bytes, target)
		if err != nil {
			return nil, err
		}
		out.AppendBytes(schema.PacketProcessTree, tree)
	}

	return out.Bytes(), nil
}

// scrubTree rewrites one process tree. It walks the processes twice: once
// to learn which pids belong to the target uid, then again to rewrite
// entries. Threads carry no uid, so they inherit the decision of their
// owning process via tgid.
func (s ScrubProcessTrees) scrubTree(tree []byte, target uint64) ([]byte, error) {
	keepPids, err := s.targetPids(tree, target)
	if err != nil {
		return nil, err
	}

	out := wire.NewAppender(len(tree))

	d := wire.NewDecoder(tree)
	for d.More() {
		f, err := d.Next()
		if err != nil {
			return nil, err
		}

		switch f.Num {
		case schema.ProcessTreeProcesses:
			proc, err := scrubProcess(f.Bytes, keepPids)
			if err != nil {
				return nil, err
			}
			out.AppendBytes(schema.ProcessTreeProcesses, proc)
		case schema.ProcessTreeThreads:
			thread, err := scrubThread(f.Bytes, keepPids)
			if err != nil {
				return nil, err
			}
			out.AppendBytes(schema.ProcessTreeThreads, thread)
		default:
			out.AppendField(f)
		}
	}

	return out.Bytes(), nil
}

// targetPids returns the pids owned by the target uid.
func (s ScrubProcessTrees) targetPids(tree []byte, target uint64) (map[uint64]struct{}, error) {
	pids := make(map[uint64]struct{})

	d := wire.NewDecoder(tree)
	for d.More() {
		f, err := d.Next()
		if err != nil {
			return nil, err
		}
		if f.Num != schema.ProcessTreeProcesses || f.Type != protowire.BytesType {
			continue
		}

		var pid uint64
		var uid uint64
		hasUid := false

		pd := wire.NewDecoder(f.Bytes)
		for pd.More() {
			pf, err := pd.Next()
			if err != nil {
				return nil, err
			}
			switch pf.Num {
			case schema.ProcessPid:
				pid = pf.Val
			case schema.ProcessUID:
				uid = pf.Val
				hasUid = true
			}
		}

		if !hasUid {
			if s.Unclassified == AbortOnUnclassified {
				return nil, fmt.Errorf("pid %d: %w", pid, ErrProcessWithoutUid)
			}
			continue // scrubbed, same as any non-target process
		}
		if uid == target {
			pids[pid] = struct{}{}
		}
	}

	return pids, nil
}

// scrubProcess drops cmdline fields unless the process pid is kept.
func scrubProcess(proc []byte, keepPids map[uint64]struct{}) ([]byte, error) {
	keep, err := messageHasPidIn(proc, schema.ProcessPid, keepPids)
	if err != nil {
		return nil, err
	}
	if keep {
		return proc, nil
	}
	return dropFields(proc, schema.ProcessCmdline)
}

// scrubThread drops the thread name unless the owning process is kept.
func scrubThread(thread []byte, keepPids map[uint64]struct{}) ([]byte, error) {
	keep, err := messageHasPidIn(thread, schema.ThreadTgid, keepPids)
	if err != nil {
		return nil, err
	}
	if keep {
		return thread, nil
	}
	return dropFields(thread, schema.ThreadName)
}

func messageHasPidIn(msg []byte, num protowire.Number, pids map[uint64]struct{}) (bool, error) {
	d := wire.NewDecoder(msg)
	for d.More() {
		f, err := d.Next()
		if err != nil {
			return false, err
		}
		if f.Num == num {
			_, ok := pids[f.Val]
			return ok, nil
		}
	}
	return false, nil
}

// dropFields re-emits msg without any field numbered num.
func dropFields(msg []byte, num protowire.Number) ([]byte, error) {
	out := wire.NewAppender(len(msg))

	d := wire.NewDecoder(msg)
	for d.More() {
		f, err := d.Next()
		if err != nil {
			return nil, err
		}
		if f.Num != num {
			out.AppendField(f)
		}
	}

	return out.Bytes(), nil
}
