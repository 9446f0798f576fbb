package redact

import (
	"errors"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/majorcontext/scrub/internal/schema"
	"github.com/majorcontext/scrub/internal/wire"
)

const targetUID = 10042

func processTreeContext(t *testing.T) *Context {
	t.Helper()
	ctx := NewContext()
	if err := ctx.SetTargetUID(targetUID); err != nil {
		t.Fatalf("SetTargetUID: %v", err)
	}
	ctx.seal()
	return ctx
}

// decodeTreeStrings returns, per process pid, its cmdline values, and per
// thread tid, its name values.
func decodeTreeStrings(t *testing.T, packet []byte) (map[uint64][]string, map[uint64][]string) {
	t.Helper()
	cmdlines := make(map[uint64][]string)
	threadNames := make(map[uint64][]string)

	d := wire.NewDecoder(packet)
	for d.More() {
		f, err := d.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if f.Num != schema.PacketProcessTree {
			continue
		}

		td := wire.NewDecoder(f.Bytes)
		for td.More() {
			tf, err := td.Next()
			if err != nil {
				t.Fatalf("tree Next: %v", err)
			}

			var id uint64
			var vals []string
			var idField, strField protowire.Number
			switch tf.Num {
			case schema.ProcessTreeProcesses:
				idField, strField = schema.ProcessPid, schema.ProcessCmdline
			case schema.ProcessTreeThreads:
				idField, strField = schema.ThreadTid, schema.ThreadName
			default:
				continue
			}

			ed := wire.NewDecoder(tf.Bytes)
			for ed.More() {
				ef, err := ed.Next()
				if err != nil {
					t.Fatalf("entry Next: %v", err)
				}
				switch ef.Num {
				case idField:
					id = ef.Val
				case strField:
					vals = append(vals, string(ef.Bytes))
				}
			}

			if tf.Num == schema.ProcessTreeProcesses {
				cmdlines[id] = vals
			} else {
				threadNames[id] = vals
			}
		}
	}
	return cmdlines, threadNames
}

func TestProcessTreeScrubKeepsTargetNames(t *testing.T) {
	packet := buildProcessTreePacket(
		[][]byte{
			buildProcess(100, 1, targetUID, "com.example.app"),
			buildProcess(200, 1, 10001, "com.other.app"),
		},
		[][]byte{
			buildThread(101, 100, "RenderThread"),
			buildThread(201, 200, "Binder:200_1"),
		},
	)

	ctx := processTreeContext(t)
	out, err := ScrubProcessTrees{Unclassified: AbortOnUnclassified}.Transform(packet, ctx)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	cmdlines, threadNames := decodeTreeStrings(t, out)

	if got := cmdlines[100]; len(got) != 1 || got[0] != "com.example.app" {
		t.Errorf("target cmdline = %v, want [com.example.app]", got)
	}
	if got := cmdlines[200]; len(got) != 0 {
		t.Errorf("non-target cmdline = %v, want scrubbed", got)
	}
	if got := threadNames[101]; len(got) != 1 || got[0] != "RenderThread" {
		t.Errorf("target thread name = %v, want [RenderThread]", got)
	}
	if got := threadNames[201]; len(got) != 0 {
		t.Errorf("non-target thread name = %v, want scrubbed", got)
	}

	// Tree shape survives: both processes and both threads still there.
	if len(cmdlines) != 2 || len(threadNames) != 2 {
		t.Errorf("tree shape changed: %d processes, %d threads", len(cmdlines), len(threadNames))
	}
}

func TestProcessTreeScrubUnclassifiedPolicies(t *testing.T) {
	noUID := func() []byte {
		a := wire.NewAppender(0)
		a.AppendVarint(schema.ProcessPid, 300)
		a.AppendString(schema.ProcessCmdline, "mystery")
		return a.Bytes()
	}()
	packet := buildProcessTreePacket([][]byte{noUID}, nil)

	t.Run("abort", func(t *testing.T) {
		ctx := processTreeContext(t)
		_, err := ScrubProcessTrees{Unclassified: AbortOnUnclassified}.Transform(packet, ctx)
		if !errors.Is(err, ErrProcessWithoutUid) {
			t.Errorf("err = %v, want ErrProcessWithoutUid", err)
		}
	})

	t.Run("drop", func(t *testing.T) {
		ctx := processTreeContext(t)
		out, err := ScrubProcessTrees{Unclassified: DropUnclassified}.Transform(packet, ctx)
		if err != nil {
			t.Fatalf("Transform: %v", err)
		}
		cmdlines, _ := decodeTreeStrings(t, out)
		if got := cmdlines[300]; len(got) != 0 {
			t.Errorf("uid-less process cmdline = %v, want scrubbed", got)
		}
	})
}

func TestProcessTreeScrubRejectsMalformedPacket(t *testing.T) {
	good := buildProcessTreePacket([][]byte{buildProcess(1, 0, targetUID, "init")}, nil)
	malformed := append([]byte{0x08, 0x80}, good...)

	ctx := processTreeContext(t)
	if _, err := (ScrubProcessTrees{}).Transform(malformed, ctx); err == nil {
		t.Error("malformed packet should fail, not pass through")
	}
}

func TestProcessTreeScrubRequiresTargetUID(t *testing.T) {
	packet := buildProcessTreePacket([][]byte{buildProcess(1, 0, 0, "init")}, nil)

	ctx := NewContext()
	ctx.seal()

	_, err := ScrubProcessTrees{}.Transform(packet, ctx)
	if err == nil {
		t.Fatal("missing target-uid slot should fail the transform")
	}
}
