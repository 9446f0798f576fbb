package redact

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/majorcontext/scrub/internal/schema"
	"github.com/majorcontext/scrub/internal/wire"
)

// FindPackageUid is a content-derived collector: it scans the trace's
// package-list packets for the named package and records its uid in the
// Context. The process-name scrub uses that uid to decide which process
// entries belong to the target and may keep their names.
type FindPackageUid struct {
	PackageName string
}

func (FindPackageUid) Name() string { return "find-package-uid" }

// Collect walks every packet looking for a package entry whose name
// matches. The first match wins; a trace with no match cannot be scrubbed
// for this package and fails the run.
func (c FindPackageUid) Collect(packets [][]byte, ctx *Context) error {
	if c.PackageName == "" {
		return fmt.Errorf("no target package configured")
	}

	for _, packet := range packets {
		uid, found, err := findUidInPacket(packet, c.PackageName)
		if err != nil {
			return err
		}
		if found {
			return ctx.SetTargetUID(uid)
		}
	}

	return fmt.Errorf("package %q not present in any package list", c.PackageName)
}

func findUidInPacket(packet []byte, name string) (uint64, bool, error) {
	d := wire.NewDecoder(packet)
	for d.More() {
		f, err := d.Next()
		if err != nil {
			return 0, false, err
		}
		if f.Num != schema.PacketPackagesList || f.Type != protowire.BytesType {
			continue
		}

		uid, found, err := findUidInList(f.Bytes, name)
		if err != nil || found {
			return uid, found, err
		}
	}
	return 0, false, nil
}

func findUidInList(list []byte, name string) (uint64, bool, error) {
	d := wire.NewDecoder(list)
	for d.More() {
		f, err := d.Next()
		if err != nil {
			return 0, false, err
		}
		if f.Num != schema.PackagesListPackage || f.Type != protowire.BytesType {
			continue
		}

		pkgName, uid, err := decodePackage(f.Bytes)
		if err != nil {
			return 0, false, err
		}
		if pkgName == name {
			return uid, true, nil
		}
	}
	return 0, false, nil
}

func decodePackage(pkg []byte) (string, uint64, error) {
	var name string
	var uid uint64

	d := wire.NewDecoder(pkg)
	for d.More() {
		f, err := d.Next()
		if err != nil {
			return "", 0, err
		}
		switch f.Num {
		case schema.PackageName:
			name = string(f.Bytes)
		case schema.PackageUID:
			uid = f.Val
		}
	}
	return name, uid, nil
}
