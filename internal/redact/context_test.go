package redact

import (
	"strings"
	"testing"
)

func TestContextSlotWrittenOnce(t *testing.T) {
	ctx := NewContext()

	if err := ctx.SetEventAllowlist(NewIDSet(1)); err != nil {
		t.Fatalf("first write: %v", err)
	}
	err := ctx.SetEventAllowlist(NewIDSet(2))
	if err == nil {
		t.Fatal("second write to the same slot should fail")
	}
	if !strings.Contains(err.Error(), "event-allowlist") {
		t.Errorf("error %q does not name the slot", err)
	}

	// The first value must be untouched.
	got, err := ctx.EventAllowlist()
	if err != nil {
		t.Fatalf("EventAllowlist: %v", err)
	}
	if !got.Has(1) || got.Has(2) {
		t.Errorf("allowlist = %v, want the first write", got)
	}
}

func TestContextMissingSlotNamesIt(t *testing.T) {
	ctx := NewContext()

	_, err := ctx.TargetUID()
	if err == nil {
		t.Fatal("reading an unpopulated slot should fail")
	}
	if !strings.Contains(err.Error(), "target-uid") {
		t.Errorf("error %q does not name the missing slot", err)
	}
	if !strings.Contains(err.Error(), "collector") {
		t.Errorf("error %q does not point at the missing collector", err)
	}
}

func TestContextSealedRejectsWrites(t *testing.T) {
	ctx := NewContext()
	if err := ctx.SetPacketAllowlist(NewIDSet(1)); err != nil {
		t.Fatalf("SetPacketAllowlist: %v", err)
	}
	ctx.seal()

	if err := ctx.SetEventAllowlist(NewIDSet(1)); err == nil {
		t.Error("write after seal should fail")
	}

	// Reads still work after sealing.
	if _, err := ctx.PacketAllowlist(); err != nil {
		t.Errorf("read after seal: %v", err)
	}
}

func TestIDSetClone(t *testing.T) {
	s := NewIDSet(1, 2)
	c := s.Clone()
	c.Add(3)
	c.Remove(1)

	if s.Has(3) || !s.Has(1) {
		t.Error("mutating a clone changed the original")
	}
}
