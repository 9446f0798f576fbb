package redact

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// IDSet is a set of wire field numbers.
type IDSet map[protowire.Number]struct{}

// NewIDSet builds a set from the given field numbers.
func NewIDSet(nums ...protowire.Number) IDSet {
	s := make(IDSet, len(nums))
	for _, n := range nums {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether num is in the set.
func (s IDSet) Has(num protowire.Number) bool {
	_, ok := s[num]
	return ok
}

// Add inserts num into the set.
func (s IDSet) Add(num protowire.Number) {
	s[num] = struct{}{}
}

// Remove deletes num from the set.
func (s IDSet) Remove(num protowire.Number) {
	delete(s, num)
}

// Clone returns an independent copy of the set.
func (s IDSet) Clone() IDSet {
	c := make(IDSet, len(s))
	for n := range s {
		c[n] = struct{}{}
	}
	return c
}

// Context slot names. Each slot is written by exactly one collector.
const (
	slotPacketAllowlist = "packet-allowlist"
	slotEventAllowlist  = "event-allowlist"
	slotTargetUID       = "target-uid"
)

// Context carries facts derived during the collect phase to the
// transforms. Every slot is written at most once; reading a slot no
// collector populated is a configuration error, reported with the slot
// name so the missing collector can be identified. After the collect
// phase the orchestrator seals the Context and all writes fail, which
// makes it safe to share across transform workers without locking.
type Context struct {
	sealed bool
	slots  map[string]any
}

// NewContext returns an empty, unsealed Context.
func NewContext() *Context {
	return &Context{slots: make(map[string]any)}
}

func (c *Context) set(slot string, v any) error {
	if c.sealed {
		return fmt.Errorf("redact: context is sealed; collector tried to write slot %q after the collect phase", slot)
	}
	if _, dup := c.slots[slot]; dup {
		return fmt.Errorf("redact: context slot %q written twice; each slot has exactly one collector", slot)
	}
	c.slots[slot] = v
	return nil
}

func (c *Context) get(slot string) (any, error) {
	v, ok := c.slots[slot]
	if !ok {
		return nil, fmt.Errorf("redact: context slot %q was never populated; a collector is missing or misordered", slot)
	}
	return v, nil
}

// seal freezes the Context at the end of the collect phase.
func (c *Context) seal() {
	c.sealed = true
}

// SetPacketAllowlist records the permitted top-level packet field numbers.
func (c *Context) SetPacketAllowlist(s IDSet) error {
	return c.set(slotPacketAllowlist, s)
}

// PacketAllowlist returns the permitted top-level packet field numbers.
func (c *Context) PacketAllowlist() (IDSet, error) {
	v, err := c.get(slotPacketAllowlist)
	if err != nil {
		return nil, err
	}
	return v.(IDSet), nil
}

// SetEventAllowlist records the permitted ftrace event-type field numbers.
func (c *Context) SetEventAllowlist(s IDSet) error {
	return c.set(slotEventAllowlist, s)
}

// EventAllowlist returns the permitted ftrace event-type field numbers.
func (c *Context) EventAllowlist() (IDSet, error) {
	v, err := c.get(slotEventAllowlist)
	if err != nil {
		return nil, err
	}
	return v.(IDSet), nil
}

// SetTargetUID records the uid of the package whose process names may be
// retained.
func (c *Context) SetTargetUID(uid uint64) error {
	return c.set(slotTargetUID, uid)
}

// TargetUID returns the uid recorded by the package collector.
func (c *Context) TargetUID() (uint64, error) {
	v, err := c.get(slotTargetUID)
	if err != nil {
		return 0, err
	}
	return v.(uint64), nil
}
