// Package wire reads and writes protobuf wire-format buffers at the field
// level. It never materializes messages: a Decoder yields views into the
// source buffer, and an Appender re-emits fields, recomputing length
// prefixes for nested messages that were rebuilt after deletions.
package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field is one tag-delimited field inside a wire-format message.
type Field struct {
	Num  protowire.Number
	Type protowire.Type

	// Val holds the decoded value for varint and fixed-width fields.
	Val uint64

	// Bytes views the payload of a length-delimited field. It aliases the
	// decoded buffer; copy before mutating.
	Bytes []byte

	// Raw views the complete encoded field, tag included.
	Raw []byte
}

// Decoder iterates the fields of a single message buffer. Nested messages
// are decoded by constructing a new Decoder over Field.Bytes.
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder returns a Decoder positioned at the first field of buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// More reports whether any bytes remain to decode.
func (d *Decoder) More() bool {
	return d.off < len(d.buf)
}

// Next decodes the next field. Malformed input (invalid tag, truncated
// payload, unsupported wire type) is returned as an error; the decoder
// never skips or repairs bad bytes.
func (d *Decoder) Next() (Field, error) {
	start := d.off

	num, typ, n := protowire.ConsumeTag(d.buf[d.off:])
	if n < 0 {
		return Field{}, fmt.Errorf("wire: invalid tag at offset %d: %w", d.off, protowire.ParseError(n))
	}
	d.off += n

	f := Field{Num: num, Type: typ}

	switch typ {
	case protowire.VarintType:
		v, m := protowire.ConsumeVarint(d.buf[d.off:])
		if m < 0 {
			return Field{}, fmt.Errorf("wire: field %d: truncated varint: %w", num, protowire.ParseError(m))
		}
		f.Val = v
		d.off += m
	case protowire.Fixed32Type:
		v, m := protowire.ConsumeFixed32(d.buf[d.off:])
		if m < 0 {
			return Field{}, fmt.Errorf("wire: field %d: truncated fixed32: %w", num, protowire.ParseError(m))
		}
		f.Val = uint64(v)
		d.off += m
	case protowire.Fixed64Type:
		v, m := protowire.ConsumeFixed64(d.buf[d.off:])
		if m < 0 {
			return Field{}, fmt.Errorf("wire: field %d: truncated fixed64: %w", num, protowire.ParseError(m))
		}
		f.Val = v
		d.off += m
	case protowire.BytesType:
		b, m := protowire.ConsumeBytes(d.buf[d.off:])
		if m < 0 {
			return Field{}, fmt.Errorf("wire: field %d: truncated length-delimited payload: %w", num, protowire.ParseError(m))
		}
		f.Bytes = b
		d.off += m
	default:
		// Groups do not occur in the trace format.
		return Field{}, fmt.Errorf("wire: field %d: unsupported wire type %d", num, typ)
	}

	f.Raw = d.buf[start:d.off]
	return f, nil
}

// Appender builds a wire-format message field by field.
type Appender struct {
	buf []byte
}

// NewAppender returns an Appender, optionally pre-sized for n bytes.
func NewAppender(n int) *Appender {
	return &Appender{buf: make([]byte, 0, n)}
}

// AppendField re-emits a decoded field unchanged, byte for byte.
func (a *Appender) AppendField(f Field) {
	a.buf = append(a.buf, f.Raw...)
}

// AppendVarint emits a varint field.
func (a *Appender) AppendVarint(num protowire.Number, v uint64) {
	a.buf = protowire.AppendTag(a.buf, num, protowire.VarintType)
	a.buf = protowire.AppendVarint(a.buf, v)
}

// AppendFixed32 emits a fixed32 field.
func (a *Appender) AppendFixed32(num protowire.Number, v uint32) {
	a.buf = protowire.AppendTag(a.buf, num, protowire.Fixed32Type)
	a.buf = protowire.AppendFixed32(a.buf, v)
}

// AppendFixed64 emits a fixed64 field.
func (a *Appender) AppendFixed64(num protowire.Number, v uint64) {
	a.buf = protowire.AppendTag(a.buf, num, protowire.Fixed64Type)
	a.buf = protowire.AppendFixed64(a.buf, v)
}

// AppendBytes emits a length-delimited field, writing a fresh length
// prefix. Use this to re-parent a nested message that was rebuilt.
func (a *Appender) AppendBytes(num protowire.Number, payload []byte) {
	a.buf = protowire.AppendTag(a.buf, num, protowire.BytesType)
	a.buf = protowire.AppendBytes(a.buf, payload)
}

// AppendString emits a length-delimited string field.
func (a *Appender) AppendString(num protowire.Number, s string) {
	a.buf = protowire.AppendTag(a.buf, num, protowire.BytesType)
	a.buf = protowire.AppendString(a.buf, s)
}

// Len returns the number of bytes appended so far.
func (a *Appender) Len() int {
	return len(a.buf)
}

// Bytes returns the assembled message.
func (a *Appender) Bytes() []byte {
	return a.buf
}
