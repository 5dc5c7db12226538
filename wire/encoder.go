package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tormoder/fit/dyncrc16"
)

// Encoder accumulates definition and data messages and finalizes them
// into a complete FIT byte stream. All multi-byte values are emitted
// little-endian.
type Encoder struct {
	data bytes.Buffer
}

// NewEncoder returns an encoder with an empty data section.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Write appends one data message, preceded by a definition record when
// the mapping context has not yet seen this global message number (or its
// field layout changed).
func (e *Encoder) Write(ids *LocalIDs, global uint16, fields []Field) error {
	if ids == nil {
		return fmt.Errorf("wire: nil identifier-mapping context")
	}
	local, err := ids.assign(global)
	if err != nil {
		return err
	}

	sig := fieldSignature(fields)
	if ids.needsDefinition(global, sig) {
		if err := e.writeDefinition(local, global, fields); err != nil {
			return err
		}
		ids.markDefined(global, sig)
	}
	return e.writeData(local, fields)
}

func (e *Encoder) writeDefinition(local uint8, global uint16, fields []Field) error {
	if len(fields) > 255 {
		return fmt.Errorf("wire: too many fields for global %d", global)
	}
	e.data.WriteByte(mesgDefinitionMask | (local & localMesgNumMask))
	e.data.WriteByte(0) // reserved
	e.data.WriteByte(0) // little-endian architecture
	var global16 [2]byte
	binary.LittleEndian.PutUint16(global16[:], global)
	e.data.Write(global16[:])
	e.data.WriteByte(byte(len(fields)))
	for _, f := range fields {
		size := f.Base.Size()
		if size == 0 {
			return fmt.Errorf("wire: unsupported base type 0x%02X in global %d field %d", uint8(f.Base), global, f.Num)
		}
		e.data.WriteByte(f.Num)
		e.data.WriteByte(byte(size))
		e.data.WriteByte(byte(f.Base))
	}
	return nil
}

func (e *Encoder) writeData(local uint8, fields []Field) error {
	e.data.WriteByte(local & localMesgNumMask)
	for _, f := range fields {
		raw, err := encodeValue(f)
		if err != nil {
			return err
		}
		e.data.Write(raw)
	}
	return nil
}

func encodeValue(f Field) ([]byte, error) {
	switch f.Base {
	case Enum, Uint8:
		return []byte{u8OrInvalid(f.Value, 0xFF)}, nil
	case Uint8z:
		return []byte{u8OrInvalid(f.Value, 0x00)}, nil
	case Sint8:
		if f.Value == nil {
			return []byte{0x7F}, nil
		}
		v, ok := f.Value.(int8)
		if !ok {
			return nil, typeError(f)
		}
		return []byte{byte(v)}, nil
	case Uint16, Uint16z:
		invalid := uint16(0xFFFF)
		if f.Base == Uint16z {
			invalid = 0
		}
		v := invalid
		if f.Value != nil {
			x, ok := f.Value.(uint16)
			if !ok {
				return nil, typeError(f)
			}
			v = x
		}
		return le16(v), nil
	case Sint16:
		v := int16(0x7FFF)
		if f.Value != nil {
			x, ok := f.Value.(int16)
			if !ok {
				return nil, typeError(f)
			}
			v = x
		}
		return le16(uint16(v)), nil
	case Uint32, Uint32z:
		invalid := uint32(0xFFFFFFFF)
		if f.Base == Uint32z {
			invalid = 0
		}
		v := invalid
		if f.Value != nil {
			x, ok := f.Value.(uint32)
			if !ok {
				return nil, typeError(f)
			}
			v = x
		}
		return le32(v), nil
	case Sint32:
		v := int32(0x7FFFFFFF)
		if f.Value != nil {
			x, ok := f.Value.(int32)
			if !ok {
				return nil, typeError(f)
			}
			v = x
		}
		return le32(uint32(v)), nil
	default:
		return nil, fmt.Errorf("wire: unsupported base type 0x%02X", uint8(f.Base))
	}
}

func u8OrInvalid(v any, invalid uint8) uint8 {
	if v == nil {
		return invalid
	}
	if x, ok := v.(uint8); ok {
		return x
	}
	return invalid
}

func typeError(f Field) error {
	return fmt.Errorf("wire: field %d value %T does not match base type 0x%02X", f.Num, f.Value, uint8(f.Base))
}

func le16(v uint16) []byte {
	out := make([]byte, 2)
	binary.LittleEndian.PutUint16(out, v)
	return out
}

func le32(v uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v)
	return out
}

// Flush writes the file header, the accumulated data section, and the
// trailing CRC to w. The encoder can be reused afterward for a new file.
func (e *Encoder) Flush(w io.Writer) error {
	header := make([]byte, headerSize)
	header[0] = headerSize
	header[1] = protocolVersion
	binary.LittleEndian.PutUint16(header[2:4], profileVersion)
	binary.LittleEndian.PutUint32(header[4:8], uint32(e.data.Len()))
	copy(header[8:12], ".FIT")
	binary.LittleEndian.PutUint16(header[12:14], dyncrc16.Checksum(header[:12]))

	file := make([]byte, 0, headerSize+e.data.Len()+2)
	file = append(file, header...)
	file = append(file, e.data.Bytes()...)
	file = append(file, le16(dyncrc16.Checksum(file))...)

	if _, err := w.Write(file); err != nil {
		return fmt.Errorf("write fit stream: %w", err)
	}
	e.data.Reset()
	return nil
}
