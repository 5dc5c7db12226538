// Package wire emits and parses the FIT record framing: a 14-byte file
// header, interleaved definition and data messages, and a trailing CRC-16.
// It knows nothing about message semantics; callers describe each message
// as a global message number plus a flat list of fields.
package wire

import (
	"fmt"
	"time"
)

const (
	compressedHeaderMask = 0x80
	mesgDefinitionMask   = 0x40
	localMesgNumMask     = 0x0F

	headerSize      = 14
	protocolVersion = 0x20
	profileVersion  = 2140

	maxLocalMessageTypes = 16
)

// Global message numbers for the messages this module emits.
const (
	MsgNumFileID          uint16 = 0
	MsgNumUserProfile     uint16 = 3
	MsgNumSession         uint16 = 18
	MsgNumLap             uint16 = 19
	MsgNumRecord          uint16 = 20
	MsgNumEvent           uint16 = 21
	MsgNumDeviceInfo      uint16 = 23
	MsgNumActivity        uint16 = 34
	MsgNumFileCreator     uint16 = 49
	MsgNumPersonalRecords uint16 = 78
)

// BaseType is a FIT base type byte as it appears in field definitions.
type BaseType uint8

const (
	Enum    BaseType = 0x00
	Sint8   BaseType = 0x01
	Uint8   BaseType = 0x02
	Sint16  BaseType = 0x83
	Uint16  BaseType = 0x84
	Sint32  BaseType = 0x85
	Uint32  BaseType = 0x86
	Uint8z  BaseType = 0x0A
	Uint16z BaseType = 0x8B
	Uint32z BaseType = 0x8C
)

// Size returns the encoded width of the base type in bytes.
func (b BaseType) Size() int {
	switch b {
	case Enum, Sint8, Uint8, Uint8z:
		return 1
	case Sint16, Uint16, Uint16z:
		return 2
	case Sint32, Uint32, Uint32z:
		return 4
	default:
		return 0
	}
}

// Field is one field of a data message. Value carries the raw (already
// scaled) integer, typed to match Base: uint8 for Enum/Uint8/Uint8z,
// uint16 for Uint16/Uint16z, uint32 for Uint32/Uint32z, int8/int16/int32
// for the signed types. A nil Value encodes the base type's invalid
// sentinel.
type Field struct {
	Num   uint8
	Base  BaseType
	Value any
}

// LocalIDs is the identifier-mapping context shared across one encoded
// file: it assigns each global message number a local message type and
// remembers which definitions have already been written.
type LocalIDs struct {
	locals  map[uint16]uint8
	defined map[uint16]string
	next    uint8
}

// NewLocalIDs returns an empty mapping context.
func NewLocalIDs() *LocalIDs {
	return &LocalIDs{
		locals:  make(map[uint16]uint8),
		defined: make(map[uint16]string),
	}
}

func (ids *LocalIDs) assign(global uint16) (uint8, error) {
	if local, ok := ids.locals[global]; ok {
		return local, nil
	}
	if int(ids.next) >= maxLocalMessageTypes {
		return 0, fmt.Errorf("wire: no free local message type for global %d", global)
	}
	local := ids.next
	ids.next++
	ids.locals[global] = local
	return local, nil
}

// needsDefinition reports whether a definition record must precede data
// for this global, either because none was written yet or because the
// field layout changed.
func (ids *LocalIDs) needsDefinition(global uint16, signature string) bool {
	return ids.defined[global] != signature
}

func (ids *LocalIDs) markDefined(global uint16, signature string) {
	ids.defined[global] = signature
}

func fieldSignature(fields []Field) string {
	sig := make([]byte, 0, len(fields)*2)
	for _, f := range fields {
		sig = append(sig, f.Num, byte(f.Base))
	}
	return string(sig)
}

// fitEpoch is the zero point of FIT timestamps.
var fitEpoch = time.Date(1989, 12, 31, 0, 0, 0, 0, time.UTC)

// EncodeTime converts a wall-clock time to a raw FIT timestamp. The zero
// time and anything before the FIT epoch map to nil (invalid).
func EncodeTime(t time.Time) any {
	if t.IsZero() || t.Before(fitEpoch) {
		return nil
	}
	return uint32(t.Sub(fitEpoch) / time.Second)
}

// DecodeTime is the inverse of EncodeTime.
func DecodeTime(raw uint32) time.Time {
	return fitEpoch.Add(time.Duration(raw) * time.Second)
}
