package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/tormoder/fit/dyncrc16"
)

// FileInfo describes the framing of a decoded stream.
type FileInfo struct {
	ProtocolVersion uint8
	ProfileVersion  uint16
	DataSize        uint32
	HeaderCRCValid  bool
	FileCRCValid    bool
}

// DecodedMessage is one data message read back from a stream. Values maps
// field number to the decoded raw value; fields carrying the invalid
// sentinel map to nil.
type DecodedMessage struct {
	Index  int
	Global uint16
	Local  uint8
	Values map[uint8]any
}

type decodedDefinition struct {
	global uint16
	arch   binary.ByteOrder
	fields []Field
}

type decodeState struct {
	data        []byte
	pos         int
	definitions map[uint8]decodedDefinition

	definitionCount int
	messages        []DecodedMessage
}

// Decode parses a complete FIT byte stream produced by Encoder (or any
// writer using the same framing) back into data messages. Compressed
// timestamp headers and developer fields are not part of this module's
// output and are rejected.
func Decode(data []byte) (FileInfo, []DecodedMessage, error) {
	if len(data) < headerSize+2 {
		return FileInfo{}, nil, fmt.Errorf("fit stream too short: %d bytes", len(data))
	}
	size := data[0]
	if int(size) > len(data) || (size != 12 && size != headerSize) {
		return FileInfo{}, nil, fmt.Errorf("invalid fit header size: %d", size)
	}
	if string(data[8:12]) != ".FIT" {
		return FileInfo{}, nil, fmt.Errorf("invalid fit data type: %q", string(data[8:12]))
	}

	info := FileInfo{
		ProtocolVersion: data[1],
		ProfileVersion:  binary.LittleEndian.Uint16(data[2:4]),
		DataSize:        binary.LittleEndian.Uint32(data[4:8]),
		HeaderCRCValid:  true,
	}
	if size == headerSize {
		stored := binary.LittleEndian.Uint16(data[12:14])
		if stored != 0 {
			info.HeaderCRCValid = stored == dyncrc16.Checksum(data[:12])
		}
	}

	required := int(size) + int(info.DataSize) + 2
	if len(data) < required {
		return info, nil, fmt.Errorf("fit stream truncated: have %d bytes, need %d", len(data), required)
	}
	storedCRC := binary.LittleEndian.Uint16(data[required-2 : required])
	info.FileCRCValid = storedCRC == dyncrc16.Checksum(data[:required-2])

	ds := &decodeState{
		data:        data[size : required-2],
		definitions: make(map[uint8]decodedDefinition),
	}
	if err := ds.run(); err != nil {
		return info, nil, err
	}
	return info, ds.messages, nil
}

// DefinitionCount returns how many definition records a stream carries.
func DefinitionCount(data []byte) (int, error) {
	size := int(data[0])
	required := size + int(binary.LittleEndian.Uint32(data[4:8]))
	ds := &decodeState{
		data:        data[size:required],
		definitions: make(map[uint8]decodedDefinition),
	}
	if err := ds.run(); err != nil {
		return 0, err
	}
	return ds.definitionCount, nil
}

func (ds *decodeState) run() error {
	index := 0
	for ds.pos < len(ds.data) {
		index++
		headerByte := ds.data[ds.pos]
		ds.pos++

		switch {
		case headerByte&compressedHeaderMask == compressedHeaderMask:
			return fmt.Errorf("compressed timestamp header at record %d", index)
		case headerByte&mesgDefinitionMask == mesgDefinitionMask:
			if err := ds.readDefinition(index, headerByte); err != nil {
				return err
			}
			ds.definitionCount++
		default:
			local := headerByte & localMesgNumMask
			def, ok := ds.definitions[local]
			if !ok {
				return fmt.Errorf("data message with undefined local type %d at record %d", local, index)
			}
			msg, err := ds.readData(index, local, def)
			if err != nil {
				return err
			}
			ds.messages = append(ds.messages, msg)
		}
	}
	return nil
}

func (ds *decodeState) take(n int) ([]byte, error) {
	if ds.pos+n > len(ds.data) {
		return nil, fmt.Errorf("fit record truncated at byte %d", ds.pos)
	}
	out := ds.data[ds.pos : ds.pos+n]
	ds.pos += n
	return out, nil
}

func (ds *decodeState) readDefinition(index int, headerByte uint8) error {
	local := headerByte & localMesgNumMask
	fixed, err := ds.take(5)
	if err != nil {
		return err
	}
	var arch binary.ByteOrder
	switch fixed[1] {
	case 0:
		arch = binary.LittleEndian
	case 1:
		arch = binary.BigEndian
	default:
		return fmt.Errorf("invalid architecture byte %d at record %d", fixed[1], index)
	}
	global := arch.Uint16(fixed[2:4])
	numFields := int(fixed[4])

	fields := make([]Field, 0, numFields)
	for i := 0; i < numFields; i++ {
		raw, err := ds.take(3)
		if err != nil {
			return err
		}
		base := BaseType(raw[2])
		if base.Size() == 0 || int(raw[1]) != base.Size() {
			return fmt.Errorf("unsupported field definition (num=%d size=%d base=0x%02X) at record %d", raw[0], raw[1], raw[2], index)
		}
		fields = append(fields, Field{Num: raw[0], Base: base})
	}
	if headerByte&0x20 != 0 {
		return fmt.Errorf("developer field definition at record %d", index)
	}

	ds.definitions[local] = decodedDefinition{global: global, arch: arch, fields: fields}
	return nil
}

func (ds *decodeState) readData(index int, local uint8, def decodedDefinition) (DecodedMessage, error) {
	msg := DecodedMessage{
		Index:  index,
		Global: def.global,
		Local:  local,
		Values: make(map[uint8]any, len(def.fields)),
	}
	for _, f := range def.fields {
		raw, err := ds.take(f.Base.Size())
		if err != nil {
			return DecodedMessage{}, err
		}
		msg.Values[f.Num] = decodeValue(raw, f.Base, def.arch)
	}
	return msg, nil
}

func decodeValue(raw []byte, base BaseType, arch binary.ByteOrder) any {
	switch base {
	case Enum, Uint8:
		if raw[0] == 0xFF {
			return nil
		}
		return raw[0]
	case Uint8z:
		if raw[0] == 0x00 {
			return nil
		}
		return raw[0]
	case Sint8:
		v := int8(raw[0])
		if v == 0x7F {
			return nil
		}
		return v
	case Uint16:
		v := arch.Uint16(raw)
		if v == 0xFFFF {
			return nil
		}
		return v
	case Uint16z:
		v := arch.Uint16(raw)
		if v == 0 {
			return nil
		}
		return v
	case Sint16:
		v := int16(arch.Uint16(raw))
		if v == 0x7FFF {
			return nil
		}
		return v
	case Uint32:
		v := arch.Uint32(raw)
		if v == 0xFFFFFFFF {
			return nil
		}
		return v
	case Uint32z:
		v := arch.Uint32(raw)
		if v == 0 {
			return nil
		}
		return v
	case Sint32:
		v := int32(arch.Uint32(raw))
		if v == 0x7FFFFFFF {
			return nil
		}
		return v
	default:
		return nil
	}
}
