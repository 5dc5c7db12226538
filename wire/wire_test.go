package wire

import (
	"bytes"
	"fmt"
	"testing"
	"time"
)

func encodeOne(t *testing.T, global uint16, fields []Field) []byte {
	t.Helper()
	enc := NewEncoder()
	if err := enc.Write(NewLocalIDs(), global, fields); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var buf bytes.Buffer
	if err := enc.Flush(&buf); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	return buf.Bytes()
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	fields := []Field{
		{Num: 0, Base: Enum, Value: uint8(4)},
		{Num: 1, Base: Uint8, Value: uint8(200)},
		{Num: 2, Base: Uint16, Value: uint16(40000)},
		{Num: 3, Base: Uint32, Value: uint32(3000000000)},
		{Num: 4, Base: Sint8, Value: int8(-5)},
		{Num: 5, Base: Sint16, Value: int16(-3000)},
		{Num: 6, Base: Sint32, Value: int32(-2000000000)},
		{Num: 7, Base: Uint32z, Value: uint32(12345)},
	}
	data := encodeOne(t, MsgNumRecord, fields)

	info, msgs, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !info.HeaderCRCValid || !info.FileCRCValid {
		t.Fatalf("CRC validity: header=%v file=%v", info.HeaderCRCValid, info.FileCRCValid)
	}
	if len(msgs) != 1 {
		t.Fatalf("decoded %d messages, want 1", len(msgs))
	}
	m := msgs[0]
	if m.Global != MsgNumRecord {
		t.Fatalf("global = %d", m.Global)
	}
	for _, f := range fields {
		if got := m.Values[f.Num]; got != f.Value {
			t.Fatalf("field %d = %v (%T), want %v", f.Num, got, got, f.Value)
		}
	}
}

func TestNilValuesDecodeAsInvalid(t *testing.T) {
	fields := []Field{
		{Num: 0, Base: Enum, Value: nil},
		{Num: 1, Base: Uint16, Value: nil},
		{Num: 2, Base: Uint32, Value: nil},
		{Num: 3, Base: Sint32, Value: nil},
		{Num: 4, Base: Uint32z, Value: nil},
	}
	data := encodeOne(t, MsgNumEvent, fields)

	_, msgs, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for _, f := range fields {
		if got := msgs[0].Values[f.Num]; got != nil {
			t.Fatalf("field %d = %v, want nil (invalid sentinel)", f.Num, got)
		}
	}
}

func TestDefinitionWrittenOncePerLayout(t *testing.T) {
	enc := NewEncoder()
	ids := NewLocalIDs()
	layout := []Field{{Num: 253, Base: Uint32, Value: uint32(1)}, {Num: 3, Base: Uint8, Value: uint8(7)}}
	changed := []Field{{Num: 253, Base: Uint32, Value: uint32(2)}}

	if err := enc.Write(ids, MsgNumRecord, layout); err != nil {
		t.Fatal(err)
	}
	if err := enc.Write(ids, MsgNumRecord, layout); err != nil {
		t.Fatal(err)
	}
	if err := enc.Write(ids, MsgNumRecord, changed); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := enc.Flush(&buf); err != nil {
		t.Fatal(err)
	}

	defs, err := DefinitionCount(buf.Bytes())
	if err != nil {
		t.Fatalf("DefinitionCount: %v", err)
	}
	if defs != 2 {
		t.Fatalf("definition count = %d, want 2 (one reused, one layout change)", defs)
	}
}

func TestLocalMessageTypesExhausted(t *testing.T) {
	enc := NewEncoder()
	ids := NewLocalIDs()
	field := []Field{{Num: 0, Base: Uint8, Value: uint8(1)}}
	for global := uint16(0); global < maxLocalMessageTypes; global++ {
		if err := enc.Write(ids, global, field); err != nil {
			t.Fatalf("Write global %d: %v", global, err)
		}
	}
	if err := enc.Write(ids, uint16(maxLocalMessageTypes), field); err == nil {
		t.Fatal("expected error after exhausting local message types")
	}
}

func TestValueTypeMismatchRejected(t *testing.T) {
	enc := NewEncoder()
	err := enc.Write(NewLocalIDs(), MsgNumRecord, []Field{{Num: 2, Base: Uint16, Value: uint8(5)}})
	if err == nil {
		t.Fatal("expected type mismatch error")
	}
}

func TestFlushResetsEncoder(t *testing.T) {
	enc := NewEncoder()
	field := []Field{{Num: 0, Base: Uint8, Value: uint8(1)}}
	if err := enc.Write(NewLocalIDs(), MsgNumRecord, field); err != nil {
		t.Fatal(err)
	}
	var first bytes.Buffer
	if err := enc.Flush(&first); err != nil {
		t.Fatal(err)
	}

	if err := enc.Write(NewLocalIDs(), MsgNumRecord, field); err != nil {
		t.Fatal(err)
	}
	var second bytes.Buffer
	if err := enc.Flush(&second); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Fatal("flushed encoder did not start a fresh file")
	}
	if _, _, err := Decode(second.Bytes()); err != nil {
		t.Fatalf("second file does not decode: %v", err)
	}
}

func TestDecodeRejectsCorruptedStream(t *testing.T) {
	data := encodeOne(t, MsgNumRecord, []Field{{Num: 0, Base: Uint8, Value: uint8(1)}})

	corrupted := append([]byte(nil), data...)
	corrupted[len(corrupted)-3] ^= 0xFF
	info, _, err := Decode(corrupted)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if info.FileCRCValid {
		t.Fatal("corrupted payload still reports a valid file CRC")
	}

	truncated := data[:len(data)-4]
	if _, _, err := Decode(truncated); err == nil {
		t.Fatal("expected error for truncated stream")
	}

	badMagic := append([]byte(nil), data...)
	copy(badMagic[8:12], "NOPE")
	if _, _, err := Decode(badMagic); err == nil {
		t.Fatal("expected error for wrong data type magic")
	}
}

func TestEncodeTime(t *testing.T) {
	if EncodeTime(time.Time{}) != nil {
		t.Fatal("zero time should encode as invalid")
	}
	if EncodeTime(time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)) != nil {
		t.Fatal("pre-epoch time should encode as invalid")
	}

	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	raw, ok := EncodeTime(at).(uint32)
	if !ok {
		t.Fatalf("EncodeTime returned %T", EncodeTime(at))
	}
	if got := DecodeTime(raw); !got.Equal(at) {
		t.Fatalf("round trip = %s, want %s", got, at)
	}
}

func TestBaseTypeSizes(t *testing.T) {
	cases := []struct {
		base BaseType
		want int
	}{
		{Enum, 1}, {Sint8, 1}, {Uint8, 1}, {Uint8z, 1},
		{Sint16, 2}, {Uint16, 2}, {Uint16z, 2},
		{Sint32, 4}, {Uint32, 4}, {Uint32z, 4},
		{BaseType(0x07), 0}, // string, not encodable here
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("0x%02X", uint8(c.base)), func(t *testing.T) {
			if got := c.base.Size(); got != c.want {
				t.Fatalf("size = %d, want %d", got, c.want)
			}
		})
	}
}
