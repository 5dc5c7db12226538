package fit4ruby

import (
	"fmt"
	"io"
	"sort"

	"github.com/AKovtunov/fit4ruby/wire"
)

// Write emits the activity as a FIT byte stream: file_id, then
// file_creator, then every other child message merged into one list and
// sorted by (timestamp, kind rank, arrival order), then the trailing
// activity summary message. ids is the identifier-mapping context shared
// with the byte layer; pass nil for a fresh one.
func (a *Activity) Write(w io.Writer, ids *wire.LocalIDs) error {
	if ids == nil {
		ids = wire.NewLocalIDs()
	}
	enc := wire.NewEncoder()

	if a.FileID != nil {
		if err := writeMessage(enc, ids, a.FileID); err != nil {
			return err
		}
	}
	if a.FileCreator != nil {
		if err := writeMessage(enc, ids, a.FileCreator); err != nil {
			return err
		}
	}
	for _, m := range a.sortedMessages() {
		if err := writeMessage(enc, ids, m); err != nil {
			return err
		}
	}

	global, fields := a.wireFields()
	if err := enc.Write(ids, global, fields); err != nil {
		return fmt.Errorf("encode activity message: %w", err)
	}
	return enc.Flush(w)
}

func writeMessage(enc *wire.Encoder, ids *wire.LocalIDs, m Message) error {
	global, fields := m.wireFields()
	if err := enc.Write(ids, global, fields); err != nil {
		return fmt.Errorf("encode %s message: %w", m.Kind(), err)
	}
	return nil
}

// sortedMessages merges the heterogeneous child lists into the
// deterministic serialization order. The sort is stable, but messageLess
// is already a total order (the arrival sequence breaks all ties).
func (a *Activity) sortedMessages() []Message {
	msgs := make([]Message, 0,
		len(a.DeviceInfos)+len(a.UserProfiles)+len(a.Events)+
			len(a.Sessions)+len(a.Laps)+len(a.Records)+len(a.PersonalRecords))
	for _, m := range a.DeviceInfos {
		msgs = append(msgs, m)
	}
	for _, m := range a.UserProfiles {
		msgs = append(msgs, m)
	}
	for _, m := range a.Events {
		msgs = append(msgs, m)
	}
	for _, m := range a.Sessions {
		msgs = append(msgs, m)
	}
	for _, m := range a.Laps {
		msgs = append(msgs, m)
	}
	for _, m := range a.Records {
		msgs = append(msgs, m)
	}
	for _, m := range a.PersonalRecords {
		msgs = append(msgs, m)
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return messageLess(msgs[i], msgs[j])
	})
	return msgs
}

func (a *Activity) wireFields() (uint16, []wire.Field) {
	return wire.MsgNumActivity, []wire.Field{
		{Num: 253, Base: wire.Uint32, Value: wire.EncodeTime(a.Timestamp)},
		{Num: 0, Base: wire.Uint32, Value: encScaledU32(a.TotalTimerTime, 1000)},
		{Num: 1, Base: wire.Uint16, Value: a.NumSessions},
		{Num: 2, Base: wire.Enum, Value: uint8(0)}, // manual
		{Num: 3, Base: wire.Enum, Value: encEnum(eventCodes, "activity")},
		{Num: 4, Base: wire.Enum, Value: encEnum(eventTypeCodes, "stop")},
	}
}
