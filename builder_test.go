package fit4ruby

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var testStart = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func ptrU8(v uint8) *uint8      { return &v }
func ptrF64(v float64) *float64 { return &v }

func ts(offset int) time.Time { return testStart.Add(time.Duration(offset) * time.Second) }

func TestNewSessionLeavesNoOrphans(t *testing.T) {
	b := NewBuilder()
	b.NewRecord(Fields{"timestamp": ts(0)})
	b.NewRecord(Fields{"timestamp": ts(1)})
	b.NewLap(Fields{})
	b.NewRecord(Fields{"timestamp": ts(2)})
	b.NewSession(Fields{})

	if b.PendingRecords() != 0 || b.PendingLaps() != 0 {
		t.Fatalf("pending buffers not empty: %d records, %d laps", b.PendingRecords(), b.PendingLaps())
	}

	a := b.Activity()
	if len(a.Sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(a.Sessions))
	}
	if len(a.Laps) != 2 {
		t.Fatalf("expected 2 laps (one implicit), got %d", len(a.Laps))
	}

	flat := a.FlattenRecords()
	if len(flat) != len(a.Records) {
		t.Fatalf("tree holds %d records, flat list %d", len(flat), len(a.Records))
	}
	for i := range flat {
		if flat[i] != a.Records[i] {
			t.Fatalf("record %d differs between tree walk and flat list", i)
		}
	}
}

func TestNewSessionWithoutInputStillCreatesSession(t *testing.T) {
	b := NewBuilder()
	s := b.NewSession(Fields{})
	if s == nil {
		t.Fatal("expected a session")
	}
	if b.PendingRecords() != 0 || b.PendingLaps() != 0 {
		t.Fatal("pending buffers not empty after empty session")
	}
	if got := len(b.Activity().Sessions); got != 1 {
		t.Fatalf("expected 1 session, got %d", got)
	}
}

func TestLapMessageIndicesConsecutiveAcrossSessions(t *testing.T) {
	b := NewBuilder()
	b.NewRecord(Fields{"timestamp": ts(0)})
	b.NewLap(Fields{})
	b.NewLap(Fields{})
	b.NewSession(Fields{})
	b.NewRecord(Fields{"timestamp": ts(10)})
	b.NewLap(Fields{})
	b.NewRecord(Fields{"timestamp": ts(20)})
	b.NewSession(Fields{})

	a := b.Activity()
	if len(a.Laps) != 4 {
		t.Fatalf("expected 4 laps, got %d", len(a.Laps))
	}
	for i, l := range a.Laps {
		if int(l.MessageIndex) != i {
			t.Fatalf("lap %d has message_index %d", i, l.MessageIndex)
		}
	}

	s1, s2 := a.Sessions[0], a.Sessions[1]
	if s1.FirstLapIndex != 0 || s1.NumLaps != 2 {
		t.Fatalf("session 0 lap window: first=%d num=%d", s1.FirstLapIndex, s1.NumLaps)
	}
	if s2.FirstLapIndex != 2 || s2.NumLaps != 2 {
		t.Fatalf("session 1 lap window: first=%d num=%d", s2.FirstLapIndex, s2.NumLaps)
	}
}

func TestLapBackReferencesFormLinearChain(t *testing.T) {
	b := NewBuilder()
	b.NewLap(Fields{})
	b.NewLap(Fields{})
	b.NewLap(Fields{})
	b.NewSession(Fields{})

	a := b.Activity()
	if a.PreviousLap(a.Laps[0]) != nil {
		t.Fatal("first lap should have no previous lap")
	}
	for i := 1; i < len(a.Laps); i++ {
		if prev := a.PreviousLap(a.Laps[i]); prev != a.Laps[i-1] {
			t.Fatalf("lap %d does not link back to lap %d", i, i-1)
		}
	}
}

func TestFileIDAndCreatorReplaced(t *testing.T) {
	b := NewBuilder()
	b.NewFileID(Fields{"type": "activity", "manufacturer": 1})
	second := b.NewFileID(Fields{"type": "activity", "manufacturer": 255})
	b.NewFileCreator(Fields{"software_version": 100})
	creator := b.NewFileCreator(Fields{"software_version": 200})

	a := b.Activity()
	if a.FileID != second {
		t.Fatal("later file_id did not replace the earlier one")
	}
	if a.FileCreator != creator {
		t.Fatal("later file_creator did not replace the earlier one")
	}

	want := &FileID{Type: "activity", Manufacturer: func() *uint16 { v := uint16(255); return &v }()}
	if diff := cmp.Diff(want, a.FileID); diff != "" {
		t.Fatalf("file_id mismatch (-want +got):\n%s", diff)
	}
}

func TestNewDispatchesByKindName(t *testing.T) {
	b := NewBuilder()
	m, err := b.New("record", Fields{"timestamp": ts(0), "heart_rate": 140})
	if err != nil {
		t.Fatalf("New(record) error: %v", err)
	}
	r, ok := m.(*Record)
	if !ok {
		t.Fatalf("expected *Record, got %T", m)
	}
	if r.HeartRate == nil || *r.HeartRate != 140 {
		t.Fatalf("heart_rate not applied: %v", r.HeartRate)
	}
	if b.PendingRecords() != 1 {
		t.Fatalf("record not buffered: %d pending", b.PendingRecords())
	}
}

func TestNewRejectsUnknownKind(t *testing.T) {
	b := NewBuilder()
	b.NewRecord(Fields{"timestamp": ts(0)})

	m, err := b.New("hrv", Fields{})
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if m != nil {
		t.Fatalf("expected no message, got %T", m)
	}
	if b.PendingRecords() != 1 || len(b.Activity().Records) != 1 {
		t.Fatal("unknown kind request mutated builder state")
	}
}

func TestRecordEquality(t *testing.T) {
	a := &Record{Timestamp: ts(0), HeartRate: ptrU8(120), Distance: ptrF64(10)}
	same := &Record{Timestamp: ts(0), HeartRate: ptrU8(120), Distance: ptrF64(10)}
	other := &Record{Timestamp: ts(0), HeartRate: ptrU8(121), Distance: ptrF64(10)}

	if !a.Equal(same) {
		t.Fatal("identical records compare unequal")
	}
	if a.Equal(other) {
		t.Fatal("records with different heart_rate compare equal")
	}
}
