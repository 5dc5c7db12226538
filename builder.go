package fit4ruby

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned by Builder.New for a message name the
// builder does not construct. The builder state is untouched in that
// case, so lenient callers can skip the message and continue.
var ErrUnknownKind = errors.New("unknown message kind")

// Builder is the grouping state machine. It owns two transient buffers:
// records not yet assigned to a lap, and laps not yet assigned to a
// session. NewLap flushes the first, NewSession flushes both, so after
// any NewSession call every record and lap is reachable from a session.
//
// A Builder (and the Activity it mutates) is single-owner: no method may
// be called concurrently with another.
type Builder struct {
	activity *Activity

	pendingRecords []*Record
	pendingLaps    []*Lap

	// lapCounter is the 1-based count of the next lap to create; laps get
	// MessageIndex lapCounter-1 at creation.
	lapCounter int
}

// NewBuilder returns a builder assembling a fresh Activity.
func NewBuilder() *Builder {
	return &Builder{
		activity:   &Activity{},
		lapCounter: 1,
	}
}

// Activity returns the tree built so far. Pending buffers are not part of
// it until the next flush boundary.
func (b *Builder) Activity() *Activity {
	return b.activity
}

// PendingRecords returns how many records await the next lap boundary.
func (b *Builder) PendingRecords() int { return len(b.pendingRecords) }

// PendingLaps returns how many laps await the next session boundary.
func (b *Builder) PendingLaps() int { return len(b.pendingLaps) }

// New dispatches a message name to the matching typed factory.
func (b *Builder) New(name string, f Fields) (Message, error) {
	kind, ok := KindOf(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
	switch kind {
	case KindFileID:
		return b.NewFileID(f), nil
	case KindFileCreator:
		return b.NewFileCreator(f), nil
	case KindDeviceInfo:
		return b.NewDeviceInfo(f), nil
	case KindUserProfile:
		return b.NewUserProfile(f), nil
	case KindEvent:
		return b.NewEvent(f), nil
	case KindPersonalRecord:
		return b.NewPersonalRecord(f), nil
	case KindRecord:
		return b.NewRecord(f), nil
	case KindLap:
		return b.NewLap(f), nil
	case KindSession:
		return b.NewSession(f), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

// NewFileID constructs the file identification record, replacing any
// previous one.
func (b *Builder) NewFileID(f Fields) *FileID {
	m := newFileID(b.activity.nextSeq(), f)
	b.activity.FileID = m
	return m
}

// NewFileCreator constructs the file creator record, replacing any
// previous one.
func (b *Builder) NewFileCreator(f Fields) *FileCreator {
	m := newFileCreator(b.activity.nextSeq(), f)
	b.activity.FileCreator = m
	return m
}

// NewDeviceInfo appends a device info record. No buffering effect.
func (b *Builder) NewDeviceInfo(f Fields) *DeviceInfo {
	m := newDeviceInfo(b.activity.nextSeq(), f)
	b.activity.DeviceInfos = append(b.activity.DeviceInfos, m)
	return m
}

// NewUserProfile appends a user profile record. No buffering effect.
func (b *Builder) NewUserProfile(f Fields) *UserProfile {
	m := newUserProfile(b.activity.nextSeq(), f)
	b.activity.UserProfiles = append(b.activity.UserProfiles, m)
	return m
}

// NewEvent appends an event record. No buffering effect.
func (b *Builder) NewEvent(f Fields) *Event {
	m := newEvent(b.activity.nextSeq(), f)
	b.activity.Events = append(b.activity.Events, m)
	return m
}

// NewPersonalRecord appends a personal record message. No buffering
// effect.
func (b *Builder) NewPersonalRecord(f Fields) *PersonalRecord {
	m := newPersonalRecord(b.activity.nextSeq(), f)
	b.activity.PersonalRecords = append(b.activity.PersonalRecords, m)
	return m
}

// NewRecord constructs a sample and buffers it for the next lap boundary.
func (b *Builder) NewRecord(f Fields) *Record {
	m := newRecord(b.activity.nextSeq(), f)
	b.pendingRecords = append(b.pendingRecords, m)
	b.activity.Records = append(b.activity.Records, m)
	return m
}

// NewLap is a flush boundary: the pending record buffer (possibly empty)
// becomes the new lap's records.
func (b *Builder) NewLap(f Fields) *Lap {
	return b.flushRecords(f)
}

// NewSession is a double flush boundary: pending records are first
// absorbed into an implicit lap, then the pending lap buffer becomes the
// new session.
func (b *Builder) NewSession(f Fields) *Session {
	if len(b.pendingRecords) > 0 {
		b.flushRecords(Fields{})
	}
	return b.flushLaps(f)
}

// flushRecords closes the record buffer into a lap linked to the
// previously created lap.
func (b *Builder) flushRecords(f Fields) *Lap {
	a := b.activity
	lap := newLap(a.nextSeq(), f)
	lap.MessageIndex = uint16(b.lapCounter - 1)
	lap.prev = len(a.Laps) - 1
	lap.Records = b.pendingRecords

	b.pendingRecords = nil
	b.pendingLaps = append(b.pendingLaps, lap)
	a.Laps = append(a.Laps, lap)
	b.lapCounter++
	return lap
}

// flushLaps closes the lap buffer into a session. The session's lap index
// window is derived from the lap counter at the boundary.
func (b *Builder) flushLaps(f Fields) *Session {
	a := b.activity
	s := newSession(a.nextSeq(), f)
	s.Laps = b.pendingLaps
	s.NumLaps = uint16(len(b.pendingLaps))
	s.FirstLapIndex = uint16(b.lapCounter - 1 - len(b.pendingLaps))

	b.pendingLaps = nil
	a.Sessions = append(a.Sessions, s)
	a.NumSessions++
	return s
}

// SetActivityFields applies the top-level activity message values:
// timestamp, total_timer_time, and the externally declared session count
// (overriding the builder's running count, to be validated by Check).
func (b *Builder) SetActivityFields(f Fields) {
	a := b.activity
	if t := fieldTime(f, "timestamp"); !t.IsZero() {
		a.Timestamp = t
	}
	if v := fieldFloat(f, "total_timer_time"); v != nil {
		a.TotalTimerTime = v
	}
	if v := fieldU16(f, "num_sessions"); v != nil {
		a.NumSessions = *v
	}
}
