// Package fit4ruby assembles a flat, time-ordered stream of FIT activity
// messages into the Activity → Session → Lap → Record tree, recomputes the
// derived statistics of that tree, and writes it back out in a
// deterministic order. Binary framing lives in the wire subpackage.
package fit4ruby

import (
	"math"
	"time"

	"github.com/AKovtunov/fit4ruby/wire"
)

// Fields maps FIT field names ("timestamp", "position_lat", ...) to
// values. Numeric values may be any integer or float type; timestamps are
// time.Time.
type Fields map[string]any

// MessageKind enumerates the message types the builder can construct.
type MessageKind int

const (
	KindFileID MessageKind = iota
	KindFileCreator
	KindDeviceInfo
	KindUserProfile
	KindEvent
	KindSession
	KindLap
	KindRecord
	KindPersonalRecord
)

var kindNames = map[string]MessageKind{
	"file_id":          KindFileID,
	"file_creator":     KindFileCreator,
	"device_info":      KindDeviceInfo,
	"user_profile":     KindUserProfile,
	"event":            KindEvent,
	"session":          KindSession,
	"lap":              KindLap,
	"record":           KindRecord,
	"personal_records": KindPersonalRecord,
}

func (k MessageKind) String() string {
	for name, kind := range kindNames {
		if kind == k {
			return name
		}
	}
	return "unknown"
}

// KindOf resolves a FIT message name to its kind.
func KindOf(name string) (MessageKind, bool) {
	k, ok := kindNames[name]
	return k, ok
}

// serialization rank of each kind within one timestamp; see messageLess.
var kindRank = map[MessageKind]int{
	KindFileID:         0,
	KindFileCreator:    1,
	KindDeviceInfo:     2,
	KindUserProfile:    3,
	KindEvent:          4,
	KindSession:        5,
	KindLap:            6,
	KindRecord:         7,
	KindPersonalRecord: 8,
}

// Message is implemented by every child record of an Activity.
type Message interface {
	Kind() MessageKind
	// Time is the message's timestamp for serialization ordering; the
	// zero time sorts before all timestamped messages.
	Time() time.Time

	sequence() int
	wireFields() (uint16, []wire.Field)
}

// messageLess is the total order of the serializer contract: timestamp,
// then kind rank, then arrival sequence.
func messageLess(a, b Message) bool {
	at, bt := a.Time(), b.Time()
	if at.IsZero() != bt.IsZero() {
		return at.IsZero()
	}
	if !at.Equal(bt) {
		return at.Before(bt)
	}
	if a.Kind() != b.Kind() {
		return kindRank[a.Kind()] < kindRank[b.Kind()]
	}
	return a.sequence() < b.sequence()
}

// FileID identifies the file's producing device. A later NewFileID call
// replaces the previous one.
type FileID struct {
	seq int

	Type         string
	Manufacturer *uint16
	Product      *uint16
	SerialNumber *uint32
	TimeCreated  time.Time
}

func newFileID(seq int, f Fields) *FileID {
	return &FileID{
		seq:          seq,
		Type:         fieldString(f, "type"),
		Manufacturer: fieldU16(f, "manufacturer"),
		Product:      fieldU16(f, "product"),
		SerialNumber: fieldU32(f, "serial_number"),
		TimeCreated:  fieldTime(f, "time_created"),
	}
}

func (m *FileID) Kind() MessageKind { return KindFileID }
func (m *FileID) Time() time.Time   { return m.TimeCreated }
func (m *FileID) sequence() int     { return m.seq }

// Equal compares all identifying fields; arrival order is ignored.
func (m *FileID) Equal(o *FileID) bool {
	return o != nil && m.Type == o.Type &&
		eqU16(m.Manufacturer, o.Manufacturer) && eqU16(m.Product, o.Product) &&
		eqU32(m.SerialNumber, o.SerialNumber) && m.TimeCreated.Equal(o.TimeCreated)
}

func (m *FileID) wireFields() (uint16, []wire.Field) {
	return wire.MsgNumFileID, []wire.Field{
		{Num: 0, Base: wire.Enum, Value: encEnum(fileTypeCodes, m.Type)},
		{Num: 1, Base: wire.Uint16, Value: encU16(m.Manufacturer)},
		{Num: 2, Base: wire.Uint16, Value: encU16(m.Product)},
		{Num: 3, Base: wire.Uint32z, Value: encU32(m.SerialNumber)},
		{Num: 4, Base: wire.Uint32, Value: wire.EncodeTime(m.TimeCreated)},
	}
}

// FileCreator carries the producing software/hardware versions.
type FileCreator struct {
	seq int

	SoftwareVersion *uint16
	HardwareVersion *uint8
}

func newFileCreator(seq int, f Fields) *FileCreator {
	return &FileCreator{
		seq:             seq,
		SoftwareVersion: fieldU16(f, "software_version"),
		HardwareVersion: fieldU8(f, "hardware_version"),
	}
}

func (m *FileCreator) Kind() MessageKind { return KindFileCreator }
func (m *FileCreator) Time() time.Time   { return time.Time{} }
func (m *FileCreator) sequence() int     { return m.seq }

func (m *FileCreator) Equal(o *FileCreator) bool {
	return o != nil && eqU16(m.SoftwareVersion, o.SoftwareVersion) &&
		eqU8(m.HardwareVersion, o.HardwareVersion)
}

func (m *FileCreator) wireFields() (uint16, []wire.Field) {
	return wire.MsgNumFileCreator, []wire.Field{
		{Num: 0, Base: wire.Uint16, Value: encU16(m.SoftwareVersion)},
		{Num: 1, Base: wire.Uint8, Value: encU8(m.HardwareVersion)},
	}
}

// DeviceInfo describes one sensor or unit attached to the recording.
type DeviceInfo struct {
	seq int

	Timestamp    time.Time
	Manufacturer *uint16
	Product      *uint16
	SerialNumber *uint32
}

func newDeviceInfo(seq int, f Fields) *DeviceInfo {
	return &DeviceInfo{
		seq:          seq,
		Timestamp:    fieldTime(f, "timestamp"),
		Manufacturer: fieldU16(f, "manufacturer"),
		Product:      fieldU16(f, "product"),
		SerialNumber: fieldU32(f, "serial_number"),
	}
}

func (m *DeviceInfo) Kind() MessageKind { return KindDeviceInfo }
func (m *DeviceInfo) Time() time.Time   { return m.Timestamp }
func (m *DeviceInfo) sequence() int     { return m.seq }

func (m *DeviceInfo) Equal(o *DeviceInfo) bool {
	return o != nil && m.Timestamp.Equal(o.Timestamp) &&
		eqU16(m.Manufacturer, o.Manufacturer) && eqU16(m.Product, o.Product) &&
		eqU32(m.SerialNumber, o.SerialNumber)
}

func (m *DeviceInfo) wireFields() (uint16, []wire.Field) {
	return wire.MsgNumDeviceInfo, []wire.Field{
		{Num: 253, Base: wire.Uint32, Value: wire.EncodeTime(m.Timestamp)},
		{Num: 2, Base: wire.Uint16, Value: encU16(m.Manufacturer)},
		{Num: 3, Base: wire.Uint32z, Value: encU32(m.SerialNumber)},
		{Num: 4, Base: wire.Uint16, Value: encU16(m.Product)},
	}
}

// UserProfile carries the athlete settings active during the recording.
type UserProfile struct {
	seq int

	Gender string
	Age    *uint8
	Height *float64 // meters
	Weight *float64 // kilograms
}

func newUserProfile(seq int, f Fields) *UserProfile {
	return &UserProfile{
		seq:    seq,
		Gender: fieldString(f, "gender"),
		Age:    fieldU8(f, "age"),
		Height: fieldFloat(f, "height"),
		Weight: fieldFloat(f, "weight"),
	}
}

func (m *UserProfile) Kind() MessageKind { return KindUserProfile }
func (m *UserProfile) Time() time.Time   { return time.Time{} }
func (m *UserProfile) sequence() int     { return m.seq }

func (m *UserProfile) Equal(o *UserProfile) bool {
	return o != nil && m.Gender == o.Gender && eqU8(m.Age, o.Age) &&
		eqF64(m.Height, o.Height) && eqF64(m.Weight, o.Weight)
}

func (m *UserProfile) wireFields() (uint16, []wire.Field) {
	return wire.MsgNumUserProfile, []wire.Field{
		{Num: 1, Base: wire.Enum, Value: encEnum(genderCodes, m.Gender)},
		{Num: 2, Base: wire.Uint8, Value: encU8(m.Age)},
		{Num: 3, Base: wire.Uint8, Value: encScaledU8(m.Height, 100)},
		{Num: 4, Base: wire.Uint16, Value: encScaledU16(m.Weight, 10)},
	}
}

// Event is a timestamped notification. Event and EventType are the FIT
// profile names ("timer"/"stop_all", "recovery_hr", "vo2max", ...); Data
// carries the kind-specific payload.
type Event struct {
	seq int

	Timestamp time.Time
	Event     string
	EventType string
	Data      *uint32
}

func newEvent(seq int, f Fields) *Event {
	return &Event{
		seq:       seq,
		Timestamp: fieldTime(f, "timestamp"),
		Event:     fieldString(f, "event"),
		EventType: fieldString(f, "event_type"),
		Data:      fieldU32(f, "data"),
	}
}

func (m *Event) Kind() MessageKind { return KindEvent }
func (m *Event) Time() time.Time   { return m.Timestamp }
func (m *Event) sequence() int     { return m.seq }

func (m *Event) Equal(o *Event) bool {
	return o != nil && m.Timestamp.Equal(o.Timestamp) && m.Event == o.Event &&
		m.EventType == o.EventType && eqU32(m.Data, o.Data)
}

func (m *Event) wireFields() (uint16, []wire.Field) {
	return wire.MsgNumEvent, []wire.Field{
		{Num: 253, Base: wire.Uint32, Value: wire.EncodeTime(m.Timestamp)},
		{Num: 0, Base: wire.Enum, Value: encEnum(eventCodes, m.Event)},
		{Num: 1, Base: wire.Enum, Value: encEnum(eventTypeCodes, m.EventType)},
		{Num: 3, Base: wire.Uint32, Value: encU32(m.Data)},
	}
}

// Record is a single timestamped sensor/position sample.
type Record struct {
	seq int

	Timestamp    time.Time
	PositionLat  *float64 // degrees
	PositionLong *float64 // degrees
	Altitude     *float64 // meters
	HeartRate    *uint8
	Cadence      *uint8
	Distance     *float64 // cumulative meters, device-reported
	Speed        *float64 // m/s
}

func newRecord(seq int, f Fields) *Record {
	return &Record{
		seq:          seq,
		Timestamp:    fieldTime(f, "timestamp"),
		PositionLat:  fieldFloat(f, "position_lat"),
		PositionLong: fieldFloat(f, "position_long"),
		Altitude:     fieldFloat(f, "altitude"),
		HeartRate:    fieldU8(f, "heart_rate"),
		Cadence:      fieldU8(f, "cadence"),
		Distance:     fieldFloat(f, "distance"),
		Speed:        fieldFloat(f, "speed"),
	}
}

func (m *Record) Kind() MessageKind { return KindRecord }
func (m *Record) Time() time.Time   { return m.Timestamp }
func (m *Record) sequence() int     { return m.seq }

func (m *Record) Equal(o *Record) bool {
	return o != nil && m.Timestamp.Equal(o.Timestamp) &&
		eqF64(m.PositionLat, o.PositionLat) && eqF64(m.PositionLong, o.PositionLong) &&
		eqF64(m.Altitude, o.Altitude) && eqU8(m.HeartRate, o.HeartRate) &&
		eqU8(m.Cadence, o.Cadence) && eqF64(m.Distance, o.Distance) &&
		eqF64(m.Speed, o.Speed)
}

func (m *Record) wireFields() (uint16, []wire.Field) {
	return wire.MsgNumRecord, []wire.Field{
		{Num: 253, Base: wire.Uint32, Value: wire.EncodeTime(m.Timestamp)},
		{Num: 0, Base: wire.Sint32, Value: encSemicircles(m.PositionLat)},
		{Num: 1, Base: wire.Sint32, Value: encSemicircles(m.PositionLong)},
		{Num: 2, Base: wire.Uint16, Value: encAltitude(m.Altitude)},
		{Num: 3, Base: wire.Uint8, Value: encU8(m.HeartRate)},
		{Num: 4, Base: wire.Uint8, Value: encU8(m.Cadence)},
		{Num: 5, Base: wire.Uint32, Value: encScaledU32(m.Distance, 100)},
		{Num: 6, Base: wire.Uint16, Value: encScaledU16(m.Speed, 1000)},
	}
}

// Lap is a sub-segment of a Session. MessageIndex is assigned once at
// creation and is globally consecutive across the whole Activity. prev is
// the index of the chronologically previous lap in the Activity's flat lap
// list, or -1; it is a lookup relation only, never ownership.
type Lap struct {
	seq  int
	prev int

	MessageIndex     uint16
	Timestamp        time.Time
	StartTime        time.Time
	TotalElapsedTime float64 // seconds
	TotalTimerTime   float64 // seconds
	TotalDistance    float64 // meters
	AvgSpeed         float64 // m/s
	AvgHeartRate     *uint8
	MaxHeartRate     *uint8

	Records []*Record
}

func newLap(seq int, f Fields) *Lap {
	return &Lap{
		seq:              seq,
		prev:             -1,
		Timestamp:        fieldTime(f, "timestamp"),
		StartTime:        fieldTime(f, "start_time"),
		TotalElapsedTime: fieldFloatOrZero(f, "total_elapsed_time"),
		TotalTimerTime:   fieldFloatOrZero(f, "total_timer_time"),
		TotalDistance:    fieldFloatOrZero(f, "total_distance"),
		AvgSpeed:         fieldFloatOrZero(f, "avg_speed"),
		AvgHeartRate:     fieldU8(f, "avg_heart_rate"),
		MaxHeartRate:     fieldU8(f, "max_heart_rate"),
	}
}

func (m *Lap) Kind() MessageKind { return KindLap }
func (m *Lap) Time() time.Time   { return m.Timestamp }
func (m *Lap) sequence() int     { return m.seq }

// Equal compares the lap's own fields, not its record references.
func (m *Lap) Equal(o *Lap) bool {
	return o != nil && m.MessageIndex == o.MessageIndex &&
		m.Timestamp.Equal(o.Timestamp) && m.StartTime.Equal(o.StartTime) &&
		m.TotalElapsedTime == o.TotalElapsedTime && m.TotalTimerTime == o.TotalTimerTime &&
		m.TotalDistance == o.TotalDistance && m.AvgSpeed == o.AvgSpeed &&
		eqU8(m.AvgHeartRate, o.AvgHeartRate) && eqU8(m.MaxHeartRate, o.MaxHeartRate)
}

func (m *Lap) wireFields() (uint16, []wire.Field) {
	return wire.MsgNumLap, []wire.Field{
		{Num: 254, Base: wire.Uint16, Value: m.MessageIndex},
		{Num: 253, Base: wire.Uint32, Value: wire.EncodeTime(m.Timestamp)},
		{Num: 2, Base: wire.Uint32, Value: wire.EncodeTime(m.StartTime)},
		{Num: 7, Base: wire.Uint32, Value: encScaledU32(&m.TotalElapsedTime, 1000)},
		{Num: 8, Base: wire.Uint32, Value: encScaledU32(&m.TotalTimerTime, 1000)},
		{Num: 9, Base: wire.Uint32, Value: encScaledU32(&m.TotalDistance, 100)},
		{Num: 13, Base: wire.Uint16, Value: encScaledU16(&m.AvgSpeed, 1000)},
		{Num: 15, Base: wire.Uint8, Value: encU8(m.AvgHeartRate)},
		{Num: 16, Base: wire.Uint8, Value: encU8(m.MaxHeartRate)},
	}
}

// Session is a contiguous top-level segment of the Activity. Its laps are
// shared references into the Activity's flat lap list; FirstLapIndex and
// NumLaps record the slice of that list the session covers.
type Session struct {
	seq int

	Timestamp        time.Time
	StartTime        time.Time
	Sport            string
	FirstLapIndex    uint16
	NumLaps          uint16
	TotalElapsedTime float64
	TotalTimerTime   float64
	TotalDistance    float64
	AvgSpeed         float64
	AvgHeartRate     *uint8
	MaxHeartRate     *uint8

	Laps []*Lap
}

func newSession(seq int, f Fields) *Session {
	return &Session{
		seq:              seq,
		Timestamp:        fieldTime(f, "timestamp"),
		StartTime:        fieldTime(f, "start_time"),
		Sport:            fieldString(f, "sport"),
		TotalElapsedTime: fieldFloatOrZero(f, "total_elapsed_time"),
		TotalTimerTime:   fieldFloatOrZero(f, "total_timer_time"),
		TotalDistance:    fieldFloatOrZero(f, "total_distance"),
		AvgSpeed:         fieldFloatOrZero(f, "avg_speed"),
		AvgHeartRate:     fieldU8(f, "avg_heart_rate"),
		MaxHeartRate:     fieldU8(f, "max_heart_rate"),
	}
}

func (m *Session) Kind() MessageKind { return KindSession }
func (m *Session) Time() time.Time   { return m.Timestamp }
func (m *Session) sequence() int     { return m.seq }

func (m *Session) Equal(o *Session) bool {
	return o != nil && m.Timestamp.Equal(o.Timestamp) && m.StartTime.Equal(o.StartTime) &&
		m.Sport == o.Sport && m.FirstLapIndex == o.FirstLapIndex && m.NumLaps == o.NumLaps &&
		m.TotalElapsedTime == o.TotalElapsedTime && m.TotalTimerTime == o.TotalTimerTime &&
		m.TotalDistance == o.TotalDistance && m.AvgSpeed == o.AvgSpeed &&
		eqU8(m.AvgHeartRate, o.AvgHeartRate) && eqU8(m.MaxHeartRate, o.MaxHeartRate)
}

func (m *Session) wireFields() (uint16, []wire.Field) {
	return wire.MsgNumSession, []wire.Field{
		{Num: 253, Base: wire.Uint32, Value: wire.EncodeTime(m.Timestamp)},
		{Num: 2, Base: wire.Uint32, Value: wire.EncodeTime(m.StartTime)},
		{Num: 5, Base: wire.Enum, Value: encEnum(sportCodes, m.Sport)},
		{Num: 7, Base: wire.Uint32, Value: encScaledU32(&m.TotalElapsedTime, 1000)},
		{Num: 8, Base: wire.Uint32, Value: encScaledU32(&m.TotalTimerTime, 1000)},
		{Num: 9, Base: wire.Uint32, Value: encScaledU32(&m.TotalDistance, 100)},
		{Num: 14, Base: wire.Uint16, Value: encScaledU16(&m.AvgSpeed, 1000)},
		{Num: 16, Base: wire.Uint8, Value: encU8(m.AvgHeartRate)},
		{Num: 17, Base: wire.Uint8, Value: encU8(m.MaxHeartRate)},
		{Num: 25, Base: wire.Uint16, Value: m.FirstLapIndex},
		{Num: 26, Base: wire.Uint16, Value: m.NumLaps},
	}
}

// PersonalRecord is a device-reported all-time best surfaced during the
// activity (Garmin message 78).
type PersonalRecord struct {
	seq int

	Timestamp time.Time
	Distance  *float64 // meters
	Duration  *float64 // seconds
}

func newPersonalRecord(seq int, f Fields) *PersonalRecord {
	return &PersonalRecord{
		seq:       seq,
		Timestamp: fieldTime(f, "timestamp"),
		Distance:  fieldFloat(f, "distance"),
		Duration:  fieldFloat(f, "duration"),
	}
}

func (m *PersonalRecord) Kind() MessageKind { return KindPersonalRecord }
func (m *PersonalRecord) Time() time.Time   { return m.Timestamp }
func (m *PersonalRecord) sequence() int     { return m.seq }

func (m *PersonalRecord) Equal(o *PersonalRecord) bool {
	return o != nil && m.Timestamp.Equal(o.Timestamp) &&
		eqF64(m.Distance, o.Distance) && eqF64(m.Duration, o.Duration)
}

func (m *PersonalRecord) wireFields() (uint16, []wire.Field) {
	return wire.MsgNumPersonalRecords, []wire.Field{
		{Num: 253, Base: wire.Uint32, Value: wire.EncodeTime(m.Timestamp)},
		{Num: 1, Base: wire.Uint32, Value: encScaledU32(m.Distance, 100)},
		{Num: 2, Base: wire.Uint32, Value: encScaledU32(m.Duration, 1000)},
	}
}

// enum name tables; unknown names encode as the invalid sentinel.

var fileTypeCodes = map[string]uint8{
	"device":   1,
	"settings": 2,
	"activity": 4,
}

var genderCodes = map[string]uint8{
	"female": 0,
	"male":   1,
}

var sportCodes = map[string]uint8{
	"generic":           0,
	"running":           1,
	"cycling":           2,
	"transition":        3,
	"fitness_equipment": 4,
	"swimming":          5,
}

var eventCodes = map[string]uint8{
	"timer":         0,
	"workout":       3,
	"session":       8,
	"lap":           9,
	"activity":      26,
	"recovery_hr":   21,
	"vo2max":        37,
	"recovery_time": 38,
}

var eventTypeCodes = map[string]uint8{
	"start":    0,
	"stop":     1,
	"marker":   3,
	"stop_all": 4,
}

// field map coercion helpers

func fieldTime(f Fields, key string) time.Time {
	if v, ok := f[key]; ok {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}

func fieldString(f Fields, key string) string {
	if v, ok := f[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func fieldFloat(f Fields, key string) *float64 {
	v, ok := f[key]
	if !ok {
		return nil
	}
	return floatAny(v)
}

func fieldFloatOrZero(f Fields, key string) float64 {
	if p := fieldFloat(f, key); p != nil {
		return *p
	}
	return 0
}

func fieldU8(f Fields, key string) *uint8 {
	p := fieldFloat(f, key)
	if p == nil || *p < 0 || *p > math.MaxUint8 {
		return nil
	}
	v := uint8(*p)
	return &v
}

func fieldU16(f Fields, key string) *uint16 {
	p := fieldFloat(f, key)
	if p == nil || *p < 0 || *p > math.MaxUint16 {
		return nil
	}
	v := uint16(*p)
	return &v
}

func fieldU32(f Fields, key string) *uint32 {
	p := fieldFloat(f, key)
	if p == nil || *p < 0 || *p > math.MaxUint32 {
		return nil
	}
	v := uint32(*p)
	return &v
}

func floatAny(v any) *float64 {
	switch x := v.(type) {
	case float64:
		out := x
		return &out
	case float32:
		out := float64(x)
		return &out
	case int:
		out := float64(x)
		return &out
	case int8:
		out := float64(x)
		return &out
	case int16:
		out := float64(x)
		return &out
	case int32:
		out := float64(x)
		return &out
	case int64:
		out := float64(x)
		return &out
	case uint:
		out := float64(x)
		return &out
	case uint8:
		out := float64(x)
		return &out
	case uint16:
		out := float64(x)
		return &out
	case uint32:
		out := float64(x)
		return &out
	case uint64:
		out := float64(x)
		return &out
	default:
		return nil
	}
}

// pointer equality helpers: nil equals nil, otherwise compare values.

func eqU8(a, b *uint8) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqU16(a, b *uint16) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqU32(a, b *uint32) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqF64(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// wire value encoding helpers

func encEnum(codes map[string]uint8, name string) any {
	if code, ok := codes[name]; ok {
		return code
	}
	return nil
}

func encU8(v *uint8) any {
	if v == nil {
		return nil
	}
	return *v
}

func encU16(v *uint16) any {
	if v == nil {
		return nil
	}
	return *v
}

func encU32(v *uint32) any {
	if v == nil {
		return nil
	}
	return *v
}

func encScaledU8(v *float64, scale float64) any {
	if v == nil {
		return nil
	}
	raw := math.Round(*v * scale)
	if raw < 0 || raw > math.MaxUint8 {
		return nil
	}
	return uint8(raw)
}

func encScaledU16(v *float64, scale float64) any {
	if v == nil {
		return nil
	}
	raw := math.Round(*v * scale)
	if raw < 0 || raw >= math.MaxUint16 {
		return nil
	}
	return uint16(raw)
}

func encScaledU32(v *float64, scale float64) any {
	if v == nil {
		return nil
	}
	raw := math.Round(*v * scale)
	if raw < 0 || raw >= math.MaxUint32 {
		return nil
	}
	return uint32(raw)
}

// encAltitude applies the record altitude encoding (scale 5, offset 500).
func encAltitude(v *float64) any {
	if v == nil {
		return nil
	}
	raw := math.Round((*v + 500) * 5)
	if raw < 0 || raw >= math.MaxUint16 {
		return nil
	}
	return uint16(raw)
}

const semicirclesPerDegree = float64(1 << 31) / 180.0

func encSemicircles(deg *float64) any {
	if deg == nil {
		return nil
	}
	return int32(math.Round(*deg * semicirclesPerDegree))
}

// SemicirclesToDegrees converts a raw FIT position value to degrees.
func SemicirclesToDegrees(semicircles int32) float64 {
	return float64(semicircles) / semicirclesPerDegree
}
