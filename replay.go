package fit4ruby

import (
	"fmt"
	"math"
	"time"

	"github.com/tormoder/fit"
)

// Replay feeds a decoded FIT activity file through a Builder, reproducing
// the grouping the recording device implied: records are emitted in
// stream order, each lap boundary closes the pending records, each
// session boundary closes the pending laps. Files that never close their
// last lap or session still come out fully grouped.
func Replay(file *fit.File) (*Activity, error) {
	af, err := file.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}

	b := NewBuilder()
	b.NewFileID(fileIDFields(file))
	b.NewFileCreator(Fields{
		"software_version": file.FileCreator.SoftwareVersion,
		"hardware_version": file.FileCreator.HardwareVersion,
	})
	for _, d := range af.DeviceInfos {
		if d != nil {
			b.NewDeviceInfo(deviceInfoFields(d))
		}
	}
	for _, e := range af.Events {
		if e != nil {
			b.NewEvent(eventFields(e))
		}
	}

	laps := af.Laps
	sessions := af.Sessions
	li, si := 0, 0
	closeBoundaries := func(lapsEmitted int) {
		for si < len(sessions) && sessions[si] != nil &&
			sessionLapEnd(sessions[si]) <= lapsEmitted {
			b.NewSession(sessionFields(sessions[si]))
			si++
		}
	}
	for _, rec := range af.Records {
		if rec == nil {
			continue
		}
		ts := validTimeOrZero(rec.Timestamp)
		for li < len(laps) && laps[li] != nil && !ts.IsZero() {
			end := validTimeOrZero(laps[li].Timestamp)
			if end.IsZero() || !ts.After(end) {
				break
			}
			b.NewLap(lapFields(laps[li]))
			li++
			closeBoundaries(li)
		}
		b.NewRecord(recordFields(rec))
	}
	for ; li < len(laps); li++ {
		if laps[li] != nil {
			b.NewLap(lapFields(laps[li]))
			closeBoundaries(li + 1)
		}
	}
	for ; si < len(sessions); si++ {
		if sessions[si] != nil {
			b.NewSession(sessionFields(sessions[si]))
		}
	}
	if b.PendingRecords() > 0 || b.PendingLaps() > 0 {
		b.NewSession(Fields{})
	}

	if af.Activity != nil {
		f := Fields{}
		if t := validTimeOrZero(af.Activity.Timestamp); !t.IsZero() {
			f["timestamp"] = t
		}
		if v := af.Activity.GetTotalTimerTimeScaled(); isFinite(v) {
			f["total_timer_time"] = v
		}
		if af.Activity.NumSessions != math.MaxUint16 {
			f["num_sessions"] = af.Activity.NumSessions
		}
		b.SetActivityFields(f)
	}
	return b.Activity(), nil
}

// sessionLapEnd is the index one past the session's last lap, used to
// decide when all of a session's laps have been replayed. Sessions with
// invalid lap bookkeeping never match and fall through to the tail loop.
func sessionLapEnd(s *fit.SessionMsg) int {
	if s.FirstLapIndex == math.MaxUint16 || s.NumLaps == math.MaxUint16 || s.NumLaps == 0 {
		return math.MaxInt
	}
	return int(s.FirstLapIndex) + int(s.NumLaps)
}

func fileIDFields(file *fit.File) Fields {
	f := Fields{
		"type": fmt.Sprint(file.FileId.Type),
	}
	if uint16(file.FileId.Manufacturer) != math.MaxUint16 {
		f["manufacturer"] = uint16(file.FileId.Manufacturer)
	}
	if file.FileId.Product != math.MaxUint16 {
		f["product"] = file.FileId.Product
	}
	if file.FileId.SerialNumber != 0 {
		f["serial_number"] = file.FileId.SerialNumber
	}
	if t := validTimeOrZero(file.FileId.TimeCreated); !t.IsZero() {
		f["time_created"] = t
	}
	return f
}

func deviceInfoFields(d *fit.DeviceInfoMsg) Fields {
	f := Fields{}
	if t := validTimeOrZero(d.Timestamp); !t.IsZero() {
		f["timestamp"] = t
	}
	if uint16(d.Manufacturer) != math.MaxUint16 {
		f["manufacturer"] = uint16(d.Manufacturer)
	}
	if d.Product != math.MaxUint16 {
		f["product"] = d.Product
	}
	if d.SerialNumber != 0 {
		f["serial_number"] = d.SerialNumber
	}
	return f
}

func eventFields(e *fit.EventMsg) Fields {
	f := Fields{
		"event":      fmt.Sprint(e.Event),
		"event_type": fmt.Sprint(e.EventType),
	}
	if t := validTimeOrZero(e.Timestamp); !t.IsZero() {
		f["timestamp"] = t
	}
	if e.Data != math.MaxUint32 {
		f["data"] = e.Data
	}
	return f
}

func recordFields(r *fit.RecordMsg) Fields {
	f := Fields{}
	if t := validTimeOrZero(r.Timestamp); !t.IsZero() {
		f["timestamp"] = t
	}
	if lat := r.PositionLat.Semicircles(); lat != math.MaxInt32 {
		f["position_lat"] = SemicirclesToDegrees(lat)
	}
	if lng := r.PositionLong.Semicircles(); lng != math.MaxInt32 {
		f["position_long"] = SemicirclesToDegrees(lng)
	}
	if alt := r.GetAltitudeScaled(); isFinite(alt) {
		f["altitude"] = alt
	}
	if r.HeartRate != math.MaxUint8 {
		f["heart_rate"] = r.HeartRate
	}
	if r.Cadence != math.MaxUint8 {
		f["cadence"] = r.Cadence
	}
	if d := r.GetDistanceScaled(); isFinite(d) && d >= 0 {
		f["distance"] = d
	}
	if s := r.GetSpeedScaled(); isFinite(s) && s >= 0 {
		f["speed"] = s
	}
	return f
}

func lapFields(l *fit.LapMsg) Fields {
	f := Fields{}
	if t := validTimeOrZero(l.Timestamp); !t.IsZero() {
		f["timestamp"] = t
	}
	if t := validTimeOrZero(l.StartTime); !t.IsZero() {
		f["start_time"] = t
	}
	if v := l.GetTotalElapsedTimeScaled(); isFinite(v) && v > 0 {
		f["total_elapsed_time"] = v
	}
	if v := l.GetTotalTimerTimeScaled(); isFinite(v) && v > 0 {
		f["total_timer_time"] = v
	}
	if v := l.GetTotalDistanceScaled(); isFinite(v) && v > 0 {
		f["total_distance"] = v
	}
	if v := l.GetAvgSpeedScaled(); isFinite(v) && v > 0 {
		f["avg_speed"] = v
	}
	if l.AvgHeartRate != math.MaxUint8 {
		f["avg_heart_rate"] = l.AvgHeartRate
	}
	if l.MaxHeartRate != math.MaxUint8 {
		f["max_heart_rate"] = l.MaxHeartRate
	}
	return f
}

func sessionFields(s *fit.SessionMsg) Fields {
	f := Fields{
		"sport": fmt.Sprint(s.Sport),
	}
	if t := validTimeOrZero(s.Timestamp); !t.IsZero() {
		f["timestamp"] = t
	}
	if t := validTimeOrZero(s.StartTime); !t.IsZero() {
		f["start_time"] = t
	}
	if v := s.GetTotalElapsedTimeScaled(); isFinite(v) && v > 0 {
		f["total_elapsed_time"] = v
	}
	if v := s.GetTotalTimerTimeScaled(); isFinite(v) && v > 0 {
		f["total_timer_time"] = v
	}
	if v := s.GetTotalDistanceScaled(); isFinite(v) && v > 0 {
		f["total_distance"] = v
	}
	if v := s.GetAvgSpeedScaled(); isFinite(v) && v > 0 {
		f["avg_speed"] = v
	}
	if s.AvgHeartRate != math.MaxUint8 {
		f["avg_heart_rate"] = s.AvgHeartRate
	}
	if s.MaxHeartRate != math.MaxUint8 {
		f["max_heart_rate"] = s.MaxHeartRate
	}
	return f
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
