package fit4ruby

import "time"

// Activity is the root of the assembled tree. Sessions own their laps and
// laps their records only in the structural sense; Laps and Records are
// also retained in the flat lists here, which are the denormalized views
// the queries and the serializer operate on.
type Activity struct {
	Timestamp      time.Time
	TotalTimerTime *float64 // seconds
	// NumSessions is the declared session count: incremented by the
	// builder per session, overridable from a decoded activity message,
	// validated against len(Sessions) by Check.
	NumSessions uint16

	FileID      *FileID
	FileCreator *FileCreator

	DeviceInfos     []*DeviceInfo
	UserProfiles    []*UserProfile
	Events          []*Event
	PersonalRecords []*PersonalRecord
	Sessions        []*Session
	Laps            []*Lap
	Records         []*Record

	seq int
}

func (a *Activity) nextSeq() int {
	s := a.seq
	a.seq++
	return s
}

// PreviousLap resolves a lap's back-reference to the chronologically
// previous lap, or nil for the first one.
func (a *Activity) PreviousLap(l *Lap) *Lap {
	if l.prev < 0 || l.prev >= len(a.Laps) {
		return nil
	}
	return a.Laps[l.prev]
}

// Aggregate recomputes derived statistics bottom-up: every lap from its
// records first, then every session from its laps. Sessions must not be
// recomputed before all laps are, since their statistics read the lap
// fields refreshed here.
func (a *Activity) Aggregate() {
	for _, l := range a.Laps {
		l.Aggregate(a)
	}
	for _, s := range a.Sessions {
		s.Aggregate()
	}
}

// Aggregate refreshes the lap's statistics from its owned records. A lap
// without records keeps whatever fields it was created with.
func (l *Lap) Aggregate(a *Activity) {
	if len(l.Records) == 0 {
		return
	}
	first, last := l.Records[0], l.Records[len(l.Records)-1]
	if !first.Timestamp.IsZero() {
		l.StartTime = first.Timestamp
	}
	if !last.Timestamp.IsZero() {
		l.Timestamp = last.Timestamp
	}
	if !l.StartTime.IsZero() && !l.Timestamp.IsZero() {
		if elapsed := l.Timestamp.Sub(l.StartTime).Seconds(); elapsed >= 0 {
			l.TotalElapsedTime = elapsed
			if l.TotalTimerTime == 0 {
				l.TotalTimerTime = elapsed
			}
		}
	}

	if end := lastDistance(l.Records); end != nil {
		start := 0.0
		// Continuity: the lap's distance is the delta against the last
		// distance sample reachable through the back-reference chain.
		for prev := a.PreviousLap(l); prev != nil; prev = a.PreviousLap(prev) {
			if d := lastDistance(prev.Records); d != nil {
				start = *d
				break
			}
		}
		if *end >= start {
			l.TotalDistance = *end - start
		}
	}
	if l.TotalTimerTime > 0 {
		l.AvgSpeed = l.TotalDistance / l.TotalTimerTime
	}

	var hrSum, hrCount int
	var hrMax uint8
	for _, r := range l.Records {
		if r.HeartRate == nil {
			continue
		}
		hrSum += int(*r.HeartRate)
		hrCount++
		if *r.HeartRate > hrMax {
			hrMax = *r.HeartRate
		}
	}
	if hrCount > 0 {
		avg := uint8(float64(hrSum)/float64(hrCount) + 0.5)
		l.AvgHeartRate = &avg
		l.MaxHeartRate = &hrMax
	}
}

// Aggregate refreshes the session's statistics from its owned laps. It
// assumes the laps have already been aggregated.
func (s *Session) Aggregate() {
	if len(s.Laps) == 0 {
		return
	}
	if t := s.Laps[0].StartTime; !t.IsZero() {
		s.StartTime = t
	}
	if t := s.Laps[len(s.Laps)-1].Timestamp; !t.IsZero() {
		s.Timestamp = t
	}

	var elapsed, timer, distance float64
	var hrWeighted, hrWeight float64
	var hrMax uint8
	haveHR := false
	for _, l := range s.Laps {
		elapsed += l.TotalElapsedTime
		timer += l.TotalTimerTime
		distance += l.TotalDistance
		if l.AvgHeartRate != nil && l.TotalTimerTime > 0 {
			hrWeighted += float64(*l.AvgHeartRate) * l.TotalTimerTime
			hrWeight += l.TotalTimerTime
			haveHR = true
		}
		if l.MaxHeartRate != nil && *l.MaxHeartRate > hrMax {
			hrMax = *l.MaxHeartRate
			haveHR = true
		}
	}
	s.TotalElapsedTime = elapsed
	s.TotalTimerTime = timer
	s.TotalDistance = distance
	if timer > 0 {
		s.AvgSpeed = distance / timer
	}
	if haveHR {
		if hrWeight > 0 {
			avg := uint8(hrWeighted/hrWeight + 0.5)
			s.AvgHeartRate = &avg
		}
		if hrMax > 0 {
			s.MaxHeartRate = &hrMax
		}
	}
}

// TotalDistance sums the device-reported distance over all sessions, in
// meters.
func (a *Activity) TotalDistance() float64 {
	total := 0.0
	for _, s := range a.Sessions {
		total += s.TotalDistance
	}
	return total
}

// AvgSpeed is the activity-wide average moving speed in m/s: total
// distance over total session timer time.
func (a *Activity) AvgSpeed() float64 {
	var distance, timer float64
	for _, s := range a.Sessions {
		distance += s.TotalDistance
		timer += s.TotalTimerTime
	}
	if timer <= 0 {
		return 0
	}
	return distance / timer
}

// EndingHR returns the heart rate of the last record carrying one.
func (a *Activity) EndingHR() *uint8 {
	for i := len(a.Records) - 1; i >= 0; i-- {
		if a.Records[i].HeartRate != nil {
			return a.Records[i].HeartRate
		}
	}
	return nil
}

// RecoveryHR returns the device-computed recovery heart rate in bpm, if a
// recovery_hr event is present.
func (a *Activity) RecoveryHR() *uint8 {
	if data := a.eventData("recovery_hr"); data != nil && *data <= 0xFF {
		hr := uint8(*data)
		return &hr
	}
	return nil
}

// RecoveryTime returns the device-computed recovery time in minutes.
func (a *Activity) RecoveryTime() *uint32 {
	return a.eventData("recovery_time")
}

// VO2Max decodes the device-computed VO2max estimate in ml/kg/min from
// its fixed-point event payload.
func (a *Activity) VO2Max() *float64 {
	data := a.eventData("vo2max")
	if data == nil {
		return nil
	}
	v := float64(*data) * 3.5 / 65536.0
	return &v
}

func (a *Activity) eventData(event string) *uint32 {
	for _, e := range a.Events {
		if e.Event == event {
			return e.Data
		}
	}
	return nil
}

// Sport returns the sport of the first session.
func (a *Activity) Sport() string {
	if len(a.Sessions) == 0 {
		return ""
	}
	return a.Sessions[0].Sport
}

// FlattenRecords walks Session → Lap → Record and returns the records in
// tree order. Once all buffers are flushed this reproduces the flat
// record list exactly.
func (a *Activity) FlattenRecords() []*Record {
	out := make([]*Record, 0, len(a.Records))
	for _, s := range a.Sessions {
		for _, l := range s.Laps {
			out = append(out, l.Records...)
		}
	}
	return out
}

func lastDistance(records []*Record) *float64 {
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Distance != nil {
			return records[i].Distance
		}
	}
	return nil
}
