package fit4ruby

import (
	"math"
	"testing"
)

// buildTwoSessionActivity assembles two sessions whose distance samples
// are cumulative across the whole stream, the way a device reports them.
func buildTwoSessionActivity(t *testing.T) *Activity {
	t.Helper()
	b := NewBuilder()
	b.NewRecord(Fields{"timestamp": ts(0), "distance": 0.0, "heart_rate": 120})
	b.NewRecord(Fields{"timestamp": ts(60), "distance": 300.0, "heart_rate": 140})
	b.NewLap(Fields{})
	b.NewRecord(Fields{"timestamp": ts(120), "distance": 600.0, "heart_rate": 150})
	b.NewRecord(Fields{"timestamp": ts(180), "distance": 1000.0, "heart_rate": 160})
	b.NewLap(Fields{})
	b.NewSession(Fields{"sport": "running"})
	b.NewRecord(Fields{"timestamp": ts(240), "distance": 1200.0, "heart_rate": 100})
	b.NewRecord(Fields{"timestamp": ts(300), "distance": 1200.0, "heart_rate": 100})
	b.NewSession(Fields{"sport": "running"})
	return b.Activity()
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestLapAggregation(t *testing.T) {
	a := buildTwoSessionActivity(t)
	a.Aggregate()

	l1, l2 := a.Laps[0], a.Laps[1]
	if !l1.StartTime.Equal(ts(0)) || !l1.Timestamp.Equal(ts(60)) {
		t.Fatalf("lap 0 window [%s, %s]", l1.StartTime, l1.Timestamp)
	}
	approx(t, "lap 0 elapsed", l1.TotalElapsedTime, 60)
	approx(t, "lap 0 timer", l1.TotalTimerTime, 60)
	approx(t, "lap 0 distance", l1.TotalDistance, 300)
	approx(t, "lap 0 avg speed", l1.AvgSpeed, 5)
	if l1.AvgHeartRate == nil || *l1.AvgHeartRate != 130 {
		t.Fatalf("lap 0 avg hr = %v, want 130", l1.AvgHeartRate)
	}
	if l1.MaxHeartRate == nil || *l1.MaxHeartRate != 140 {
		t.Fatalf("lap 0 max hr = %v, want 140", l1.MaxHeartRate)
	}

	// Distance is the delta against the previous lap's last sample, not
	// the raw cumulative value.
	approx(t, "lap 1 distance", l2.TotalDistance, 700)
	approx(t, "lap 1 avg speed", l2.AvgSpeed, 700.0/60.0)
}

func TestLapDistanceChainsAcrossSessions(t *testing.T) {
	a := buildTwoSessionActivity(t)
	a.Aggregate()

	// The third lap is the implicit one opened by the second session; its
	// distance must continue from the previous session's last sample.
	l3 := a.Laps[2]
	approx(t, "lap 2 distance", l3.TotalDistance, 200)
}

func TestSessionAggregation(t *testing.T) {
	a := buildTwoSessionActivity(t)
	a.Aggregate()

	s := a.Sessions[0]
	if !s.StartTime.Equal(ts(0)) || !s.Timestamp.Equal(ts(180)) {
		t.Fatalf("session 0 window [%s, %s]", s.StartTime, s.Timestamp)
	}
	approx(t, "session 0 elapsed", s.TotalElapsedTime, 120)
	approx(t, "session 0 timer", s.TotalTimerTime, 120)
	approx(t, "session 0 distance", s.TotalDistance, 1000)
	approx(t, "session 0 avg speed", s.AvgSpeed, 1000.0/120.0)
	if s.AvgHeartRate == nil || *s.AvgHeartRate != 143 {
		t.Fatalf("session 0 avg hr = %v, want 143", s.AvgHeartRate)
	}
	if s.MaxHeartRate == nil || *s.MaxHeartRate != 160 {
		t.Fatalf("session 0 max hr = %v, want 160", s.MaxHeartRate)
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	a := buildTwoSessionActivity(t)
	a.Aggregate()
	first := a.Sessions[0].TotalDistance
	a.Aggregate()
	approx(t, "session 0 distance after second aggregate", a.Sessions[0].TotalDistance, first)
}

func TestActivityQueries(t *testing.T) {
	a := buildTwoSessionActivity(t)
	a.Aggregate()

	approx(t, "total distance", a.TotalDistance(), 1200)
	approx(t, "avg speed", a.AvgSpeed(), 1200.0/180.0)
	if a.Sport() != "running" {
		t.Fatalf("sport = %q", a.Sport())
	}
	if hr := a.EndingHR(); hr == nil || *hr != 100 {
		t.Fatalf("ending hr = %v, want 100", hr)
	}
}

func TestEventBackedQueries(t *testing.T) {
	b := NewBuilder()
	b.NewEvent(Fields{"timestamp": ts(0), "event": "recovery_hr", "event_type": "marker", "data": 55})
	b.NewEvent(Fields{"timestamp": ts(0), "event": "recovery_time", "event_type": "marker", "data": 90})
	b.NewEvent(Fields{"timestamp": ts(0), "event": "vo2max", "event_type": "marker", "data": 65536})
	a := b.Activity()

	if hr := a.RecoveryHR(); hr == nil || *hr != 55 {
		t.Fatalf("recovery hr = %v, want 55", hr)
	}
	if rt := a.RecoveryTime(); rt == nil || *rt != 90 {
		t.Fatalf("recovery time = %v, want 90", rt)
	}
	v := a.VO2Max()
	if v == nil {
		t.Fatal("expected vo2max")
	}
	approx(t, "vo2max", *v, 3.5)
}

func TestEventQueriesAbsentWithoutEvents(t *testing.T) {
	a := NewBuilder().Activity()
	if a.RecoveryHR() != nil || a.RecoveryTime() != nil || a.VO2Max() != nil || a.EndingHR() != nil {
		t.Fatal("queries on an empty activity should all be absent")
	}
}
