package fit4ruby

import (
	"strings"
	"testing"
	"time"
)

func checkedActivity(t *testing.T) *Activity {
	t.Helper()
	b := NewBuilder()
	b.NewRecord(Fields{"timestamp": ts(0), "distance": 0.0})
	b.NewRecord(Fields{"timestamp": ts(60), "distance": 250.0})
	b.NewLap(Fields{})
	b.NewRecord(Fields{"timestamp": ts(120), "distance": 500.0})
	b.NewSession(Fields{"sport": "cycling"})
	b.SetActivityFields(Fields{"timestamp": ts(120), "total_timer_time": 120.0})
	a := b.Activity()
	a.Aggregate()
	return a
}

func findingsContaining(diag *Diagnostics, substr string) int {
	n := 0
	for _, f := range diag.Findings() {
		if strings.Contains(f, substr) {
			n++
		}
	}
	return n
}

func TestCheckAcceptsWellFormedActivity(t *testing.T) {
	a := checkedActivity(t)
	var diag Diagnostics
	a.Check(&diag)
	if !diag.Empty() {
		t.Fatalf("unexpected findings: %v", diag.Findings())
	}
}

func TestCheckReportsMissingActivityFields(t *testing.T) {
	a := NewBuilder().Activity()
	var diag Diagnostics
	a.Check(&diag)

	if findingsContaining(&diag, "valid timestamp") != 1 {
		t.Fatalf("missing timestamp not reported: %v", diag.Findings())
	}
	if findingsContaining(&diag, "total_timer_time") != 1 {
		t.Fatalf("missing total_timer_time not reported: %v", diag.Findings())
	}
}

func TestCheckRejectsPreEpochTimestamp(t *testing.T) {
	a := checkedActivity(t)
	a.Timestamp = time.Date(1989, 12, 31, 0, 0, 0, 0, time.UTC)
	var diag Diagnostics
	a.Check(&diag)
	if findingsContaining(&diag, "valid timestamp") != 1 {
		t.Fatalf("pre-epoch timestamp not reported: %v", diag.Findings())
	}
}

func TestCheckReportsSessionCountMismatch(t *testing.T) {
	a := checkedActivity(t)
	a.NumSessions = 3
	var diag Diagnostics
	a.Check(&diag)
	if findingsContaining(&diag, "declares 3 sessions") != 1 {
		t.Fatalf("session count mismatch not reported: %v", diag.Findings())
	}
}

func TestCheckReportsEveryLapIndexViolation(t *testing.T) {
	b := NewBuilder()
	b.NewLap(Fields{})
	b.NewLap(Fields{})
	b.NewLap(Fields{})
	b.NewSession(Fields{})
	b.SetActivityFields(Fields{"timestamp": ts(0), "total_timer_time": 1.0})
	a := b.Activity()
	a.Laps[0].MessageIndex = 7
	a.Laps[2].MessageIndex = 9

	var diag Diagnostics
	a.Check(&diag)
	if got := findingsContaining(&diag, "message_index"); got != 2 {
		t.Fatalf("expected 2 lap index findings, got %d: %v", got, diag.Findings())
	}
}

func TestCheckReportsLapWindowViolations(t *testing.T) {
	a := checkedActivity(t)
	s := a.Sessions[0]
	s.NumLaps = 5
	var diag Diagnostics
	a.Check(&diag)
	if findingsContaining(&diag, "declares 5 laps") != 1 {
		t.Fatalf("lap count mismatch not reported: %v", diag.Findings())
	}

	s.FirstLapIndex = 4
	diag = Diagnostics{}
	a.Check(&diag)
	if findingsContaining(&diag, "lap window") != 1 {
		t.Fatalf("out-of-range lap window not reported: %v", diag.Findings())
	}
}

func TestCheckReportsInvertedSessionTimeRange(t *testing.T) {
	a := checkedActivity(t)
	s := a.Sessions[0]
	s.StartTime = ts(120)
	s.Timestamp = ts(0)
	var diag Diagnostics
	a.Check(&diag)
	if findingsContaining(&diag, "before it starts") != 1 {
		t.Fatalf("inverted time range not reported: %v", diag.Findings())
	}
}
