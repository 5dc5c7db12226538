package fit4ruby

import (
	"fmt"
	"time"
)

// timestampFloor is the sanity floor for activity timestamps, just above
// the FIT wire epoch.
var timestampFloor = time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)

// Diagnostics is an append-only collector for validation findings. Check
// writes to it and never reads it; callers inspect the findings and
// decide whether to abort.
type Diagnostics struct {
	findings []string
}

// Report appends one finding.
func (d *Diagnostics) Report(format string, args ...any) {
	d.findings = append(d.findings, fmt.Sprintf(format, args...))
}

// Findings returns every reported problem in order.
func (d *Diagnostics) Findings() []string {
	return d.findings
}

// Empty reports whether no problem was found.
func (d *Diagnostics) Empty() bool {
	return len(d.findings) == 0
}

// Check validates the structural invariants of the assembled tree. Every
// violation found is reported; Check never stops at the first problem and
// never fails.
func (a *Activity) Check(diag *Diagnostics) {
	if a.Timestamp.IsZero() || a.Timestamp.Before(timestampFloor) {
		diag.Report("activity has no valid timestamp (%s)", a.Timestamp)
	}
	if a.TotalTimerTime == nil {
		diag.Report("activity has no total_timer_time")
	}
	if int(a.NumSessions) != len(a.Sessions) {
		diag.Report("activity declares %d sessions, but %d were built", a.NumSessions, len(a.Sessions))
	}
	for i, s := range a.Sessions {
		s.Check(a, i, diag)
	}
	for i, l := range a.Laps {
		if int(l.MessageIndex) != i {
			diag.Report("lap at position %d has message_index %d", i, l.MessageIndex)
		}
	}
}

// Check validates the session against its owning activity: its lap index
// window must address exactly its own laps in the activity's flat list,
// and its time range must be ordered.
func (s *Session) Check(a *Activity, index int, diag *Diagnostics) {
	first, count := int(s.FirstLapIndex), int(s.NumLaps)
	if count != len(s.Laps) {
		diag.Report("session %d declares %d laps, but owns %d", index, count, len(s.Laps))
	}
	if first+len(s.Laps) > len(a.Laps) {
		diag.Report("session %d lap window [%d,%d) exceeds %d laps", index, first, first+len(s.Laps), len(a.Laps))
		return
	}
	for i, l := range s.Laps {
		if a.Laps[first+i] != l {
			diag.Report("session %d lap %d is not activity lap %d", index, i, first+i)
		}
	}
	if !s.StartTime.IsZero() && !s.Timestamp.IsZero() && s.Timestamp.Before(s.StartTime) {
		diag.Report("session %d ends (%s) before it starts (%s)", index, s.Timestamp, s.StartTime)
	}
}
