package fit4ruby

import (
	"math"
	"time"
)

const earthRadiusMeters = 6371000.0

// TotalGPSDistance reconstructs the covered distance purely from
// positional samples, ignoring the device-reported distance field.
// Intervals spanning a timer stop_all event are excluded: when a
// positional record's timestamp matches the next unconsumed stop
// timestamp, the last known position is cleared and accumulation restarts
// from the following sample. Records without both coordinates are skipped
// and do not disturb the last known position.
func (a *Activity) TotalGPSDistance() float64 {
	var stops []time.Time
	for _, e := range a.Events {
		if e.Event == "timer" && e.EventType == "stop_all" {
			stops = append(stops, e.Timestamp)
		}
	}

	total := 0.0
	var last *Record
	for _, r := range a.Records {
		if r.PositionLat == nil || r.PositionLong == nil {
			continue
		}
		if last != nil {
			total += haversineMeters(*last.PositionLat, *last.PositionLong, *r.PositionLat, *r.PositionLong)
		}
		if len(stops) > 0 && stops[0].Equal(r.Timestamp) {
			last = nil
			stops = stops[1:]
		} else {
			last = r
		}
	}
	return total
}

// haversineMeters returns the great-circle distance between two
// coordinates given in degrees.
func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}
