// Package export flattens a built activity tree into per-record analytic
// samples and writes them as parquet or CSV for downstream tooling.
package export

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/AKovtunov/fit4ruby"
)

// Sample is one record sample enriched with its position in the tree.
// Optional sensor values are nil when the record did not carry them.
type Sample struct {
	TSUTCISO     string
	ElapsedS     float64
	LatDeg       *float64
	LonDeg       *float64
	AltitudeM    *float64
	HRBPM        *float64
	CadenceRPM   *float64
	DistanceM    *float64
	SpeedMPS     *float64
	SessionIndex int
	LapIndex     int
	RecordIndex  int
}

// Flatten walks Session → Lap → Record and emits one sample per record.
// Elapsed time is measured from the first timestamped record.
func Flatten(a *fit4ruby.Activity) []Sample {
	out := make([]Sample, 0, len(a.Records))
	var first time.Time
	idx := 0
	for si, s := range a.Sessions {
		for _, l := range s.Laps {
			for _, r := range l.Records {
				sample := Sample{
					SessionIndex: si,
					LapIndex:     int(l.MessageIndex),
					RecordIndex:  idx,
					LatDeg:       r.PositionLat,
					LonDeg:       r.PositionLong,
					AltitudeM:    r.Altitude,
					DistanceM:    r.Distance,
					SpeedMPS:     r.Speed,
				}
				if r.HeartRate != nil {
					hr := float64(*r.HeartRate)
					sample.HRBPM = &hr
				}
				if r.Cadence != nil {
					cad := float64(*r.Cadence)
					sample.CadenceRPM = &cad
				}
				if !r.Timestamp.IsZero() {
					if first.IsZero() {
						first = r.Timestamp
					}
					sample.TSUTCISO = r.Timestamp.UTC().Format(time.RFC3339)
					sample.ElapsedS = r.Timestamp.Sub(first).Seconds()
				}
				out = append(out, sample)
				idx++
			}
		}
	}
	return out
}

type sampleParquetRow struct {
	TSUTCISO     string  `parquet:"name=ts_utc_iso, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ElapsedS     float64 `parquet:"name=elapsed_s, type=DOUBLE"`
	LatDeg       float64 `parquet:"name=lat_deg, type=DOUBLE"`
	LonDeg       float64 `parquet:"name=lon_deg, type=DOUBLE"`
	AltitudeM    float64 `parquet:"name=altitude_m, type=DOUBLE"`
	HRBPM        float64 `parquet:"name=hr_bpm, type=DOUBLE"`
	CadenceRPM   float64 `parquet:"name=cadence_rpm, type=DOUBLE"`
	DistanceM    float64 `parquet:"name=distance_m, type=DOUBLE"`
	SpeedMPS     float64 `parquet:"name=speed_mps, type=DOUBLE"`
	SessionIndex int64   `parquet:"name=session_index, type=INT64"`
	LapIndex     int64   `parquet:"name=lap_index, type=INT64"`
	RecordIndex  int64   `parquet:"name=record_index, type=INT64"`
}

// WriteParquet writes the samples as a snappy-compressed parquet file.
func WriteParquet(path string, samples []Sample) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, new(sampleParquetRow), 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, s := range samples {
		row := sampleParquetRow{
			TSUTCISO:     s.TSUTCISO,
			ElapsedS:     s.ElapsedS,
			LatDeg:       valueOrNaN(s.LatDeg),
			LonDeg:       valueOrNaN(s.LonDeg),
			AltitudeM:    valueOrNaN(s.AltitudeM),
			HRBPM:        valueOrNaN(s.HRBPM),
			CadenceRPM:   valueOrNaN(s.CadenceRPM),
			DistanceM:    valueOrNaN(s.DistanceM),
			SpeedMPS:     valueOrNaN(s.SpeedMPS),
			SessionIndex: int64(s.SessionIndex),
			LapIndex:     int64(s.LapIndex),
			RecordIndex:  int64(s.RecordIndex),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

// WriteCSV writes the samples as CSV with a fixed header row.
func WriteCSV(path string, samples []Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"ts_utc_iso", "elapsed_s", "lat_deg", "lon_deg", "altitude_m",
		"hr_bpm", "cadence_rpm", "distance_m", "speed_mps",
		"session_index", "lap_index", "record_index",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			s.TSUTCISO,
			formatFloat(s.ElapsedS),
			formatFloatPtr(s.LatDeg),
			formatFloatPtr(s.LonDeg),
			formatFloatPtr(s.AltitudeM),
			formatFloatPtr(s.HRBPM),
			formatFloatPtr(s.CadenceRPM),
			formatFloatPtr(s.DistanceM),
			formatFloatPtr(s.SpeedMPS),
			strconv.Itoa(s.SessionIndex),
			strconv.Itoa(s.LapIndex),
			strconv.Itoa(s.RecordIndex),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Write dispatches on format ("parquet" or "csv") and returns the path
// written.
func Write(dir, format string, samples []Sample) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "parquet"
	}
	path := dir + "/samples." + format
	switch format {
	case "parquet":
		return path, WriteParquet(path, samples)
	case "csv":
		return path, WriteCSV(path, samples)
	default:
		return "", fmt.Errorf("unsupported format %q (expected parquet|csv)", format)
	}
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
