// Command fitreplay decodes a FIT activity file, replays its message
// stream through the grouping builder, recomputes the derived statistics,
// validates the resulting tree, and optionally re-encodes it.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tormoder/fit"

	"github.com/AKovtunov/fit4ruby"
	"github.com/AKovtunov/fit4ruby/wire"
)

func main() {
	var (
		fitPath   = flag.String("fit", "", "Path to input .fit file")
		outPath   = flag.String("out", "", "Optional path for the re-encoded activity")
		aggregate = flag.Bool("aggregate", true, "Recompute lap and session statistics")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --fit input.fit [--out rebuilt.fit] [--aggregate=false]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*fitPath) == "" {
		flag.Usage()
		os.Exit(2)
	}

	activity, err := replayFile(*fitPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitreplay failed: %v\n", err)
		os.Exit(1)
	}
	if *aggregate {
		activity.Aggregate()
	}

	fmt.Printf("sessions:          %d\n", len(activity.Sessions))
	fmt.Printf("laps:              %d\n", len(activity.Laps))
	fmt.Printf("records:           %d\n", len(activity.Records))
	fmt.Printf("sport:             %s\n", activity.Sport())
	fmt.Printf("total distance:    %.1f m\n", activity.TotalDistance())
	fmt.Printf("gps distance:      %.1f m\n", activity.TotalGPSDistance())
	fmt.Printf("avg speed:         %.2f m/s\n", activity.AvgSpeed())
	if hr := activity.EndingHR(); hr != nil {
		fmt.Printf("ending hr:         %d bpm\n", *hr)
	}
	if hr := activity.RecoveryHR(); hr != nil {
		fmt.Printf("recovery hr:       %d bpm\n", *hr)
	}
	if v := activity.VO2Max(); v != nil {
		fmt.Printf("vo2max:            %.1f\n", *v)
	}

	var diag fit4ruby.Diagnostics
	activity.Check(&diag)
	for _, finding := range diag.Findings() {
		fmt.Fprintf(os.Stderr, "check: %s\n", finding)
	}

	if strings.TrimSpace(*outPath) != "" {
		out, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fitreplay failed: %v\n", err)
			os.Exit(1)
		}
		defer out.Close()
		if err := activity.Write(out, wire.NewLocalIDs()); err != nil {
			fmt.Fprintf(os.Stderr, "fitreplay failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("re-encoded:        %s\n", *outPath)
	}
}

func replayFile(path string) (*fit4ruby.Activity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FIT file: %w", err)
	}
	defer f.Close()

	decoded, err := fit.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	return fit4ruby.Replay(decoded)
}
