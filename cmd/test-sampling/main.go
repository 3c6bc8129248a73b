package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dpup/survey.ersn.net/server/internal/clients/routedefs"
	"github.com/dpup/survey.ersn.net/server/internal/lib/kpcalc"
	"github.com/dpup/survey.ersn.net/server/internal/lib/units"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "samples":
		handleSamples()
	case "offset":
		handleOffset()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleSamples() {
	fs := flag.NewFlagSet("samples", flag.ExitOnError)
	routeFile := fs.String("route", "", "Route definition file (.json or .kml)")
	interval := fs.Float64("interval", 100, "Sample spacing in meters")

	fs.Parse(os.Args[2:])

	if *routeFile == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-sampling samples --route pipeline-12.json --interval 25")
		os.Exit(1)
	}

	calc := loadCalculator(*routeFile)
	samples := calc.GeneratePointsAtInterval(*interval)

	fmt.Printf("%d samples at %gm spacing:\n", len(samples), *interval)
	for _, s := range samples {
		fmt.Printf("  KP %9.6f: E=%.3f N=%.3f\n", s.Kp, s.Easting, s.Northing)
	}
}

func handleOffset() {
	fs := flag.NewFlagSet("offset", flag.ExitOnError)
	routeFile := fs.String("route", "", "Route definition file (.json or .kml)")
	kp := fs.Float64("kp", 0, "Chainage in route-native kilometers")
	offset := fs.Float64("offset", 0, "Perpendicular offset in meters (positive = right of travel)")

	fs.Parse(os.Args[2:])

	if *routeFile == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-sampling offset --route pipeline-12.json --kp 1.25 --offset -50")
		os.Exit(1)
	}

	calc := loadCalculator(*routeFile)
	e, n, ok := calc.OffsetPoint(*kp, *offset)
	if !ok {
		fmt.Printf("Route has no segment at KP %g\n", *kp)
		os.Exit(1)
	}

	fmt.Printf("KP %.6f offset %.3fm: E=%.3f N=%.3f\n", *kp, *offset, e, n)
}

func loadCalculator(routeFile string) kpcalc.Calculator {
	loader := routedefs.NewLoader()
	r, err := loader.LoadFile(routeFile)
	if err != nil {
		log.Fatalf("Failed to load route: %v", err)
	}

	calc, err := kpcalc.NewCalculator(r, units.Kilometer)
	if err != nil {
		log.Fatalf("Failed to build calculator: %v", err)
	}

	fmt.Printf("Loaded route %q: %d segments, KP %.3f to %.3f\n\n",
		r.Name, len(r.Segments), r.StartKp, r.EndKp)
	return calc
}

func printUsage() {
	fmt.Println("test-sampling - manual verification for centerline sampling and offsets")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  samples  Generate centerline points at a fixed interval")
	fmt.Println("  offset   Resolve a KP/offset pair to grid coordinates")
	fmt.Println("  help     Show this help")
}
