package main

import (
	"encoding/json"
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
	case "point":
		handlePoint()
	case "batch":
		handleBatch()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handlePoint() {
	fs := flag.NewFlagSet("point", flag.ExitOnError)
	routeFile := fs.String("route", "", "Route definition file (.json or .kml)")
	easting := fs.Float64("easting", 0, "Point easting in meters")
	northing := fs.Float64("northing", 0, "Point northing in meters")
	unit := fs.String("unit", "km", "Output unit: km, m, usft, nm")

	fs.Parse(os.Args[2:])

	if *routeFile == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-projection point --route pipeline-12.json --easting 415120.5 --northing 6423077.2")
		os.Exit(1)
	}

	calc := loadCalculator(*routeFile, *unit)
	kp, dcc := calc.Calculate(*easting, *northing)

	fmt.Printf("Point (%.3f, %.3f):\n", *easting, *northing)
	fmt.Printf("  KP:  %.6f %s\n", kp, units.ParseUnit(*unit))
	fmt.Printf("  DCC: %.3f m\n", dcc)
}

func handleBatch() {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	routeFile := fs.String("route", "", "Route definition file (.json or .kml)")
	pointsFile := fs.String("points", "", "JSON file with an array of {easting, northing} points")
	unit := fs.String("unit", "km", "Output unit: km, m, usft, nm")

	fs.Parse(os.Args[2:])

	if *routeFile == "" || *pointsFile == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-projection batch --route pipeline-12.json --points survey-points.json")
		os.Exit(1)
	}

	calc := loadCalculator(*routeFile, *unit)

	points, err := readPoints(*pointsFile)
	if err != nil {
		log.Fatalf("Failed to read points: %v", err)
	}

	calc.CalculateAll(points, func(pct int) {
		fmt.Printf("  ... %d%%\n", pct)
	})

	fmt.Printf("Referenced %d points:\n", len(points))
	for i, p := range points {
		fmt.Printf("  %4d: E=%.3f N=%.3f  KP=%.6f DCC=%.3f\n", i, p.Easting, p.Northing, p.Kp, p.Dcc)
	}
}

func loadCalculator(routeFile, unit string) kpcalc.Calculator {
	loader := routedefs.NewLoader()
	r, err := loader.LoadFile(routeFile)
	if err != nil {
		log.Fatalf("Failed to load route: %v", err)
	}

	calc, err := kpcalc.NewCalculator(r, units.ParseUnit(unit))
	if err != nil {
		log.Fatalf("Failed to build calculator: %v", err)
	}

	fmt.Printf("Loaded route %q: %d segments, KP %.3f to %.3f\n\n",
		r.Name, len(r.Segments), r.StartKp, r.EndKp)
	return calc
}

func readPoints(path string) ([]*kpcalc.SurveyPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var points []*kpcalc.SurveyPoint
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, err
	}
	return points, nil
}

func printUsage() {
	fmt.Println("test-projection - manual verification for KP/DCC calculation")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  point   Reference a single easting/northing against a route")
	fmt.Println("  batch   Reference a JSON point set against a route")
	fmt.Println("  help    Show this help")
}
