package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// parseBounds parses "west,south,east,north" in degrees.
func parseBounds(value string) (Bounds, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return Bounds{}, fmt.Errorf("bounds %q: want west,south,east,north", value)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Bounds{}, fmt.Errorf("bounds %q: %w", value, err)
		}
		v[i] = f
	}
	b := Bounds{
		SouthWest: LngLat{Lng: v[0], Lat: v[1]},
		NorthEast: LngLat{Lng: v[2], Lat: v[3]},
	}
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Bounds{}, fmt.Errorf("bounds %q: not a finite number", value)
		}
	}
	if b.SouthWest.Lng >= b.NorthEast.Lng || b.SouthWest.Lat >= b.NorthEast.Lat {
		return Bounds{}, fmt.Errorf("bounds %q: west/south must be below east/north", value)
	}
	if b.SouthWest.Lng < -180 || b.NorthEast.Lng > 180 || b.SouthWest.Lat < -90 || b.NorthEast.Lat > 90 {
		return Bounds{}, fmt.Errorf("bounds %q: out of range", value)
	}
	return b, nil
}

// parseIntRange parses an inclusive "min,max" range.
func parseIntRange(value string) (int, int, error) {
	lo, hi, ok := strings.Cut(value, ",")
	if !ok {
		return 0, 0, fmt.Errorf("range %q: want min,max", value)
	}
	minV, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("range %q: %w", value, err)
	}
	maxV, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, fmt.Errorf("range %q: %w", value, err)
	}
	if minV > maxV {
		return 0, 0, fmt.Errorf("range %q: min above max", value)
	}
	// the sampler draws from span+1 values
	if span := uint64(maxV) - uint64(minV); span >= math.MaxInt {
		return 0, 0, fmt.Errorf("range %q: too wide", value)
	}
	return minV, maxV, nil
}

// checkLoop validates the effective track loop settings after script overrides.
func checkLoop(every time.Duration, batch int) error {
	if every <= 0 {
		return errors.New("--interval must be positive")
	}
	if batch < 0 {
		return errors.New("--batch must not be negative")
	}
	return nil
}

// resolveWire picks the wire format when --wire is not set. The built-in
// script is written for the statement-block UI build, script files default to
// the JSON triple used by the command-dispatch build.
func resolveWire(flagValue string, fromFile bool) string {
	if flagValue != "" {
		return flagValue
	}
	if fromFile {
		return "command"
	}
	return "script"
}

func formatBounds(b Bounds) string {
	return strings.Join([]string{
		formatFloat(b.SouthWest.Lng), formatFloat(b.SouthWest.Lat),
		formatFloat(b.NorthEast.Lng), formatFloat(b.NorthEast.Lat),
	}, ",")
}
