package main

import "time"

// LngLat is a longitude/latitude pair in degrees, in the order the map UI expects.
type LngLat struct {
	Lng float64
	Lat float64
}

// Bounds is the rectangle spanned by its south-west and north-east corners.
type Bounds struct {
	SouthWest LngLat
	NorthEast LngLat
}

// Contains reports whether p lies inside the rectangle. The east and north
// edges are exclusive, matching how tracks are sampled.
func (b Bounds) Contains(p LngLat) bool {
	return p.Lng >= b.SouthWest.Lng && p.Lng < b.NorthEast.Lng &&
		p.Lat >= b.SouthWest.Lat && p.Lat < b.NorthEast.Lat
}

// Track is one synthetic position report.
type Track struct {
	ID       int
	Position LngLat
	Altitude int
	TrackAt  int64
	Extra    TrackExtra
}

type TrackExtra struct {
	Size   string
	Danger string
}

// Step is a single scripted map-control command sent before the track loop.
type Step struct {
	Target   string
	Command  string
	Argument any
	Delay    time.Duration
}

// Script is the ordered list of steps played back on every connection.
type Script struct {
	Steps []Step
}
