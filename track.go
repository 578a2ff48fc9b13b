package main

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// TrackSource produces one batch of tracks per loop iteration.
type TrackSource interface {
	Tracks(ctx context.Context, n int) ([]Track, error)
}

var (
	trackSizes   = []string{"小型", "中型", "大型"}
	trackDangers = []string{"低威", "中威", "高威"}
)

// Positions are drawn on a micro-degree grid.
const coordScale = 1_000_000

// TrackSampler draws independent random values for each track field.
type TrackSampler struct {
	bounds      Bounds
	minAltitude int
	maxAltitude int
	maxID       int
	rng         *rand.Rand
	now         func() time.Time
}

func NewTrackSampler(bounds Bounds, minAltitude, maxAltitude, maxID int, seed uint64) *TrackSampler {
	return &TrackSampler{
		bounds:      bounds,
		minAltitude: minAltitude,
		maxAltitude: maxAltitude,
		maxID:       maxID,
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:         time.Now,
	}
}

func (s *TrackSampler) position() LngLat {
	return LngLat{
		Lng: s.coord(s.bounds.SouthWest.Lng, s.bounds.NorthEast.Lng),
		Lat: s.coord(s.bounds.SouthWest.Lat, s.bounds.NorthEast.Lat),
	}
}

// coord samples [lo, hi) on the micro-degree grid.
func (s *TrackSampler) coord(lo, hi float64) float64 {
	a, b := int64(lo*coordScale), int64(hi*coordScale)
	if b <= a {
		return lo
	}
	v := float64(a+s.rng.Int64N(b-a)) / coordScale
	// truncation can put the grid start just below a non-grid edge
	if v < lo {
		v = lo
	}
	return v
}

func (s *TrackSampler) altitude() int {
	if s.maxAltitude <= s.minAltitude {
		return s.minAltitude
	}
	// unsigned span so wide ranges do not overflow
	span := uint64(s.maxAltitude) - uint64(s.minAltitude)
	if span == math.MaxUint64 {
		return s.minAltitude + int(s.rng.Uint64())
	}
	return s.minAltitude + int(s.rng.Uint64N(span+1))
}

func (s *TrackSampler) id() int {
	if s.maxID <= 1 {
		return 1
	}
	return 1 + s.rng.IntN(s.maxID)
}

func (s *TrackSampler) extra() TrackExtra {
	return TrackExtra{
		Size:   trackSizes[s.rng.IntN(len(trackSizes))],
		Danger: trackDangers[s.rng.IntN(len(trackDangers))],
	}
}

// Sample returns a single track stamped with the current time.
func (s *TrackSampler) Sample() Track {
	return Track{
		ID:       s.id(),
		Position: s.position(),
		Altitude: s.altitude(),
		TrackAt:  s.now().Unix(),
		Extra:    s.extra(),
	}
}

// RandomTrackSource emits n freshly sampled tracks per batch.
type RandomTrackSource struct {
	sampler *TrackSampler
}

func NewRandomTrackSource(sampler *TrackSampler) *RandomTrackSource {
	return &RandomTrackSource{sampler: sampler}
}

func (r *RandomTrackSource) Tracks(_ context.Context, n int) ([]Track, error) {
	if n <= 0 {
		return nil, nil
	}
	out := make([]Track, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.sampler.Sample())
	}
	return out, nil
}

// trackObject is the argument shape of updateTracks for one track.
func trackObject(t Track) Object {
	return Object{
		{"id", t.ID},
		{"position", t.Position},
		{"altitude", t.Altitude},
		{"trackAt", t.TrackAt},
		{"extra_info", Object{
			{"size", t.Extra.Size},
			{"danger", t.Extra.Danger},
		}},
	}
}

func tracksArgument(tracks []Track) []any {
	out := make([]any, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, trackObject(t))
	}
	return out
}
