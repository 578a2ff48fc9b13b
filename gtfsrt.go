package main

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"strconv"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/gorilla/websocket"
	"google.golang.org/protobuf/proto"
)

const gtfsRtVersion = "2.0"

// gtfsRtFeed wraps a track batch in a GTFS-RT vehicle positions feed.
// Altitude has no GTFS-RT field and is dropped; size and danger travel in the
// vehicle label as "size/danger".
func gtfsRtFeed(tracks []Track, now time.Time) *gtfs.FeedMessage {
	feed := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String(gtfsRtVersion),
			Incrementality:      gtfs.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(uint64(now.Unix())),
		},
		Entity: make([]*gtfs.FeedEntity, 0, len(tracks)),
	}
	for i, t := range tracks {
		id := strconv.Itoa(t.ID)
		feed.Entity = append(feed.Entity, &gtfs.FeedEntity{
			// track ids repeat within a batch, entity ids may not
			Id: proto.String(fmt.Sprintf("%s-%d", id, i)),
			Vehicle: &gtfs.VehiclePosition{
				Vehicle: &gtfs.VehicleDescriptor{
					Id:    proto.String(id),
					Label: proto.String(t.Extra.Size + "/" + t.Extra.Danger),
				},
				Position: &gtfs.Position{
					Latitude:  proto.Float32(float32(t.Position.Lat)),
					Longitude: proto.Float32(float32(t.Position.Lng)),
				},
				Timestamp: proto.Uint64(uint64(t.TrackAt)),
			},
		})
	}
	return feed
}

func marshalGtfsRt(tracks []Track, now time.Time) ([]byte, error) {
	return proto.Marshal(gtfsRtFeed(tracks, now))
}

// gtfsRtEncoder keeps the wrapped encoder for scripted steps and sends track
// batches as binary GTFS-RT frames.
type gtfsRtEncoder struct {
	Encoder
}

func (gtfsRtEncoder) EncodeTracks(tracks []Track) (Frame, error) {
	data, err := marshalGtfsRt(tracks, time.Now())
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: websocket.BinaryMessage, Data: data}, nil
}

// GtfsRtTrackSource replays live vehicle positions from a GTFS-RT feed as tracks.
// Vehicles outside the bounds are skipped; altitude and extras are sampled.
type GtfsRtTrackSource struct {
	url        string
	httpClient *http.Client
	sampler    *TrackSampler
}

func NewGtfsRtTrackSource(url string, timeout time.Duration, sampler *TrackSampler) *GtfsRtTrackSource {
	return &GtfsRtTrackSource{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		sampler:    sampler,
	}
}

func (s *GtfsRtTrackSource) fetch(ctx context.Context) (*gtfs.FeedMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gtfs-rt http status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var feed gtfs.FeedMessage
	if err := proto.Unmarshal(body, &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}

// Tracks returns at most n tracks, or all in-bounds vehicles when n <= 0.
func (s *GtfsRtTrackSource) Tracks(ctx context.Context, n int) ([]Track, error) {
	feed, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	tracks := make([]Track, 0, len(feed.Entity))
	for _, ent := range feed.Entity {
		if n > 0 && len(tracks) >= n {
			break
		}
		if ent == nil || ent.Vehicle == nil {
			continue
		}
		vp := ent.Vehicle
		if vp.Vehicle == nil || vp.Position == nil {
			continue
		}
		id := vp.Vehicle.GetId()
		if id == "" || vp.Position.Latitude == nil || vp.Position.Longitude == nil {
			continue
		}
		pos := LngLat{Lng: float64(vp.Position.GetLongitude()), Lat: float64(vp.Position.GetLatitude())}
		if !s.sampler.bounds.Contains(pos) {
			continue
		}
		t := s.sampler.Sample()
		t.ID = s.trackID(id)
		t.Position = pos
		if ts := vp.GetTimestamp(); ts != 0 {
			t.TrackAt = int64(ts)
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// trackID maps a feed vehicle id onto [1, maxID] so the UI keeps one line per vehicle.
func (s *GtfsRtTrackSource) trackID(vehicleID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(vehicleID))
	maxID := s.sampler.maxID
	if maxID < 1 {
		maxID = 1
	}
	return 1 + int(h.Sum32()%uint32(maxID))
}
