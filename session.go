package main

import (
	"context"
	"log"
	"time"
)

// frameWriter is the write half of a websocket connection.
type frameWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// session plays the script to one client and then streams track batches
// until the client goes away or ctx is cancelled.
type session struct {
	id       string
	script   Script
	source   TrackSource
	encoder  Encoder
	batch    int
	interval time.Duration
	metrics  *feedMetrics
}

func (s *session) run(ctx context.Context, w frameWriter) error {
	for _, step := range s.script.Steps {
		f, err := s.encoder.EncodeStep(step)
		if err != nil {
			// a step that cannot be rendered is skipped, the rest of the script still plays
			log.Printf("[%s] encode %s: %v", s.id, step.Command, err)
		} else if err := s.send(w, f, "step", 0); err != nil {
			return err
		}
		if !sleep(ctx, step.Delay) {
			return ctx.Err()
		}
	}
	log.Printf("[%s] script done (%d steps), streaming tracks every %s", s.id, len(s.script.Steps), s.interval)

	t := time.NewTimer(0)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := s.tick(ctx, w); err != nil {
				return err
			}
			t.Reset(s.interval)
		}
	}
}

func (s *session) tick(ctx context.Context, w frameWriter) error {
	tracks, err := s.source.Tracks(ctx, s.batch)
	if err != nil {
		log.Printf("[%s] track source error: %v", s.id, err)
		s.metrics.sourceFailed()
		tracks = nil
	}
	f, err := s.encoder.EncodeTracks(tracks)
	if err != nil {
		log.Printf("[%s] encode tracks: %v", s.id, err)
		return nil
	}
	return s.send(w, f, "tracks", len(tracks))
}

func (s *session) send(w frameWriter, f Frame, kind string, tracks int) error {
	if err := w.WriteMessage(f.Type, f.Data); err != nil {
		s.metrics.sendFailed()
		return err
	}
	s.metrics.frameSent(kind, tracks)
	return nil
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
