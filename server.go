package main

import (
	"log"
	"net/http"
	"time"
)

func registerRoutes(mux *http.ServeMux, fs *feedServer) {
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", fs.metrics.Handler())
	mux.Handle("/tracks.pb", withLogging(http.HandlerFunc(fs.handleTracksSnapshot)))

	// the UI connects to the bare host:port, keep /ws as an explicit alias
	mux.HandleFunc("/ws", fs.handleWebSocket)
	mux.HandleFunc("/", fs.handleWebSocket)
}

// handleTracksSnapshot returns one freshly sampled batch as a GTFS-RT feed.
func (fs *feedServer) handleTracksSnapshot(w http.ResponseWriter, r *http.Request) {
	tracks, err := fs.newSource().Tracks(r.Context(), fs.batch)
	if err != nil {
		fs.metrics.sourceFailed()
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	data, err := marshalGtfsRt(tracks, time.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/x-protobuf")
	_, _ = w.Write(data)
}

func withLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s", r.Method, r.URL.Path)
		h.ServeHTTP(w, r)
	})
}
