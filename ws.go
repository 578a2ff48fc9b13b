package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// feedServer holds what every connection needs to start its own session.
// Nothing in it is mutated after startup.
type feedServer struct {
	script       Script
	encoder      Encoder
	newSource    func() TrackSource
	batch        int
	interval     time.Duration
	writeTimeout time.Duration
	metrics      *feedMetrics
	// ctx ends all sessions on shutdown.
	ctx context.Context
}

func (fs *feedServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	id := uuid.New().String()[:8]
	log.Printf("[%s] client connected from %s", id, r.RemoteAddr)
	fs.metrics.connOpened()

	base := fs.ctx
	if base == nil {
		base = context.Background()
	}
	ctx, cancel := context.WithCancel(base)
	go readPump(conn, cancel)

	s := &session{
		id:       id,
		script:   fs.script,
		source:   fs.newSource(),
		encoder:  fs.encoder,
		batch:    fs.batch,
		interval: fs.interval,
		metrics:  fs.metrics,
	}
	go func() {
		defer func() {
			cancel()
			_ = conn.Close()
			fs.metrics.connClosed()
		}()
		err := s.run(ctx, &deadlineWriter{conn: conn, timeout: fs.writeTimeout})
		switch {
		case errors.Is(err, context.Canceled):
			log.Printf("[%s] session ended", id)
		case err != nil:
			log.Printf("[%s] session ended: %v", id, err)
		}
	}()
}

// readPump drains the connection so close frames are processed and cancels
// the session once the peer is gone.
func readPump(c *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

type deadlineWriter struct {
	conn    *websocket.Conn
	timeout time.Duration
}

func (d *deadlineWriter) WriteMessage(messageType int, data []byte) error {
	if d.timeout > 0 {
		if err := d.conn.SetWriteDeadline(time.Now().Add(d.timeout)); err != nil {
			return err
		}
	}
	return d.conn.WriteMessage(messageType, data)
}
