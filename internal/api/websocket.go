package api

import (
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"sightline/internal/game"
	"sightline/internal/wire"
)

const (
	// sendQueueLen bounds each session's outbound queue. At 30 Hz this
	// is over two seconds of backlog; a client further behind has its
	// frames dropped rather than stalling the tick.
	sendQueueLen = 64

	writeTimeout = 10 * time.Second

	// maxInboundFrame caps client frames. The largest legal frame is
	// INPUT at 17 bytes; anything bigger is garbage.
	maxInboundFrame = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  256,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || strings.HasPrefix(origin, "http://localhost") ||
			strings.HasPrefix(origin, "http://127.0.0.1") {
			return true
		}
		return IsAllowedOrigin(origin)
	},
}

// AllowedOrigins lists the non-localhost origins allowed to open
// websocket sessions. Extend when deploying behind a real hostname.
var AllowedOrigins []string

// IsAllowedOrigin checks an Origin header against the allow list.
func IsAllowedOrigin(origin string) bool {
	for _, allowed := range AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// session owns one websocket connection. It implements game.Conn: the
// engine hands it a frame per tick and the write pump drains the queue
// on its own goroutine so a slow socket never blocks the simulation.
type session struct {
	conn *websocket.Conn
	send chan []byte

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

func newSession(conn *websocket.Conn) *session {
	return &session{
		conn: conn,
		send: make(chan []byte, sendQueueLen),
		done: make(chan struct{}),
	}
}

// Send queues a frame for delivery. The engine reuses the frame buffer
// next tick, so the bytes are copied here. A full queue drops the frame
// (the next tick supersedes it anyway); only a closed session errors, so
// the engine tears it down.
func (s *session) Send(frame []byte) error {
	if s.closed.Load() {
		return websocket.ErrCloseSent
	}
	buf := make([]byte, len(frame))
	copy(buf, frame)
	select {
	case s.send <- buf:
		return nil
	default:
		framesDropped.Inc()
		return nil
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.conn.Close()
	})
}

func (s *session) writePump() {
	defer s.close()
	for {
		select {
		case <-s.done:
			return
		case frame := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
			framesSent.Inc()
			bytesSent.Add(float64(len(frame)))
		}
	}
}

// readLoop parses client frames and forwards them into the client's
// intent registers. Malformed or unknown frames are dropped and the
// connection kept, per protocol policy.
func (s *session) readLoop(client *game.Client) {
	s.conn.SetReadLimit(maxInboundFrame)
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.BinaryMessage || len(data) == 0 {
			inboundFrames.WithLabelValues("malformed").Inc()
			continue
		}

		switch data[0] {
		case wire.MsgInput:
			in, err := wire.DecodeInput(data)
			if err != nil {
				inboundFrames.WithLabelValues("malformed").Inc()
				continue
			}
			client.SetInput(game.InputState{
				MoveX: float64(in.MoveX),
				MoveZ: float64(in.MoveZ),
				Yaw:   float64(in.Yaw),
				Pitch: float64(in.Pitch),
			})
			inboundFrames.WithLabelValues("input").Inc()

		case wire.MsgShoot:
			on, err := wire.DecodeShoot(data)
			if err != nil {
				inboundFrames.WithLabelValues("malformed").Inc()
				continue
			}
			client.SetShooting(on)
			inboundFrames.WithLabelValues("shoot").Inc()

		case wire.MsgToggleMode:
			on, err := wire.DecodeToggleMode(data)
			if err != nil {
				inboundFrames.WithLabelValues("malformed").Inc()
				continue
			}
			client.SetLosMode(on)
			inboundFrames.WithLabelValues("toggle").Inc()

		default:
			inboundFrames.WithLabelValues("malformed").Inc()
		}
	}
}

// handleWS upgrades the connection, completes the CONFIG handshake and
// runs the session until the socket dies.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if int(atomic.LoadInt32(&s.sessionCount)) >= s.cfg.MaxConnections {
		recordRejection("total_limit")
		http.Error(w, "server full", http.StatusServiceUnavailable)
		return
	}
	if !s.sessionLimiter.Acquire(ip) {
		recordRejection("ip_limit")
		http.Error(w, "too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade from %s: %v", ip, err)
		s.sessionLimiter.Release(ip)
		return
	}

	atomic.AddInt32(&s.sessionCount, 1)
	wsConnectionsActive.Inc()

	sess := newSession(conn)
	go sess.writePump()

	// The static world goes out before the entity stream starts.
	if err := sess.Send(s.configFrame); err == nil {
		client := s.engine.Connect(sess)
		sess.readLoop(client)
		s.engine.Disconnect(client.ID)
	}

	sess.close()
	s.sessionLimiter.Release(ip)
	atomic.AddInt32(&s.sessionCount, -1)
	wsConnectionsActive.Dec()
}
