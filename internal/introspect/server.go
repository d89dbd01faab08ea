// Package introspect serves a live build-progress feed over a websocket:
// every phase event the domain builder emits is broadcast, in order, to
// every currently-connected subscriber. It is a one-way fan-out, not a
// bidirectional protocol, since nothing a build's spectator sends back
// changes the build.
package introspect

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Server accepts websocket subscribers on Handler and fans out whatever
// is passed to Broadcast.
type Server struct {
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	out chan []byte
}

// NewServer returns a Server ready to accept connections. CheckOrigin is
// left permissive: this is a local diagnostics feed, not a public
// endpoint.
func NewServer() *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subs: make(map[*subscriber]struct{}),
	}
}

// Handler upgrades the connection, registers it as a subscriber for the
// life of the socket, and drains whatever Broadcast sends into it.
func (s *Server) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sub := &subscriber{out: make(chan []byte, 256)}
		s.register(sub)
		defer s.unregister(sub)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case b, ok := <-sub.out:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}
	}
}

func (s *Server) register(sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub] = struct{}{}
}

func (s *Server) unregister(sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub]; ok {
		delete(s.subs, sub)
		close(sub.out)
	}
}

// Broadcast marshals v to JSON and pushes it to every connected
// subscriber, dropping it for any subscriber whose buffer is full
// rather than blocking the build on a slow reader.
func (s *Server) Broadcast(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		select {
		case sub.out <- b:
		default:
		}
	}
	return nil
}

// SubscriberCount reports how many sockets are currently attached.
func (s *Server) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
