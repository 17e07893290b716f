package sim

import (
	"context"
	"errors"
	"log"
	"net"
	"strings"
	"sync"
	"time"
)

// Server writes generated SBS-1 lines to every connected TCP client, the
// way dump1090 serves port 30003.
type Server struct {
	Interval time.Duration
	Lines    func(now time.Time) []string

	mu      sync.Mutex
	clients map[net.Conn]struct{}
}

// Serve accepts clients on ln and broadcasts until ctx is done. It closes
// ln and every client before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.Lines == nil {
		return errors.New("sim server: Lines is nil")
	}
	interval := s.Interval
	if interval <= 0 {
		interval = time.Second
	}

	s.mu.Lock()
	s.clients = make(map[net.Conn]struct{})
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		tk := time.NewTicker(interval)
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-tk.C:
				s.Send(s.Lines(now))
			}
		}
	}()

	var err error
	for {
		conn, aerr := ln.Accept()
		if aerr != nil {
			if ctx.Err() == nil {
				err = aerr
			}
			break
		}
		log.Printf("sim client connected remote=%s", conn.RemoteAddr())
		s.mu.Lock()
		s.clients[conn] = struct{}{}
		s.mu.Unlock()
	}

	_ = ln.Close()
	wg.Wait()
	s.mu.Lock()
	for c := range s.clients {
		_ = c.Close()
	}
	s.clients = nil
	s.mu.Unlock()
	return err
}

// Send writes lines to every client, dropping clients whose write fails.
func (s *Server) Send(lines []string) {
	if len(lines) == 0 {
		return
	}
	payload := []byte(strings.Join(lines, "\r\n") + "\r\n")

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		_ = c.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if _, err := c.Write(payload); err != nil {
			log.Printf("sim client dropped remote=%s err=%v", c.RemoteAddr(), err)
			_ = c.Close()
			delete(s.clients, c)
		}
	}
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
