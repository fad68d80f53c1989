// Package control exposes start, stop and status of a running sender over a
// local socket: a named pipe on Windows, a unix socket elsewhere.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/breeze-rmm/spout2media/internal/capture"
	"github.com/breeze-rmm/spout2media/internal/health"
	"github.com/breeze-rmm/spout2media/internal/logging"
)

var log = logging.L("control")

const defaultIdleTimeout = 5 * time.Minute

// Capture is the part of capture.Controller the server drives.
type Capture interface {
	Start() error
	Stop()
	SetOutput(capture.Output) error
	Output() capture.Output
	State() capture.State
	Stats() capture.Stats
}

// SenderLister reads the machine-wide sender namespace.
type SenderLister interface {
	Senders() ([]string, error)
	ActiveSender() (string, error)
}

// Server answers control requests, one goroutine per connection.
type Server struct {
	path        string
	capture     Capture
	senders     SenderLister
	health      *health.Monitor
	idleTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	conns    map[*Conn]struct{}
	closed   bool
}

// NewServer returns a server for path. senders and mon may be nil.
func NewServer(path string, c Capture, senders SenderLister, mon *health.Monitor) *Server {
	return &Server{
		path:        path,
		capture:     c,
		senders:     senders,
		health:      mon,
		idleTimeout: defaultIdleTimeout,
		conns:       make(map[*Conn]struct{}),
	}
}

// Listen opens the platform socket and serves until ctx is done.
func (s *Server) Listen(ctx context.Context) error {
	l, err := listen(s.path)
	if err != nil {
		return fmt.Errorf("control: %w", err)
	}
	log.Info("control listening", "path", s.path)
	return s.Serve(ctx, l)
}

// Serve accepts connections on l until ctx is done, then closes.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		l.Close()
		return net.ErrClosed
	}
	s.listener = l
	s.mu.Unlock()

	go func() {
		for {
			raw, err := l.Accept()
			if err != nil {
				if s.isClosed() {
					return
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				log.Warn("accept error", logging.KeyError, err)
				continue
			}
			go s.handleConnection(raw)
		}
	}()

	<-ctx.Done()
	s.Close()
	return nil
}

// Close stops accepting and drops open connections.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conns := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	l := s.listener
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	if l != nil {
		l.Close()
	}
	if runtime.GOOS != "windows" && s.path != "" {
		os.Remove(s.path)
	}
	log.Info("control closed")
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) handleConnection(raw net.Conn) {
	conn := NewConn(raw)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		conn.SetDeadline(time.Now().Add(s.idleTimeout))
		env, err := conn.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) && !s.isClosed() {
				log.Debug("control connection ended", logging.KeyError, err)
			}
			return
		}
		payload, err := s.dispatch(env)
		if err != nil {
			err = conn.SendError(env.ID, env.Type, err.Error())
		} else {
			err = conn.SendTyped(env.ID, env.Type, payload)
		}
		if err != nil {
			log.Warn("control reply failed", logging.KeyError, err)
			return
		}
	}
}

func (s *Server) dispatch(env *Envelope) (any, error) {
	switch env.Type {
	case TypeStart:
		if err := s.capture.Start(); err != nil {
			return nil, err
		}
		return s.status(), nil
	case TypeStop:
		s.capture.Stop()
		return s.status(), nil
	case TypeStatus:
		return s.status(), nil
	case TypeSetOutput:
		var req SetOutputRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return nil, fmt.Errorf("invalid set_output payload: %w", err)
		}
		if err := s.capture.SetOutput(capture.Output{SenderName: req.SenderName}); err != nil {
			return nil, err
		}
		return s.status(), nil
	case TypeSenders:
		if s.senders == nil {
			return nil, errors.New("sender namespace unavailable")
		}
		names, err := s.senders.Senders()
		if err != nil {
			return nil, err
		}
		active, err := s.senders.ActiveSender()
		if err != nil {
			return nil, err
		}
		return SenderList{Active: active, Senders: names}, nil
	default:
		return nil, fmt.Errorf("unknown request type %q", env.Type)
	}
}

func (s *Server) status() Status {
	st := s.capture.Stats()
	out := Status{
		State:         s.capture.State().String(),
		SenderName:    s.capture.Output().SenderName,
		Constructions: st.Constructions,
		Destructions:  st.Destructions,
		Published:     st.Published,
		Dropped:       st.Dropped,
		InitFailures:  st.InitFailures,
	}
	if s.health != nil {
		out.Health = string(s.health.Overall())
		out.Checks = s.health.All()
	}
	return out
}
