package feed

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"sync/atomic"
	"time"
)

type TCPConfig struct {
	Name string
	Addr string

	// ReconnectDelay is the fixed wait after a failed connect or a lost
	// stream.
	ReconnectDelay time.Duration
	DialTimeout    time.Duration
	// MaxLineBytes bounds one line including its terminator. Longer lines
	// are dropped and never reach the handler.
	MaxLineBytes int

	Metrics *Metrics
}

// TCPClient reads newline-delimited SBS-1 lines from one TCP endpoint and
// reconnects forever after a fixed delay.
//
// Reads carry no deadline: a peer that keeps the connection open but stops
// sending stalls this client until ctx is cancelled.
type TCPClient struct {
	cfg     TCPConfig
	handler Handler
	st      status
	running atomic.Bool
}

func NewTCPClient(cfg TCPConfig, handler Handler) (*TCPClient, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("tcp feed name is required")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, fmt.Errorf("tcp feed addr is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("tcp feed handler is nil")
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = 64 * 1024
	}
	c := &TCPClient{cfg: cfg, handler: handler}
	c.st.state = StateDisconnected
	return c, nil
}

func (c *TCPClient) Name() string { return c.cfg.Name }

// Run connects and streams until ctx is done. It only returns once ctx is
// cancelled, with a nil error.
func (c *TCPClient) Run(ctx context.Context) error {
	if c.running.Swap(true) {
		return fmt.Errorf("tcp feed %s already running", c.cfg.Name)
	}
	defer c.running.Store(false)

	dialer := &net.Dialer{Timeout: c.cfg.DialTimeout}
	for {
		if ctx.Err() != nil {
			c.st.setState(StateStopped, "")
			return nil
		}

		c.st.setState(StateConnecting, "")
		conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Addr)
		if err != nil {
			if ctx.Err() != nil {
				c.st.setState(StateStopped, "")
				return nil
			}
			c.cfg.Metrics.disconnect(c.cfg.Name)
			c.st.setState(StateDisconnected, err.Error())
			log.Printf("feed %s connect failed addr=%s: %v; retry in %s", c.cfg.Name, c.cfg.Addr, err, c.cfg.ReconnectDelay)
		} else {
			c.cfg.Metrics.connect(c.cfg.Name)
			c.st.setState(StateStreaming, "")
			log.Printf("feed %s connected addr=%s", c.cfg.Name, c.cfg.Addr)

			err = c.stream(ctx, conn)
			if ctx.Err() != nil {
				c.st.setState(StateStopped, "")
				return nil
			}
			c.cfg.Metrics.disconnect(c.cfg.Name)
			msg := ""
			if err != nil {
				msg = err.Error()
			}
			c.st.setState(StateDisconnected, msg)
			log.Printf("feed %s disconnected addr=%s: %v; reconnect in %s", c.cfg.Name, c.cfg.Addr, describeEOF(err), c.cfg.ReconnectDelay)
		}

		if !sleepCtx(ctx, c.cfg.ReconnectDelay) {
			c.st.setState(StateStopped, "")
			return nil
		}
	}
}

// stream reads lines until the connection fails or ends. A clean end of
// stream returns nil.
func (c *TCPClient) stream(ctx context.Context, conn net.Conn) error {
	defer conn.Close()
	// Unblock the read when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	// The reader buffer bounds a line. Longer input is skipped up to the
	// next newline without being buffered.
	reader := bufio.NewReaderSize(conn, c.cfg.MaxLineBytes)
	discarding := false
	for {
		line, err := reader.ReadSlice('\n')
		switch {
		case err == nil:
			if discarding {
				discarding = false
				continue
			}
			c.handleLine(line)
		case errors.Is(err, bufio.ErrBufferFull):
			if !discarding {
				discarding = true
				c.dropOversize()
			}
		case errors.Is(err, io.EOF):
			// A trailing partial line is discarded.
			return nil
		default:
			return err
		}
	}
}

func (c *TCPClient) dropOversize() {
	n := c.st.drop()
	c.cfg.Metrics.reject(c.cfg.Name, "too_long")
	if n == 1 {
		log.Printf("feed %s dropping lines longer than %d bytes", c.cfg.Name, c.cfg.MaxLineBytes)
	}
}

// handleLine passes one complete line to the handler with only the line
// terminator removed.
func (c *TCPClient) handleLine(line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(bytes.TrimSpace(line)) == 0 {
		return
	}
	err := c.handler.Ingest(c.cfg.Name, c.cfg.Name, string(line))
	c.st.seen(time.Now().UTC(), err != nil)
}

func (c *TCPClient) Snapshot() Snapshot {
	out := Snapshot{Name: c.cfg.Name, Kind: "tcp", Addr: c.cfg.Addr}
	c.st.fill(&out)
	return out
}

func describeEOF(err error) string {
	if err == nil {
		return "stream closed"
	}
	return err.Error()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
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
