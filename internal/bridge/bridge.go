// Package bridge maintains the TCP connection to the chat bridge: a socket
// that relays server chat lines to us and forwards our commands upstream.
package bridge

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"claimpoints/internal/log"
	"claimpoints/internal/streaming"
)

// ErrNotConnected is returned when a command is sent with no active bridge
// connection.
var ErrNotConnected = errors.New("not connected to chat bridge")

// Bridge is the line source: it reads raw chat data from the socket and
// pushes it into the streaming pipeline.
type Bridge struct {
	mu       sync.Mutex
	conn     net.Conn
	pipeline *streaming.Pipeline
	wg       sync.WaitGroup

	onDisconnect func(err error)
}

// New creates a bridge feeding the given pipeline.
func New(pipeline *streaming.Pipeline) *Bridge {
	return &Bridge{pipeline: pipeline}
}

// SetDisconnectHandler registers a callback fired when the read loop ends.
func (b *Bridge) SetDisconnectHandler(fn func(err error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onDisconnect = fn
}

// Connect dials the bridge address and starts the read loop.
func (b *Bridge) Connect(address string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		return fmt.Errorf("already connected to %s", b.conn.RemoteAddr())
	}

	conn, err := net.DialTimeout("tcp", address, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to chat bridge %s: %w", address, err)
	}

	b.conn = conn
	log.Info("Connected to chat bridge", "address", address)

	b.wg.Add(1)
	go b.readLoop(conn)
	return nil
}

// Connected reports whether the bridge socket is up.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// SendCommand forwards a server command (e.g. "claimlist") upstream.
func (b *Bridge) SendCommand(cmd string) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	log.LogChatLine(">>", cmd)
	if _, err := fmt.Fprintf(conn, "%s\n", cmd); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	return nil
}

// Disconnect closes the socket and waits for the read loop to finish.
func (b *Bridge) Disconnect() {
	b.mu.Lock()
	conn := b.conn
	b.conn = nil
	b.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	b.wg.Wait()
}

func (b *Bridge) readLoop(conn net.Conn) {
	defer b.wg.Done()

	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			b.pipeline.Write(buf[:n])
		}
		if err != nil {
			b.mu.Lock()
			stillCurrent := b.conn == conn
			if stillCurrent {
				b.conn = nil
			}
			handler := b.onDisconnect
			b.mu.Unlock()

			if stillCurrent {
				log.Warn("Chat bridge disconnected", "error", err)
				if handler != nil {
					handler(err)
				}
			}
			return
		}
	}
}
