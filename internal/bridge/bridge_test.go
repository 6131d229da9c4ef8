package bridge

import (
	"bufio"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimpoints/internal/streaming"
)

type lineCollector struct {
	mu    sync.Mutex
	lines []string
}

func (c *lineCollector) FeedLine(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

func (c *lineCollector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func TestBridge_SendAndReceive(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	serverDone := make(chan string, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		// Echo the report once the claimlist command arrives.
		cmd, err := bufio.NewReader(conn).ReadString('\n')
		if err != nil {
			return
		}
		conn.Write([]byte("Claims:\nWorld1: x10, z20 (100 blocks)\n"))
		serverDone <- cmd
	}()

	sink := &lineCollector{}
	pipeline := streaming.NewPipeline("utf8", sink, nil)
	pipeline.Start()
	defer pipeline.Stop()

	b := New(pipeline)
	require.NoError(t, b.Connect(listener.Addr().String()))
	defer b.Disconnect()

	assert.True(t, b.Connected())
	require.NoError(t, b.SendCommand("claimlist World1"))

	select {
	case cmd := <-serverDone:
		assert.Equal(t, "claimlist World1\n", cmd)
	case <-time.After(time.Second):
		t.Fatal("server never received the command")
	}

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"Claims:", "World1: x10, z20 (100 blocks)"}, sink.snapshot())
}

func TestBridge_SendWithoutConnection(t *testing.T) {
	b := New(streaming.NewPipeline("utf8", nil, nil))

	assert.False(t, b.Connected())
	assert.ErrorIs(t, b.SendCommand("claimlist"), ErrNotConnected)
}

func TestBridge_DisconnectHandlerFires(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	pipeline := streaming.NewPipeline("utf8", nil, nil)
	pipeline.Start()
	defer pipeline.Stop()

	b := New(pipeline)
	dropped := make(chan struct{})
	b.SetDisconnectHandler(func(err error) { close(dropped) })

	require.NoError(t, b.Connect(listener.Addr().String()))

	select {
	case conn := <-accepted:
		conn.Close()
	case <-time.After(time.Second):
		t.Fatal("server never accepted")
	}

	select {
	case <-dropped:
	case <-time.After(time.Second):
		t.Fatal("disconnect handler never fired")
	}
	assert.False(t, b.Connected())
}

func TestBridge_ConnectTwice(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	pipeline := streaming.NewPipeline("utf8", nil, nil)
	pipeline.Start()
	defer pipeline.Stop()

	b := New(pipeline)
	require.NoError(t, b.Connect(listener.Addr().String()))
	defer b.Disconnect()

	assert.Error(t, b.Connect(listener.Addr().String()))
}
