package testutil

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

// RunServerOnPort creates a NATS server on the specified port, -1 picks a free one
func RunServerOnPort(port int) (*server.Server, error) {
	opts := &server.Options{
		Host:           "127.0.0.1",
		Port:           port,
		NoLog:          true,
		NoSigs:         true,
		MaxControlLine: 4096,
	}

	return server.NewServer(opts)
}

// StartNATS starts an in-process NATS server and connects to it
func StartNATS(t *testing.T) (*server.Server, *nats.Conn, func()) {
	t.Helper()

	s, err := RunServerOnPort(-1)
	require.NoError(t, err)

	go s.Start()
	if !s.ReadyForConnections(10 * time.Second) {
		t.Fatal("Unable to start NATS server")
	}

	nc, err := nats.Connect(s.ClientURL(), nats.Timeout(5*time.Second))
	require.NoError(t, err)

	cleanup := func() {
		nc.Close()
		s.Shutdown()
	}

	return s, nc, cleanup
}

// Collector gathers messages published on a subject
type Collector struct {
	sub  *nats.Subscription
	msgs chan *nats.Msg
}

// Collect subscribes to subject; the subscription is flushed before returning
func Collect(t *testing.T, nc *nats.Conn, subject string) *Collector {
	t.Helper()

	c := &Collector{msgs: make(chan *nats.Msg, 256)}
	sub, err := nc.ChanSubscribe(subject, c.msgs)
	require.NoError(t, err)
	require.NoError(t, nc.Flush())
	c.sub = sub

	t.Cleanup(func() { sub.Unsubscribe() })
	return c
}

// Wait returns the first n messages or fails the test after timeout
func (c *Collector) Wait(t *testing.T, n int, timeout time.Duration) []*nats.Msg {
	t.Helper()

	var out []*nats.Msg
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for len(out) < n {
		select {
		case msg := <-c.msgs:
			out = append(out, msg)
		case <-timer.C:
			t.Fatalf("received %d of %d messages", len(out), n)
		}
	}
	return out
}
