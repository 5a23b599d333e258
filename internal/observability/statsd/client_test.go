package statsd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listenUDP starts a local UDP listener and returns received lines on a channel.
func listenUDP(t *testing.T) (string, chan string) {
	t.Helper()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	lines := make(chan string, 16)
	go func() {
		buf := make([]byte, 1024)
		for {
			n, _, readErr := conn.ReadFrom(buf)
			if readErr != nil {
				return
			}
			lines <- string(buf[:n])
		}
	}()
	return conn.LocalAddr().String(), lines
}

func recvLine(t *testing.T, lines chan string) string {
	t.Helper()
	select {
	case line := <-lines:
		return line
	case <-time.After(2 * time.Second):
		t.Fatal("no metric received")
		return ""
	}
}

func TestClient_Count(t *testing.T) {
	addr, lines := listenUDP(t)

	client, err := NewClient(Config{Enabled: true, Address: addr, Prefix: "hub."})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	client.Count("auth.login", 1, map[string]string{"outcome": "success", "area": "admin"})

	// Tag keys are sorted so output is deterministic.
	assert.Equal(t, "hub.auth.login:1|c|#area:admin,outcome:success", recvLine(t, lines))
}

func TestClient_Timing(t *testing.T) {
	addr, lines := listenUDP(t)

	client, err := NewClient(Config{Enabled: true, Address: addr})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	client.Timing("auth.exchange", 1500*time.Millisecond, nil)

	assert.Equal(t, "auth.exchange:1500|ms", recvLine(t, lines))
}

func TestClient_DisabledAndNilAreSafe(t *testing.T) {
	client, err := NewClient(Config{Enabled: false, Address: "ignored:8125"})
	require.NoError(t, err)

	client.Count("auth.login", 1, nil)
	client.Timing("auth.exchange", time.Second, nil)
	assert.NoError(t, client.Close())

	var nilClient *Client
	nilClient.Count("auth.login", 1, nil)
	nilClient.Timing("auth.exchange", time.Second, nil)
	assert.NoError(t, nilClient.Close())
}

func TestClient_EmptyNameDropped(t *testing.T) {
	addr, lines := listenUDP(t)

	client, err := NewClient(Config{Enabled: true, Address: addr})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	client.Count("   ", 1, nil)
	client.Count("ok", 1, nil)

	assert.Equal(t, "ok:1|c", recvLine(t, lines), "blank metric names are dropped")
}
