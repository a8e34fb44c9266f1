package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"refurbstock/internal/logger"
	"refurbstock/internal/permission"
	"refurbstock/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	sessions map[string]*service.Identity
}

func (s stubAuth) Authenticate(ctx context.Context, username, password string) (*service.Session, error) {
	return nil, service.ErrInvalidCredentials
}

func (s stubAuth) ResolveSession(ctx context.Context, token string) (*service.Identity, error) {
	if id, ok := s.sessions[token]; ok {
		return id, nil
	}
	return nil, service.ErrInvalidOrExpiredToken
}

func startServer(t *testing.T, hub *Hub) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	viewer := permission.All(false)
	viewer[permission.Product][permission.List] = true
	auth := stubAuth{sessions: map[string]*service.Identity{
		"viewer":   {UserID: uuid.New(), Permissions: viewer, PermissionsConfigured: true},
		"stranger": {UserID: uuid.New(), Permissions: permission.All(false), PermissionsConfigured: true},
	}}

	r := gin.New()
	r.GET("/ws", ServeWs(hub, auth))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestPublishReachesClients(t *testing.T) {
	hub := runHub(t)
	url := startServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=viewer", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish("product.status", map[string]string{"serial_number": "C02X"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "product.status", got.Event)
	assert.Equal(t, "C02X", got.Data["serial_number"])
}

func TestServeWsRejects(t *testing.T) {
	hub := runHub(t)
	url := startServer(t, hub)

	_, resp, err := websocket.DefaultDialer.Dial(url+"?token=bogus", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=stranger", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

type loopbackRelay struct {
	hub  *Hub
	fail bool
	sent int
}

func (l *loopbackRelay) Publish(ctx context.Context, payload []byte) error {
	if l.fail {
		return errors.New("relay down")
	}
	l.sent++
	l.hub.localBroadcast(payload)
	return nil
}

func TestPublishThroughRelay(t *testing.T) {
	hub := runHub(t)
	relay := &loopbackRelay{hub: hub}
	hub.SetRelay(relay)
	url := startServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=viewer", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish("product.created", nil)
	relay.fail = true
	hub.Publish("product.deleted", nil)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for _, want := range []string{"product.created", "product.deleted"} {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		assert.Equal(t, want, ev.Event)
	}
	assert.Equal(t, 1, relay.sent)
}

func TestStoppedHubReleasesConnections(t *testing.T) {
	hub := NewHub(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	url := startServer(t, hub)

	live, _, err := websocket.DefaultDialer.Dial(url+"?token=viewer", nil)
	require.NoError(t, err)
	defer live.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	<-stopped
	assert.Zero(t, hub.ClientCount())

	late, _, err := websocket.DefaultDialer.Dial(url+"?token=viewer", nil)
	require.NoError(t, err)
	defer late.Close()
	for _, conn := range []*websocket.Conn{live, late} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err = conn.ReadMessage()
		require.Error(t, err)
		var netErr net.Error
		assert.False(t, errors.As(err, &netErr) && netErr.Timeout(), "connection should be closed, not left hanging")
	}
}
