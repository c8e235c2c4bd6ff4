package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LiqPull/internal/domain/models"
	applogger "LiqPull/pkg/logger"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/liquidity"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	var m message
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestHubReplaysLastAndBroadcasts(t *testing.T) {
	hub := NewHub(applogger.NewNop())
	e := echo.New()
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()
	defer hub.Close()

	first := &models.AggregateResult{Summary: models.Summary{OverallSignal: models.SignalNeutral}}
	require.NoError(t, hub.PublishSnapshot(context.Background(), first))

	conn := dial(t, srv)
	m := readSnapshot(t, conn)
	assert.Equal(t, "snapshot", m.Type)
	assert.Equal(t, models.SignalNeutral, m.Data.Summary.OverallSignal)
	assert.Equal(t, 1, hub.Clients())

	second := &models.AggregateResult{Summary: models.Summary{OverallSignal: models.SignalBearish, CriticalAlert: true}}
	require.NoError(t, hub.PublishSnapshot(context.Background(), second))

	m = readSnapshot(t, conn)
	assert.Equal(t, models.SignalBearish, m.Data.Summary.OverallSignal)
	assert.True(t, m.Data.Summary.CriticalAlert)
}

func TestHubIgnoresNilSnapshot(t *testing.T) {
	hub := NewHub(applogger.NewNop())
	assert.NoError(t, hub.PublishSnapshot(context.Background(), nil))
	assert.Nil(t, hub.last)
	assert.Equal(t, "websocket", hub.Name())
}
