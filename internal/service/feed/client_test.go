package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedServer(t *testing.T, subscribed chan<- string) *httptest.Server {
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var sub map[string]string
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		subscribed <- sub["asset_id"]
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"heartbeat"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(
			`{"type":"sample","data":[{"asset_id":"mangrove","ts":1704067200000,"price":21.5,"volume":300},`+
				`{"asset_id":"mangrove","ts":1704067260000,"price":21.7,"volume":120}]}`))
		time.Sleep(200 * time.Millisecond)
	}))
}

func TestClientStreamsSamples(t *testing.T) {
	subscribed := make(chan string, 1)
	srv := feedServer(t, subscribed)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c := New("ws"+strings.TrimPrefix(srv.URL, "http"), []string{"mangrove"}, WithPingInterval(0))
	require.NoError(t, c.Connect(ctx))
	require.NoError(t, c.Subscribe(ctx))
	assert.Equal(t, "mangrove", <-subscribed)

	out, _ := c.Read(ctx)
	first := <-out
	second := <-out
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, "mangrove", first.AssetID)
	assert.Equal(t, 21.5, first.Price)
	assert.Equal(t, time.UnixMilli(1704067200000).UTC(), first.Timestamp)
	assert.True(t, second.Timestamp.After(first.Timestamp))

	cancel()
	assert.NoError(t, c.Close())
	assert.False(t, c.IsConnected())
}

func TestReadWithoutConnection(t *testing.T) {
	c := New("ws://127.0.0.1:1", nil)
	out, errs := c.Read(context.Background())
	assert.Error(t, <-errs)
	_, ok := <-out
	assert.False(t, ok)
}
