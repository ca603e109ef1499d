package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/querydesk-go/internal/model"
	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
)

func newStreamServer(t *testing.T, handle func(conn *websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/history/stream", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		handle(conn)
	})
	return httptest.NewServer(mux)
}

func TestStreamReceivesResources(t *testing.T) {
	server := newStreamServer(t, func(conn *websocket.Conn) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		assert.JSONEq(t, `{"connectionId":"c1","query":"select 1"}`, string(data))

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"q1","query":"select 1","startedAt":"2026-05-01T12:00:00Z","status":"running"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"q1","query":"select 1","startedAt":"2026-05-01T12:00:00Z","status":"success","rowCount":1}`))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(50 * time.Millisecond)
	})
	defer server.Close()

	var stages []Stage
	client, err := NewClient(server.URL+"/api", WithStreamConfig(StreamConfig{
		ReadTimeout: 5 * time.Second,
		OnError:     func(stage Stage, err error) { stages = append(stages, stage) },
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream, err := client.Subscribe(ctx, "/history/stream")
	require.NoError(t, err)
	require.NoError(t, stream.Send(ctx, &model.QueryRequest{ConnectionID: "c1", Query: "select 1"}))

	var statuses []model.QueryStatus
	for res := range stream.Recv() {
		entry, err := As[model.HistoryEntry](res)
		require.NoError(t, err)
		statuses = append(statuses, entry.Status)
	}
	assert.Equal(t, []model.QueryStatus{model.QueryRunning, model.QuerySuccess}, statuses)
	assert.NoError(t, stream.Err())
	assert.Equal(t, []Stage{StageDecode}, stages)

	assert.ErrorIs(t, stream.Send(ctx, map[string]any{"late": true}), merr.ErrTransportClosed)
}

func TestStreamClose(t *testing.T) {
	server := newStreamServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client, err := NewClient(server.URL + "/api")
	require.NoError(t, err)
	stream, err := client.Subscribe(context.Background(), "/history/stream")
	require.NoError(t, err)

	require.NoError(t, stream.Close())
	select {
	case _, ok := <-stream.Recv():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("stream was not closed")
	}
	assert.NoError(t, stream.Err())
}

func TestStreamKeepsIdleConnectionAlive(t *testing.T) {
	server := newStreamServer(t, func(conn *websocket.Conn) {
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
		time.Sleep(600 * time.Millisecond)
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"version":"1.4.0"}`))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(50 * time.Millisecond)
	})
	defer server.Close()

	client, err := NewClient(server.URL+"/api", WithStreamConfig(StreamConfig{
		ReadTimeout:  200 * time.Millisecond,
		PingInterval: 50 * time.Millisecond,
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream, err := client.Subscribe(ctx, "/history/stream")
	require.NoError(t, err)

	var received int
	for res := range stream.Recv() {
		info, err := As[model.ServerInfo](res)
		require.NoError(t, err)
		assert.Equal(t, "1.4.0", info.Version)
		received++
	}
	assert.Equal(t, 1, received)
	assert.NoError(t, stream.Err())
}

func TestStreamReadTimeoutWithoutPing(t *testing.T) {
	server := newStreamServer(t, func(conn *websocket.Conn) {
		time.Sleep(600 * time.Millisecond)
	})
	defer server.Close()

	client, err := NewClient(server.URL+"/api", WithStreamConfig(StreamConfig{
		ReadTimeout:  100 * time.Millisecond,
		PingInterval: time.Hour,
	}))
	require.NoError(t, err)

	stream, err := client.Subscribe(context.Background(), "/history/stream")
	require.NoError(t, err)
	for range stream.Recv() {
	}
	assert.ErrorIs(t, stream.Err(), merr.ErrTransportClosed)
}

func TestSubscribeDialFailure(t *testing.T) {
	client, err := NewClient("http://127.0.0.1:1/api", WithRetry(1, time.Millisecond))
	require.NoError(t, err)
	_, err = client.Subscribe(context.Background(), "/history/stream")
	assert.ErrorIs(t, err, merr.ErrTransportRequest)
}
