package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/rigidlab/internal/config"
	"github.com/san-kum/rigidlab/internal/events"
	"github.com/san-kum/rigidlab/internal/world"
)

func dial(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var info InfoMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&info))
	assert.Equal(t, MessageTypeInfo, info.Type)

	require.Eventually(t, func() bool { return s.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)
	return conn
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		in      string
		kind    events.Kind
		wantErr bool
	}{
		{`{"type":"click","x":10,"y":20}`, events.Click, false},
		{`{"type":"pointer","x":1,"y":2}`, events.PointerMove, false},
		{`{"type":"resize","x":800,"y":600}`, events.Resize, false},
		{`{"type":"resize","x":0,"y":600}`, 0, true},
		{`{"type":"jump"}`, 0, true},
		{`not json`, 0, true},
	}
	for _, tt := range tests {
		e, err := ParseInput([]byte(tt.in))
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.kind, e.Kind, tt.in)
	}
}

func TestClientInputReachesBus(t *testing.T) {
	bus := events.NewBus()
	s := NewServer(bus, "picking", 1.0/60, nil)
	conn := dial(t, s)

	var mu sync.Mutex
	var got []events.Event
	sub := bus.Subscribe(events.Click, func(e events.Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})
	defer sub.Unsubscribe()

	require.NoError(t, conn.WriteJSON(InputMessage{Type: "click", X: 320, Y: 240}))

	require.Eventually(t, func() bool {
		bus.Drain()
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 320.0, got[0].X)
	assert.Equal(t, 240.0, got[0].Y)
}

func TestBadInputGetsError(t *testing.T) {
	s := NewServer(events.NewBus(), "basic", 1.0/60, nil)
	conn := dial(t, s)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"jump"}`)))

	var msg ErrorMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageTypeError, msg.Type)
	assert.Contains(t, msg.Message, "jump")
}

func TestFramesAreBroadcast(t *testing.T) {
	w, err := world.NewBuilder(nil).Build(config.GetPreset("basic"))
	require.NoError(t, err)

	s := NewServer(events.NewBus(), "basic", 1.0/60, nil)
	conn := dial(t, s)

	s.OnTick(w, 7)

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, MessageTypeFrame, raw["type"])
	assert.EqualValues(t, 7, raw["tick"])

	var msg FrameMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Len(t, msg.Entities, len(w.Entities))
	assert.Equal(t, "ground", msg.Entities[0].Name)
	assert.Equal(t, "plane", msg.Entities[0].Shape)
}

func TestLateClientGetsLastFrame(t *testing.T) {
	w, err := world.NewBuilder(nil).Build(config.GetPreset("basic"))
	require.NoError(t, err)

	s := NewServer(events.NewBus(), "basic", 1.0/60, nil)
	s.OnTick(w, 3)

	conn := dial(t, s)
	var msg FrameMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, 3, msg.Tick)
}

func TestDisconnectRemovesClient(t *testing.T) {
	s := NewServer(events.NewBus(), "basic", 1.0/60, nil)
	conn := dial(t, s)
	conn.Close()
	assert.Eventually(t, func() bool { return s.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestBroadcastDoesNotBlockOnSlowClient(t *testing.T) {
	w, err := world.NewBuilder(nil).Build(config.GetPreset("basic"))
	require.NoError(t, err)

	s := NewServer(events.NewBus(), "basic", 1.0/60, nil)
	dial(t, s)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10*sendBuffer; i++ {
			s.OnTick(w, i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked")
	}
}

func TestReadPumpStopsWhenErrorReplyFails(t *testing.T) {
	upgrader := websocket.Upgrader{}
	serverSide := make(chan *websocket.Conn, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverSide <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	dialConn := func() (*websocket.Conn, *websocket.Conn) {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn, <-serverSide
	}
	_, replyConn := dialConn()
	input, readConn := dialConn()
	t.Cleanup(func() { readConn.Close() })

	// replies go to a connection that is already closed
	c := &client{w: NewSafeWriter(replyConn), send: make(chan []byte, 1), done: make(chan struct{})}
	require.NoError(t, c.w.Close())

	s := NewServer(events.NewBus(), "picking", 1.0/60, nil)
	stopped := make(chan struct{})
	go func() {
		s.readPump(c, readConn)
		close(stopped)
	}()

	require.NoError(t, input.WriteMessage(websocket.TextMessage, []byte(`{"type":"jump"}`)))
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("read loop kept running after the error reply failed")
	}
}
