package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func socketServer(t *testing.T, pongWait time.Duration, closed chan<- struct{}) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		<-WatchClose(conn, pongWait)
		close(closed)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	return conn
}

func TestWatchCloseNoticesClientClose(t *testing.T) {
	closed := make(chan struct{})
	conn := dial(t, socketServer(t, time.Minute, closed))

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	conn.Close()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not notice the close frame")
	}
}

func TestWatchCloseTimesOutSilentPeer(t *testing.T) {
	closed := make(chan struct{})
	conn := dial(t, socketServer(t, 100*time.Millisecond, closed))
	defer conn.Close()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("server kept a silent peer past the pong deadline")
	}
}

func TestWatchCloseKeepsPeerThatPongs(t *testing.T) {
	closed := make(chan struct{})
	conn := dial(t, socketServer(t, 300*time.Millisecond, closed))
	defer conn.Close()

	for i := 0; i < 4; i++ {
		time.Sleep(100 * time.Millisecond)
		require.NoError(t, conn.WriteControl(websocket.PongMessage, nil, time.Now().Add(time.Second)))
	}
	select {
	case <-closed:
		t.Fatal("server dropped a peer that kept answering")
	default:
	}
}
