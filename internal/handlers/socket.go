package handlers

import (
	"time"

	"github.com/gorilla/websocket"
)

// WatchClose drains incoming frames so pongs and close frames are
// processed. The returned channel is closed once the peer goes away or
// misses pongs for longer than pongWait.
func WatchClose(conn *websocket.Conn, pongWait time.Duration) <-chan struct{} {
	done := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
	return done
}
