package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is permissive for every route
	},
}

// handlePredictStream answers every text frame with the body POST /predict
// would return for it. Bad frames get an error body; the connection stays up.
func (a *api) handlePredictStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	requestID := GetRequestID(r.Context())
	logger := a.logger.With(zap.String("request_id", requestID))
	logger.Info("websocket client connected", zap.String("remote", r.RemoteAddr))

	replies := make(chan interface{}, 16)
	done := make(chan struct{})
	go a.streamWriter(conn, replies, done, logger)

	defer func() {
		close(replies)
		<-done
		logger.Info("websocket client disconnected")
	}()

	conn.SetReadLimit(wsMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		rec, decodeErr := parseRecord(payload)
		select {
		case replies <- a.predict(requestID, rec, decodeErr):
		case <-done:
			return
		}
	}
}

// streamWriter owns all writes to conn. It exits when replies is closed or a
// write fails, closing conn and signalling done.
func (a *api) streamWriter(conn *websocket.Conn, replies <-chan interface{}, done chan<- struct{}, logger *zap.Logger) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
		close(done)
	}()

	for {
		select {
		case reply, ok := <-replies:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			payload, err := json.Marshal(reply)
			if err != nil {
				logger.Error("encode websocket reply", zap.Error(err))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Warn("websocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
