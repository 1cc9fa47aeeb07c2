package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveRequest is the incoming WebSocket message format.
type liveRequest struct {
	Type    string          `json:"type"` // intent name
	ID      string          `json:"id"`   // echoed back for correlation
	Payload json.RawMessage `json:"payload"`
}

// liveResponse is the outgoing WebSocket message format.
type liveResponse struct {
	Type    string `json:"type"` // "result" or "error"
	ID      string `json:"id"`
	Intent  string `json:"intent,omitempty"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

// liveConn serializes writes; requests on one socket resolve concurrently.
type liveConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *liveConn) send(resp liveResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(resp)
}

func (res *Resolver) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		res.logger.Warn("live: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	lc := &liveConn{conn: conn}
	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				res.logger.Warn("live: websocket read failed", "error", err)
			}
			return
		}

		var req liveRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			res.sendLive(lc, liveResponse{Type: "error", Error: "validation", Message: "invalid message format"})
			continue
		}
		intent, ok := ParseIntent(req.Type)
		if !ok {
			res.sendLive(lc, liveResponse{Type: "error", ID: req.ID, Error: "validation", Field: "type", Message: "unknown message type: " + req.Type})
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := res.Dispatch(ctx, intent, req.Payload)
			if err != nil {
				_, eb := Classify(err)
				res.sendLive(lc, liveResponse{Type: "error", ID: req.ID, Intent: string(intent), Error: eb.Error, Field: eb.Field, Message: eb.Message})
				return
			}
			res.sendLive(lc, liveResponse{Type: "result", ID: req.ID, Intent: string(intent), Payload: out})
		}()
	}
}

func (res *Resolver) sendLive(lc *liveConn, resp liveResponse) {
	if err := lc.send(resp); err != nil {
		res.logger.Warn("live: websocket write failed", "error", err)
	}
}
