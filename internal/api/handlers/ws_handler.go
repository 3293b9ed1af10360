package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prepforge/prepforge/internal/services"
	"github.com/prepforge/prepforge/internal/utils"
)

// WSHandler ingests live transcript entries during an interview. Each frame
// appends one entry to the session; the reply acks it so clients can resend
// on silence.
type WSHandler struct {
	sessions services.SessionService
	upgrader websocket.Upgrader
}

func NewWSHandler(sessions services.SessionService) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type    string `json:"type"` // transcript_entry | end_session
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type wsServerMsg struct {
	Type    string     `json:"type"` // entry_ack | session_ended | error
	Code    utils.Code `json:"code,omitempty"`
	Message string     `json:"message,omitempty"`
	At      *time.Time `json:"at,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (h *WSHandler) SessionWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.SessionWS", "missing session_id", nil))
		return
	}

	// authorize before upgrading
	if _, err := h.sessions.Get(c.Request.Context(), sessionID, userID); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx := c.Request.Context()

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "invalid json"})
			continue
		}

		switch msg.Type {
		case "transcript_entry":
			entry, err := h.sessions.AppendEntry(ctx, sessionID, userID, msg.Speaker, msg.Text)
			if err != nil {
				code := utils.CodeInternal
				var ae *utils.AppError
				if errors.As(err, &ae) {
					code = ae.Code
				}
				_ = wc.writeJSON(wsServerMsg{Type: "error", Code: code, Message: "failed to append entry"})
				continue
			}
			_ = wc.writeJSON(wsServerMsg{Type: "entry_ack", At: &entry.Timestamp})

		case "end_session":
			if _, err := h.sessions.End(ctx, sessionID, userID); err != nil {
				_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInternal, Message: "failed to end session"})
				continue
			}
			_ = wc.writeJSON(wsServerMsg{Type: "session_ended"})
			return

		default:
			_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "unknown message type"})
		}
	}
}
