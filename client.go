package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"chatwire/backend/store/message"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size.
	maxMessageSize = 16 * 1024

	// Outbound buffer per connection.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is one authenticated websocket session. It lives from a
// successful token validation until the transport closes.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	messages message.Store

	userID string
	send   chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn, messages message.Store, userID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		messages: messages,
		userID:   userID,
		send:     make(chan []byte, sendBufferSize),
	}
}

// serveWs authenticates the handshake and, on success, registers the
// session and starts its pumps. A bad token refuses the connection
// before the upgrade; no session state is created.
func serveWs(hub *Hub, verifier tokenVerifier, messages message.Store, w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}
	}
	if token == "" {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	claims, err := verifier.ValidateToken(token)
	if err != nil {
		http.Error(w, "Authentication error", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	client := newClient(hub, conn, messages, claims.UserID)
	hub.register <- client

	log.Printf("client connected: %s", client.userID)

	go client.writePump()
	go client.readPump()
}

// readPump reads inbound frames and dispatches them in arrival order.
// On any exit path it unregisters exactly once, which is what flips the
// user offline when this was its last connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
		log.Printf("client disconnected: %s", c.userID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("client %s read error: %v", c.userID, err)
			}
			return
		}
		c.dispatch(raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch decodes one inbound frame and runs its handler. Handler
// errors never terminate the session; they are reported back to this
// session only.
func (c *Client) dispatch(raw []byte) {
	var ev clientEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.sendError(evMessageError, errKindValidation, "malformed event payload", "")
		return
	}

	switch ev.Event {
	case evSendMessage:
		var req sendMessageReq
		if err := json.Unmarshal(ev.Data, &req); err != nil {
			c.sendError(evMessageError, errKindValidation, "malformed event payload", "")
			return
		}
		c.handleSendMessage(req)

	case evEditMessage:
		var req editMessageReq
		if err := json.Unmarshal(ev.Data, &req); err != nil {
			c.sendError(evEditError, errKindValidation, "malformed event payload", "")
			return
		}
		c.handleEditMessage(req)

	case evDeleteMessage:
		var req deleteMessageReq
		if err := json.Unmarshal(ev.Data, &req); err != nil {
			c.sendError(evDeleteError, errKindValidation, "malformed event payload", "")
			return
		}
		c.handleDeleteMessage(req)

	case evTyping, evStopTyping:
		var req typingReq
		if err := json.Unmarshal(ev.Data, &req); err != nil {
			return
		}
		c.handleTyping(req, ev.Event == evTyping)

	default:
		c.sendError(evMessageError, errKindValidation, "unknown event: "+ev.Event, "")
	}
}

func (c *Client) handleSendMessage(req sendMessageReq) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		c.sendError(evMessageError, errKindValidation, "message content cannot be empty", "")
		return
	}

	msg := &message.Message{
		SenderID:       c.userID,
		ReceiverID:     req.ReceiverID,
		ConversationID: message.ConversationID(c.userID, req.ReceiverID),
		Content:        content,
	}

	if err := c.messages.Create(context.Background(), msg); err != nil {
		log.Printf("create message for %s failed: %v", c.userID, err)
		c.sendError(evMessageError, errKindStore, "failed to send message", "")
		return
	}

	// Receiver may be offline; delivering to zero connections is a
	// no-op and the message stays stored for later retrieval.
	c.hub.sendToUser(msg.ReceiverID, &serverEvent{Event: evPrivateMessage, Data: msg})
	c.hub.sendToClient(c, &serverEvent{Event: evPrivateMessageSent, Data: msg})
}

func (c *Client) handleEditMessage(req editMessageReq) {
	content := strings.TrimSpace(req.NewContent)
	if content == "" {
		c.sendError(evEditError, errKindValidation, "message content cannot be empty", req.MessageID)
		return
	}

	msg, ok := c.loadOwnMessage(evEditError, req.MessageID)
	if !ok {
		return
	}

	updated, err := c.messages.UpdateContent(context.Background(), req.MessageID, content)
	if err != nil {
		log.Printf("edit message %s failed: %v", req.MessageID, err)
		c.sendError(evEditError, errKindStore, "failed to edit message", req.MessageID)
		return
	}

	log.Printf("message edited - id: %s, user: %s", req.MessageID, c.userID)

	ev := &serverEvent{Event: evMessageUpdated, Data: updated}
	c.hub.sendToUser(msg.SenderID, ev)
	c.hub.sendToUser(msg.ReceiverID, ev)
}

func (c *Client) handleDeleteMessage(req deleteMessageReq) {
	msg, ok := c.loadOwnMessage(evDeleteError, req.MessageID)
	if !ok {
		return
	}

	if err := c.messages.Delete(context.Background(), req.MessageID); err != nil {
		if errors.Is(err, message.ErrMessageNotFound) {
			c.sendError(evDeleteError, errKindNotFound, "message not found", req.MessageID)
			return
		}
		log.Printf("delete message %s failed: %v", req.MessageID, err)
		c.sendError(evDeleteError, errKindStore, "failed to delete message", req.MessageID)
		return
	}

	log.Printf("message deleted - id: %s, user: %s", req.MessageID, c.userID)

	ev := &serverEvent{Event: evMessageDeleted, Data: messageDeleted{MessageID: req.MessageID}}
	c.hub.sendToUser(msg.SenderID, ev)
	c.hub.sendToUser(msg.ReceiverID, ev)
}

// handleTyping forwards an ephemeral typing signal. Nothing is stored
// and nothing is queued for offline receivers.
func (c *Client) handleTyping(req typingReq, isTyping bool) {
	c.hub.sendToUser(req.ReceiverID, &serverEvent{
		Event: evTypingNotice,
		Data:  typingNotice{SenderID: c.userID, IsTyping: isTyping},
	})
}

// loadOwnMessage fetches a message and checks that this session's user
// is its sender. Failures are reported on errEvent and (nil, false) is
// returned.
func (c *Client) loadOwnMessage(errEvent, messageID string) (*message.Message, bool) {
	msg, err := c.messages.Get(context.Background(), messageID)
	if err != nil {
		if errors.Is(err, message.ErrMessageNotFound) {
			c.sendError(errEvent, errKindNotFound, "message not found", messageID)
		} else {
			log.Printf("get message %s failed: %v", messageID, err)
			c.sendError(errEvent, errKindStore, "failed to load message", messageID)
		}
		return nil, false
	}
	if msg.SenderID != c.userID {
		c.sendError(errEvent, errKindUnauthorized, "not authorized to modify this message", messageID)
		return nil, false
	}
	return msg, true
}

// sendError reports a handler failure to this session only. Errors are
// never broadcast.
func (c *Client) sendError(event, kind, errMsg, messageID string) {
	c.hub.sendToClient(c, &serverEvent{
		Event: event,
		Data:  eventError{Error: errMsg, Kind: kind, MessageID: messageID},
	})
}
