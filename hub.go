package main

import (
	"encoding/json"
	"log"
)

// delivery targets either a single session (Client set) or every live
// session of one user (UserID set).
type delivery struct {
	client *Client
	userID string
	frame  []byte
}

type presenceQuery struct {
	userID string
	reply  chan bool
}

// Hub owns all presence state. It is the single writer of the
// user-to-connections map; sessions and HTTP handlers talk to it only
// through its channels, so register/unregister for the same user are
// always serialized.
type Hub struct {
	// userID -> live connections for that user. A user is online iff
	// its entry exists (entries are never left empty).
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	presence   chan presenceQuery
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 64),
		presence:   make(chan presenceQuery),
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			conns := h.clients[client.userID]
			if conns == nil {
				conns = make(map[*Client]bool)
				h.clients[client.userID] = conns
			}
			wasOffline := len(conns) == 0
			conns[client] = true
			if wasOffline {
				h.broadcastFrame(mustMarshal(&serverEvent{
					Event: evOnlineStatus,
					Data:  onlineStatus{UserID: client.userID, IsOnline: true},
				}))
			}

		case client := <-h.unregister:
			conns, ok := h.clients[client.userID]
			if !ok || !conns[client] {
				// Already removed (e.g. dropped for being slow).
				continue
			}
			delete(conns, client)
			close(client.send)
			if len(conns) == 0 {
				delete(h.clients, client.userID)
				h.broadcastFrame(mustMarshal(&serverEvent{
					Event: evOnlineStatus,
					Data:  onlineStatus{UserID: client.userID, IsOnline: false},
				}))
			}

		case d := <-h.deliver:
			if d.client != nil {
				// Targeted at one session: drop silently if it is no
				// longer registered (closed mid-operation).
				if conns, ok := h.clients[d.client.userID]; ok && conns[d.client] {
					h.send(d.client, d.frame)
				}
				continue
			}
			for client := range h.clients[d.userID] {
				h.send(client, d.frame)
			}

		case q := <-h.presence:
			_, online := h.clients[q.userID]
			q.reply <- online
		}
	}
}

func (h *Hub) broadcastFrame(frame []byte) {
	for _, conns := range h.clients {
		for client := range conns {
			h.send(client, frame)
		}
	}
}

// send queues a frame without ever blocking the hub. A client whose
// buffer is full is dropped; its readPump will issue the unregister.
func (h *Hub) send(client *Client, frame []byte) {
	select {
	case client.send <- frame:
	default:
		delete(h.clients[client.userID], client)
		if len(h.clients[client.userID]) == 0 {
			delete(h.clients, client.userID)
			h.broadcastFrame(mustMarshal(&serverEvent{
				Event: evOnlineStatus,
				Data:  onlineStatus{UserID: client.userID, IsOnline: false},
			}))
		}
		close(client.send)
	}
}

// sendToUser delivers an event to every live connection of a user.
// Best-effort: no connections means no-op.
func (h *Hub) sendToUser(userID string, ev *serverEvent) {
	h.deliver <- delivery{userID: userID, frame: mustMarshal(ev)}
}

// sendToClient delivers an event to a single session, provided it is
// still registered when the hub picks the delivery up.
func (h *Hub) sendToClient(client *Client, ev *serverEvent) {
	h.deliver <- delivery{client: client, frame: mustMarshal(ev)}
}

// isOnline reports whether the user has at least one live connection.
func (h *Hub) isOnline(userID string) bool {
	reply := make(chan bool, 1)
	h.presence <- presenceQuery{userID: userID, reply: reply}
	return <-reply
}

func mustMarshal(ev *serverEvent) []byte {
	frame, err := json.Marshal(ev)
	if err != nil {
		// Outbound payloads are plain structs; this cannot fail for
		// well-formed events.
		log.Printf("hub: marshal %s: %v", ev.Event, err)
		return []byte(`{}`)
	}
	return frame
}
