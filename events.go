package main

import "encoding/json"

// Inbound event names (client to server).
const (
	evSendMessage   = "send-message"
	evEditMessage   = "edit-message"
	evDeleteMessage = "delete-message"
	evTyping        = "typing"
	evStopTyping    = "stop-typing"
)

// Outbound event names (server to client).
const (
	evPrivateMessage     = "private-message"
	evPrivateMessageSent = "private-message-sent"
	evMessageUpdated     = "message-updated"
	evMessageDeleted     = "message-deleted"
	evTypingNotice       = "typing"
	evOnlineStatus       = "user-online-status"
	evMessageError       = "message-error"
	evEditError          = "edit-error"
	evDeleteError        = "delete-error"
)

// Error kinds carried by error events, so clients can tell their own
// mistakes apart from server-side persistence failures.
const (
	errKindValidation   = "validation"
	errKindNotFound     = "not_found"
	errKindUnauthorized = "unauthorized"
	errKindStore        = "store"
)

// clientEvent is the envelope of an inbound frame. Data is decoded per
// event kind by the dispatcher.
type clientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// serverEvent is the envelope of an outbound frame.
type serverEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type sendMessageReq struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

type editMessageReq struct {
	MessageID  string `json:"messageId"`
	NewContent string `json:"newContent"`
	ReceiverID string `json:"receiverId"`
}

type deleteMessageReq struct {
	MessageID  string `json:"messageId"`
	ReceiverID string `json:"receiverId"`
}

type typingReq struct {
	ReceiverID string `json:"receiverId"`
}

type typingNotice struct {
	SenderID string `json:"senderId"`
	IsTyping bool   `json:"isTyping"`
}

type onlineStatus struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

type messageDeleted struct {
	MessageID string `json:"messageId"`
}

type eventError struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	MessageID string `json:"messageId,omitempty"`
}
