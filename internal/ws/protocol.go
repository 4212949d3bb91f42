package ws

import (
	"github.com/greenroomhq/greenroom/internal/proctor"
	"github.com/greenroomhq/greenroom/internal/session"
)

type MessageType string

// Server to client.
const (
	MsgSnapshot      MessageType = "snapshot"
	MsgDelta         MessageType = "delta"
	MsgViolation     MessageType = "violation"
	MsgProctorStatus MessageType = "proctor_status"
	MsgCameraStatus  MessageType = "camera_status"
	MsgError         MessageType = "error"
)

// Client to server, on the candidate stream only.
const (
	MsgFrame  MessageType = "frame"
	MsgFocus  MessageType = "focus"
	MsgCamera MessageType = "camera"
	MsgRetry  MessageType = "retry"
)

// WSMessage is the envelope for every server-sent message. Seq increases
// by one per broadcast so clients can detect gaps between deltas and
// resync from the next snapshot.
type WSMessage struct {
	Type    MessageType `json:"type"`
	Seq     uint64      `json:"seq,omitempty"`
	Payload interface{} `json:"payload"`
}

type SnapshotPayload struct {
	Sessions []*session.State `json:"sessions"`
}

type DeltaPayload struct {
	Updates []*session.State `json:"updates"`
	Removed []string         `json:"removed,omitempty"`
}

type ViolationPayload struct {
	SessionID string            `json:"sessionId"`
	Violation proctor.Violation `json:"violation"`
}

type ProctorStatusPayload struct {
	SessionID string           `json:"sessionId"`
	Snapshot  proctor.Snapshot `json:"snapshot"`
}

type CameraStatusPayload struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// ClientMessage is the flat envelope candidate pages send over the stream
// socket. Binary websocket messages carry raw JPEG frames and skip this
// envelope entirely; Data carries a base64 frame for clients that cannot
// send binary messages.
type ClientMessage struct {
	Type    MessageType `json:"type"`
	Event   string      `json:"event,omitempty"`
	Status  string      `json:"status,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    string      `json:"data,omitempty"`
}

// Focus event names accepted from candidate pages.
const (
	FocusEventHidden = "hidden"
	FocusEventBlur   = "blur"
)

// Camera status names accepted from candidate pages.
const (
	CameraStatusReady  = "ready"
	CameraStatusDenied = "denied"
)
