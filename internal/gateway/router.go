package gateway

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hatch-sh/workspace-kernel/internal/coordinator"
	"github.com/hatch-sh/workspace-kernel/internal/logging"
)

// MessageType identifies a control-plane WebSocket message's shape.
type MessageType string

const (
	MessageTypeEnqueue MessageType = "enqueue"
	MessageTypeCancel  MessageType = "cancel"
	MessageTypeStatus  MessageType = "status"
	MessageTypeResult  MessageType = "result"
	MessageTypePing    MessageType = "ping"
	MessageTypePong    MessageType = "pong"
)

// Message is the envelope for every WebSocket control-plane exchange.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Router dispatches incoming session messages by MessageType, the same way
// the Command Handler Table dispatches by command name: a closed map, no
// plugin registration at runtime beyond what NewRouter wires.
type Router struct {
	coord    *coordinator.Coordinator
	handlers map[MessageType]func(ctx context.Context, session *Session, payload json.RawMessage)
}

// NewRouter wires the fixed set of message handlers against coord.
func NewRouter(s *Server) *Router {
	r := &Router{coord: s.coord}
	r.handlers = map[MessageType]func(ctx context.Context, session *Session, payload json.RawMessage){
		MessageTypePing:    r.handlePing,
		MessageTypeEnqueue: r.handleEnqueue,
		MessageTypeCancel:  r.handleCancel,
		MessageTypeStatus:  r.handleStatus,
	}
	return r
}

// HandleMessage decodes and dispatches a single incoming frame.
func (r *Router) HandleMessage(ctx context.Context, session *Session, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		logging.WithComponent("gateway").Warn("failed to parse message", slog.Any("error", err))
		return
	}

	handler, ok := r.handlers[msg.Type]
	if !ok {
		logging.WithComponent("gateway").Warn("no handler for message type", slog.String("type", string(msg.Type)))
		return
	}
	handler(ctx, session, msg.Payload)
}

func (r *Router) handlePing(_ context.Context, session *Session, payload json.RawMessage) {
	session.UpdatePing()
	response, _ := json.Marshal(Message{Type: MessageTypePong, Payload: payload})
	_ = session.Send(response)
}

func (r *Router) handleEnqueue(ctx context.Context, session *Session, payload json.RawMessage) {
	var req coordinator.EnqueueRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		r.sendError(session, err)
		return
	}

	result, err := r.coord.Enqueue(ctx, req)
	if err != nil {
		r.sendError(session, err)
		return
	}

	response, _ := json.Marshal(Message{Type: MessageTypeResult, Payload: result})
	_ = session.Send(response)
}

func (r *Router) handleCancel(_ context.Context, session *Session, payload json.RawMessage) {
	var req struct {
		OperationID string `json:"operationId"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		r.sendError(session, err)
		return
	}

	cancelled := r.coord.Cancel(req.OperationID)
	body, _ := json.Marshal(map[string]bool{"cancelled": cancelled})
	response, _ := json.Marshal(Message{Type: MessageTypeResult, Payload: body})
	_ = session.Send(response)
}

func (r *Router) handleStatus(_ context.Context, session *Session, payload json.RawMessage) {
	var req struct {
		RepoRoot string `json:"repoRoot"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		r.sendError(session, err)
		return
	}

	snapshot := r.coord.Status(req.RepoRoot)
	body, _ := json.Marshal(snapshot)
	response, _ := json.Marshal(Message{Type: MessageTypeStatus, Payload: body})
	_ = session.Send(response)
}

func (r *Router) sendError(session *Session, err error) {
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	response, _ := json.Marshal(Message{Type: MessageTypeResult, Payload: body})
	_ = session.Send(response)
}
