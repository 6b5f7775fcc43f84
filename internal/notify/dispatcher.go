package notify

import (
	"encoding/json"
	"log/slog"
)

// Frame is the JSON envelope written to clients.
type Frame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Transport delivers encoded frames to live connections. *Hub implements it.
type Transport interface {
	SendTo(connID string, frame []byte) bool
	SendAll(frame []byte) int
}

// Resolver looks up a principal's live connection. *Registry implements it.
type Resolver interface {
	Resolve(principalID string) (string, bool)
}

// Dispatcher sends events to one principal or to everyone. Delivery is
// at most once: no queueing for offline principals, no retries.
type Dispatcher struct {
	resolver  Resolver
	transport Transport
	log       *slog.Logger
}

// NewDispatcher returns a Dispatcher.
func NewDispatcher(resolver Resolver, transport Transport, log *slog.Logger) *Dispatcher {
	return &Dispatcher{resolver: resolver, transport: transport, log: log}
}

// Notify delivers event to principalID's live connection, if any.
func (d *Dispatcher) Notify(principalID, event string, payload any) {
	connID, ok := d.resolver.Resolve(principalID)
	if !ok {
		d.log.Debug("notify dropped, no live connection", "event", event, "principal_id", principalID)
		return
	}
	frame, ok := d.encode(event, payload)
	if !ok {
		return
	}
	if !d.transport.SendTo(connID, frame) {
		d.log.Debug("notify dropped", "event", event, "principal_id", principalID, "conn_id", connID)
	}
}

// Broadcast delivers event to every live connection.
func (d *Dispatcher) Broadcast(event string, payload any) {
	frame, ok := d.encode(event, payload)
	if !ok {
		return
	}
	n := d.transport.SendAll(frame)
	d.log.Debug("broadcast sent", "event", event, "delivered", n)
}

func (d *Dispatcher) encode(event string, payload any) ([]byte, bool) {
	frame, err := json.Marshal(Frame{Event: event, Payload: payload})
	if err != nil {
		d.log.Warn("encode event failed", "event", event, "err", err)
		return nil, false
	}
	return frame, true
}
