package ws

import (
	"encoding/json"
	"log"
)

// Event is the inbound message envelope: an event name plus its raw
// payload, decoded by the registered handler.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type EventHandler func(c *Client, data json.RawMessage)

// Dispatcher maps event names to handlers. It replaces hidden global
// registration state: one instance is built at startup and handlers
// are registered explicitly against it.
type Dispatcher struct {
	handlers map[string]EventHandler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]EventHandler)}
}

func (d *Dispatcher) Handle(event string, fn EventHandler) {
	d.handlers[event] = fn
}

// Dispatch routes one raw inbound frame. Malformed frames and unknown
// event names are dropped; a stale or misbehaving client must not
// generate noise.
func (d *Dispatcher) Dispatch(c *Client, raw []byte) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		log.Printf("ws: malformed frame from %s", c.UserID)
		return
	}
	fn, ok := d.handlers[event.Type]
	if !ok {
		return
	}
	fn(c, event.Data)
}
