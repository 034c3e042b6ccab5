package canvas

import "github.com/iagro/supervisory/internal/models"

// EventType names a pointer event delivered by the client.
type EventType string

const (
	EventDown  EventType = "down"
	EventMove  EventType = "move"
	EventUp    EventType = "up"
	EventLeave EventType = "leave"
	EventClick EventType = "click"
)

// PointerEvent is a pointer event in screen coordinates. TargetID is the
// component under the pointer, or empty for the background.
type PointerEvent struct {
	Type     EventType `json:"type" msgpack:"type"`
	X        float64   `json:"x" msgpack:"x"`
	Y        float64   `json:"y" msgpack:"y"`
	Button   Button    `json:"button" msgpack:"button"`
	TargetID string    `json:"targetId,omitempty" msgpack:"targetId,omitempty"`
}

// Valid reports whether the event type is known.
func (ev PointerEvent) Valid() bool {
	switch ev.Type {
	case EventDown, EventMove, EventUp, EventLeave, EventClick:
		return true
	}
	return false
}

// Handle dispatches ev to the matching gesture method. Unknown types are ignored.
func (e *Engine) Handle(ev PointerEvent) {
	p := models.Point{X: ev.X, Y: ev.Y}
	switch ev.Type {
	case EventDown:
		e.PointerDown(ev.TargetID, p, ev.Button)
	case EventMove:
		e.PointerMove(p)
	case EventUp:
		e.PointerUp()
	case EventLeave:
		e.PointerLeave()
	case EventClick:
		e.Click(ev.TargetID)
	}
}
