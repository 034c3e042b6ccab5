// Package canvas implements the supervisory canvas engine: free placement,
// dragging and panning of components over an optional background image.
//
// The engine owns only transient view state. The component collection belongs
// to an Owner which supplies it on demand and receives every change back as a
// new slice.
package canvas

import (
	"github.com/iagro/supervisory/internal/models"
)

// Owner is the page that owns the component collection and the selection.
type Owner interface {
	Components() []models.PlacedComponent
	ComponentsChanged(next []models.PlacedComponent)
	SelectionChanged(id string)
}

// Button identifies the pointer button of a pointer-down.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// Mode is the pointer-session state.
type Mode string

const (
	ModeIdle     Mode = "idle"
	ModeDragging Mode = "dragging"
	ModePanning  Mode = "panning"
)

// ViewState is the ephemeral per-session canvas state. Nothing here is persisted.
type ViewState struct {
	Origin              models.Point  `json:"origin" msgpack:"origin"`
	DraggedComponentID  string        `json:"draggedComponentId,omitempty" msgpack:"draggedComponentId,omitempty"`
	DragPointerOffset   models.Point  `json:"dragPointerOffset" msgpack:"dragPointerOffset"`
	IsPanning           bool          `json:"isPanning" msgpack:"isPanning"`
	PanAnchor           *models.Point `json:"panAnchor,omitempty" msgpack:"panAnchor,omitempty"`
	SelectedComponentID string        `json:"selectedComponentId,omitempty" msgpack:"selectedComponentId,omitempty"`
}

// Engine interprets pointer gestures for one canvas.
type Engine struct {
	owner Owner
	view  ViewState
}

// NewEngine creates an idle engine with origin (0,0).
func NewEngine(owner Owner) *Engine {
	return &Engine{owner: owner}
}

// View returns a copy of the current view state.
func (e *Engine) View() ViewState {
	v := e.view
	if v.PanAnchor != nil {
		a := *v.PanAnchor
		v.PanAnchor = &a
	}
	return v
}

// Mode reports the current pointer-session state.
func (e *Engine) Mode() Mode {
	switch {
	case e.view.DraggedComponentID != "":
		return ModeDragging
	case e.view.IsPanning:
		return ModePanning
	default:
		return ModeIdle
	}
}

// Origin is the current pan offset.
func (e *Engine) Origin() models.Point {
	return e.view.Origin
}

// Selected returns the selected component id, or "".
func (e *Engine) Selected() string {
	return e.view.SelectedComponentID
}

// Select sets the selection and notifies the owner. An empty id clears it.
func (e *Engine) Select(id string) {
	e.view.SelectedComponentID = id
	e.owner.SelectionChanged(id)
}

// ScreenPosition converts a canvas-local position into screen space.
func (e *Engine) ScreenPosition(p models.Point) models.Point {
	return p.Add(e.view.Origin)
}

// PointerDown starts a drag when targetID names a component, or a pan when the
// press lands on empty background with the left button.
func (e *Engine) PointerDown(targetID string, pointer models.Point, button Button) {
	if !pointer.Finite() {
		return
	}
	// at most one gesture is active at a time
	e.endGesture()

	if targetID != "" {
		comp, ok := find(e.owner.Components(), targetID)
		if !ok {
			return
		}
		e.view.DraggedComponentID = comp.ID
		e.view.DragPointerOffset = pointer.Sub(comp.Position.Add(e.view.Origin))
		e.Select(comp.ID)
		return
	}

	if button != ButtonLeft {
		return
	}
	anchor := pointer
	e.view.IsPanning = true
	e.view.PanAnchor = &anchor
}

// PointerMove relocates the dragged component or shifts the pan origin.
// A dragged component that has since disappeared ends the gesture silently.
func (e *Engine) PointerMove(pointer models.Point) {
	if !pointer.Finite() {
		return
	}
	switch e.Mode() {
	case ModeDragging:
		e.drag(pointer)
	case ModePanning:
		delta := pointer.Sub(*e.view.PanAnchor)
		e.view.Origin = e.view.Origin.Add(delta)
		anchor := pointer
		e.view.PanAnchor = &anchor
	}
}

// PointerUp ends any gesture. The last computed position stays.
func (e *Engine) PointerUp() {
	e.endGesture()
}

// PointerLeave ends any gesture, exactly like PointerUp.
func (e *Engine) PointerLeave() {
	e.endGesture()
}

// Click handles a click on the canvas. Clicks on a component do not reach the
// background handler; a click on empty space clears the selection.
func (e *Engine) Click(targetID string) {
	if targetID != "" {
		return
	}
	e.Select("")
}

// Forget drops every reference to a removed component: a drag on it ends and
// its selection is cleared.
func (e *Engine) Forget(id string) {
	if id == "" {
		return
	}
	if e.view.DraggedComponentID == id {
		e.endGesture()
	}
	if e.view.SelectedComponentID == id {
		e.Select("")
	}
}

func (e *Engine) drag(pointer models.Point) {
	id := e.view.DraggedComponentID
	current := e.owner.Components()
	idx := indexOf(current, id)
	if idx < 0 {
		e.endGesture()
		return
	}

	next := make([]models.PlacedComponent, len(current))
	copy(next, current)
	moved := current[idx]
	moved.Position = pointer.Sub(e.view.DragPointerOffset).Sub(e.view.Origin)
	next[idx] = moved

	e.owner.ComponentsChanged(next)
}

func (e *Engine) endGesture() {
	e.view.DraggedComponentID = ""
	e.view.DragPointerOffset = models.Point{}
	e.view.IsPanning = false
	e.view.PanAnchor = nil
}

func find(comps []models.PlacedComponent, id string) (models.PlacedComponent, bool) {
	if i := indexOf(comps, id); i >= 0 {
		return comps[i], true
	}
	return models.PlacedComponent{}, false
}

func indexOf(comps []models.PlacedComponent, id string) int {
	for i := range comps {
		if comps[i].ID == id {
			return i
		}
	}
	return -1
}
