package models

import "math"

// ComponentKind is the closed set of placeable canvas component kinds.
type ComponentKind string

const (
	KindThermometer ComponentKind = "thermometer"
	KindTank        ComponentKind = "tank"
	KindValve       ComponentKind = "valve"
	KindPump        ComponentKind = "pump"
	KindMotor       ComponentKind = "motor"
	KindFan         ComponentKind = "fan"
	KindGauge       ComponentKind = "gauge"
	KindSwitch      ComponentKind = "switch"
	KindIndicator   ComponentKind = "indicator"
	KindLine        ComponentKind = "line"
)

// AllKinds returns every ComponentKind in palette order. The slice is fresh
// on each call.
func AllKinds() []ComponentKind {
	return []ComponentKind{
		KindThermometer,
		KindTank,
		KindValve,
		KindPump,
		KindMotor,
		KindFan,
		KindGauge,
		KindSwitch,
		KindIndicator,
		KindLine,
	}
}

// Valid reports whether k is one of the known kinds.
func (k ComponentKind) Valid() bool {
	switch k {
	case KindThermometer, KindTank, KindValve, KindPump, KindMotor,
		KindFan, KindGauge, KindSwitch, KindIndicator, KindLine:
		return true
	}
	return false
}

// Config defaults and lower bounds.
const (
	DefaultRotation    = 0.0
	DefaultScale       = 1.0
	MinScale           = 0.2
	DefaultLineLength  = 80.0
	MinLineLength      = 10.0
	DefaultShowCaption = true
)

// Point is a 2D pixel coordinate.
type Point struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Add returns p + o.
func (p Point) Add(o Point) Point { return Point{X: p.X + o.X, Y: p.Y + o.Y} }

// Sub returns p - o.
func (p Point) Sub(o Point) Point { return Point{X: p.X - o.X, Y: p.Y - o.Y} }

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

// ComponentConfig holds optional per-instance visual parameters.
// A nil field means "use the default".
type ComponentConfig struct {
	RotationDegrees *float64 `json:"rotationDegrees,omitempty" msgpack:"rotationDegrees,omitempty"`
	Scale           *float64 `json:"scale,omitempty" msgpack:"scale,omitempty"`
	ShowCaption     *bool    `json:"showCaption,omitempty" msgpack:"showCaption,omitempty"`
	LengthPixels    *float64 `json:"lengthPixels,omitempty" msgpack:"lengthPixels,omitempty"`
}

// Clone returns a deep copy of the config. Cloning nil yields an empty config.
func (c *ComponentConfig) Clone() *ComponentConfig {
	out := &ComponentConfig{}
	if c == nil {
		return out
	}
	if c.RotationDegrees != nil {
		out.RotationDegrees = Float(*c.RotationDegrees)
	}
	if c.Scale != nil {
		out.Scale = Float(*c.Scale)
	}
	if c.ShowCaption != nil {
		out.ShowCaption = Bool(*c.ShowCaption)
	}
	if c.LengthPixels != nil {
		out.LengthPixels = Float(*c.LengthPixels)
	}
	return out
}

// PlacedComponent is one icon instance on the canvas.
// Position is in canvas-local coordinates and never includes the pan origin.
type PlacedComponent struct {
	ID                   string           `json:"id" msgpack:"id"`
	Kind                 ComponentKind    `json:"kind" msgpack:"kind"`
	Position             Point            `json:"position" msgpack:"position"`
	Label                string           `json:"label" msgpack:"label"`
	BoundVariableAddress string           `json:"boundVariableAddress,omitempty" msgpack:"boundVariableAddress,omitempty"`
	Config               *ComponentConfig `json:"config,omitempty" msgpack:"config,omitempty"`
}

// Clone returns a copy that shares no mutable state with c.
func (c PlacedComponent) Clone() PlacedComponent {
	if c.Config != nil {
		c.Config = c.Config.Clone()
	}
	return c
}

// IsBound reports whether the component references a variable address.
func (c PlacedComponent) IsBound() bool {
	return c.BoundVariableAddress != ""
}

// Rotation returns the effective rotation in degrees.
func (c PlacedComponent) Rotation() float64 {
	if c.Config == nil || c.Config.RotationDegrees == nil || !isFinite(*c.Config.RotationDegrees) {
		return DefaultRotation
	}
	return *c.Config.RotationDegrees
}

// EffectiveScale returns the scale factor, never below MinScale.
func (c PlacedComponent) EffectiveScale() float64 {
	if c.Config == nil || c.Config.Scale == nil || !isFinite(*c.Config.Scale) {
		return DefaultScale
	}
	return math.Max(*c.Config.Scale, MinScale)
}

// CaptionVisible reports whether the value caption should be drawn.
func (c PlacedComponent) CaptionVisible() bool {
	if c.Config == nil || c.Config.ShowCaption == nil {
		return DefaultShowCaption
	}
	return *c.Config.ShowCaption
}

// Length returns the line length in pixels, never below MinLineLength.
func (c PlacedComponent) Length() float64 {
	if c.Config == nil || c.Config.LengthPixels == nil || !isFinite(*c.Config.LengthPixels) {
		return DefaultLineLength
	}
	return math.Max(*c.Config.LengthPixels, MinLineLength)
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
