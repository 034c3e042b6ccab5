// Package editor implements the properties editor for the selected canvas
// component. Every operation is a pure transform from the current component to
// its full replacement; bad input fails soft and never errors.
package editor

import (
	"math"
	"strconv"
	"strings"

	"github.com/iagro/supervisory/internal/models"
)

// Axis selects a position coordinate.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// RenameLabel replaces the label.
func RenameLabel(c models.PlacedComponent, text string) models.PlacedComponent {
	next := c.Clone()
	next.Label = text
	return next
}

// ToggleShowCaption sets config.showCaption.
func ToggleShowCaption(c models.PlacedComponent, show bool) models.PlacedComponent {
	next := withConfig(c)
	next.Config.ShowCaption = models.Bool(show)
	return next
}

// BindVariable binds the component to address; an empty address ("None") unbinds.
func BindVariable(c models.PlacedComponent, address string) models.PlacedComponent {
	next := c.Clone()
	next.BoundVariableAddress = strings.TrimSpace(address)
	return next
}

// SetPosition updates one coordinate. Any finite value is accepted, negative
// included; non-finite input keeps the previous value.
func SetPosition(c models.PlacedComponent, axis Axis, v float64) models.PlacedComponent {
	next := c.Clone()
	if !finite(v) {
		return next
	}
	switch axis {
	case AxisX:
		next.Position.X = v
	case AxisY:
		next.Position.Y = v
	}
	return next
}

// SetRotation sets config.rotationDegrees; non-finite input becomes 0.
func SetRotation(c models.PlacedComponent, degrees float64) models.PlacedComponent {
	if !finite(degrees) {
		degrees = models.DefaultRotation
	}
	next := withConfig(c)
	next.Config.RotationDegrees = models.Float(degrees)
	return next
}

// SetScale sets config.scale, clamped to MinScale; non-finite input becomes 1.
func SetScale(c models.PlacedComponent, scale float64) models.PlacedComponent {
	if !finite(scale) {
		scale = models.DefaultScale
	}
	next := withConfig(c)
	next.Config.Scale = models.Float(math.Max(scale, models.MinScale))
	return next
}

// SetLength sets config.lengthPixels for lines, clamped to MinLineLength.
// Other kinds are returned unchanged; non-finite input keeps the current length.
func SetLength(c models.PlacedComponent, length float64) models.PlacedComponent {
	if c.Kind != models.KindLine {
		return c.Clone()
	}
	if !finite(length) {
		length = c.Length()
	}
	next := withConfig(c)
	next.Config.LengthPixels = models.Float(math.Max(length, models.MinLineLength))
	return next
}

// SetPositionInput applies raw form input to a coordinate. Unparseable input
// keeps the previous value.
func SetPositionInput(c models.PlacedComponent, axis Axis, raw string) models.PlacedComponent {
	v, ok := parse(raw)
	if !ok {
		return c.Clone()
	}
	return SetPosition(c, axis, v)
}

// SetRotationInput applies raw form input; unparseable input means 0.
func SetRotationInput(c models.PlacedComponent, raw string) models.PlacedComponent {
	v, ok := parse(raw)
	if !ok {
		v = models.DefaultRotation
	}
	return SetRotation(c, v)
}

// SetScaleInput applies raw form input; unparseable input means 1.
func SetScaleInput(c models.PlacedComponent, raw string) models.PlacedComponent {
	v, ok := parse(raw)
	if !ok {
		v = models.DefaultScale
	}
	return SetScale(c, v)
}

// SetLengthInput applies raw form input; unparseable input keeps the current length.
func SetLengthInput(c models.PlacedComponent, raw string) models.PlacedComponent {
	v, ok := parse(raw)
	if !ok {
		v = c.Length()
	}
	return SetLength(c, v)
}

// SearchVariables returns the variables whose "name (address)" contains query,
// case-insensitively. An empty query matches everything.
func SearchVariables(vars []models.PlcVariable, query string) []models.PlcVariable {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.PlcVariable, 0, len(vars))
	for _, v := range vars {
		if q == "" || strings.Contains(strings.ToLower(v.SearchText()), q) {
			out = append(out, v)
		}
	}
	return out
}

func withConfig(c models.PlacedComponent) models.PlacedComponent {
	next := c.Clone()
	if next.Config == nil {
		next.Config = &models.ComponentConfig{}
	}
	return next
}

func parse(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(raw, ",", ".")), 64)
	if err != nil || !finite(v) {
		return 0, false
	}
	return v, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
