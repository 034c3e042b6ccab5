// Package render maps a component kind and its bound variable to what the
// browser draws: an icon, a semantic color class and a caption.
package render

import (
	"strconv"

	"github.com/iagro/supervisory/internal/catalog"
	"github.com/iagro/supervisory/internal/models"
)

// ColorClass is a semantic color the client maps to its palette.
type ColorClass string

const (
	ColorMuted   ColorClass = "muted"
	ColorActive  ColorClass = "active"
	ColorNormal  ColorClass = "normal"
	ColorWarning ColorClass = "warning"
	ColorDanger  ColorClass = "danger"
)

// Thermometer heat bands (strictly greater than).
const (
	ThermometerWarningAbove = 50.0
	ThermometerDangerAbove  = 70.0
)

// Visual is the renderer output for one component.
type Visual struct {
	Icon        catalog.Icon `json:"icon" msgpack:"icon"`
	ColorClass  ColorClass   `json:"colorClass" msgpack:"colorClass"`
	DisplayText string       `json:"displayText" msgpack:"displayText"`
	ShowCaption bool         `json:"showCaption" msgpack:"showCaption"`
}

// Render is total: a nil, dangling or malformed variable yields the unbound visual.
func Render(kind models.ComponentKind, v *models.PlcVariable, cfg *models.ComponentConfig) Visual {
	captionWanted := models.PlacedComponent{Config: cfg}.CaptionVisible()

	if v == nil {
		return unbound(kind)
	}

	switch v.Kind {
	case models.VariableDigital:
		on, ok := v.Digital()
		if !ok {
			return unbound(kind)
		}
		color := ColorMuted
		text := "OFF"
		if on {
			color = ColorActive
			text = "ON"
		}
		return Visual{
			Icon:        iconFor(kind, on),
			ColorClass:  color,
			DisplayText: text,
			ShowCaption: captionWanted,
		}
	case models.VariableAnalog:
		val, ok := v.Analog()
		if !ok {
			return unbound(kind)
		}
		// an indicator follows truthiness; a switch only turns on from a digital tag
		return Visual{
			Icon:        iconFor(kind, kind == models.KindIndicator && val != 0),
			ColorClass:  analogColor(kind, val),
			DisplayText: strconv.FormatFloat(val, 'f', 1, 64) + v.Unit,
			ShowCaption: captionWanted,
		}
	}
	return unbound(kind)
}

// Resolve renders a component against the current variable snapshot.
func Resolve(c models.PlacedComponent, vars []models.PlcVariable) Visual {
	v, ok := models.FindVariable(vars, c.BoundVariableAddress)
	if !ok {
		return Render(c.Kind, nil, c.Config)
	}
	return Render(c.Kind, &v, c.Config)
}

func unbound(kind models.ComponentKind) Visual {
	return Visual{
		Icon:       iconFor(kind, false),
		ColorClass: ColorMuted,
	}
}

func iconFor(kind models.ComponentKind, on bool) catalog.Icon {
	switch kind {
	case models.KindSwitch:
		if on {
			return catalog.IconSwitchOn
		}
		return catalog.IconSwitchOff
	case models.KindIndicator:
		if on {
			return catalog.IconIndicatorFilled
		}
		return catalog.IconIndicatorOutline
	default:
		return catalog.DefaultIcon(kind)
	}
}

func analogColor(kind models.ComponentKind, val float64) ColorClass {
	if kind != models.KindThermometer {
		return ColorActive
	}
	switch {
	case val > ThermometerDangerAbove:
		return ColorDanger
	case val > ThermometerWarningAbove:
		return ColorWarning
	default:
		return ColorNormal
	}
}
