package models

import "math"

// VariableKind distinguishes boolean from numeric PLC tags.
type VariableKind string

const (
	VariableDigital VariableKind = "digital"
	VariableAnalog  VariableKind = "analog"
)

// PlcVariable is one named tag exposed by the (simulated) controller.
// Value holds a bool for digital tags and a number for analog tags.
type PlcVariable struct {
	Address string       `json:"address" yaml:"address" msgpack:"address" validate:"required"`
	Name    string       `json:"name" yaml:"name" msgpack:"name" validate:"required"`
	Kind    VariableKind `json:"kind" yaml:"kind" msgpack:"kind" validate:"required,oneof=digital analog"`
	Value   any          `json:"value" yaml:"value" msgpack:"value"`
	Unit    string       `json:"unit,omitempty" yaml:"unit,omitempty" msgpack:"unit,omitempty"`
}

// Digital returns the boolean value of a digital tag.
// ok is false when the tag is not digital or carries a non-bool value.
func (v PlcVariable) Digital() (value bool, ok bool) {
	if v.Kind != VariableDigital {
		return false, false
	}
	b, ok := v.Value.(bool)
	return b, ok
}

// Analog returns the numeric value of an analog tag.
// ok is false when the tag is not analog, not numeric, or not finite.
func (v PlcVariable) Analog() (value float64, ok bool) {
	if v.Kind != VariableAnalog {
		return 0, false
	}
	f, ok := toFloat(v.Value)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// SearchText is the string the binding search matches against.
func (v PlcVariable) SearchText() string {
	return v.Name + " (" + v.Address + ")"
}

// FindVariable looks up a variable by address. A missing address is not an error.
func FindVariable(vars []PlcVariable, address string) (PlcVariable, bool) {
	if address == "" {
		return PlcVariable{}, false
	}
	for _, v := range vars {
		if v.Address == address {
			return v, true
		}
	}
	return PlcVariable{}, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
