// Package plcsim provides an in-process stand-in for the plant PLC: a fixed
// catalog of tags whose values drift over time.
package plcsim

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/iagro/supervisory/internal/models"
)

// Definition is one tag of a variables file.
type Definition struct {
	Address string  `yaml:"address" validate:"required"`
	Name    string  `yaml:"name" validate:"required"`
	Kind    string  `yaml:"kind" validate:"required,oneof=digital analog"`
	Unit    string  `yaml:"unit,omitempty"`
	Initial any     `yaml:"initial"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max" validate:"gtefield=Min"`
	Step    float64 `yaml:"step" validate:"gte=0"`
}

// File is the top level of a variables YAML file.
type File struct {
	Variables []Definition `yaml:"variables" validate:"required,min=1,dive"`
}

var validate = validator.New()

// ErrDuplicateAddress is returned when two tags share an address.
var ErrDuplicateAddress = errors.New("duplicate variable address")

// LoadFile reads and validates a variables file.
func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read variables file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates variables YAML.
func Parse(data []byte) ([]Definition, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse variables: %w", err)
	}
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("invalid variables: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Variables))
	for _, d := range f.Variables {
		if _, dup := seen[d.Address]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAddress, d.Address)
		}
		seen[d.Address] = struct{}{}
	}
	return f.Variables, nil
}

// DefaultDefinitions is the demo plant used when no variables file is configured.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Address: "DB1.DBD0", Name: "Temperatura Caldeira", Kind: "analog", Unit: "°C", Initial: 45.0, Min: 20, Max: 95, Step: 1.5},
		{Address: "DB1.DBD4", Name: "Temperatura Secador", Kind: "analog", Unit: "°C", Initial: 38.0, Min: 15, Max: 80, Step: 1},
		{Address: "DB1.DBD8", Name: "Nível Silo 1", Kind: "analog", Unit: "%", Initial: 62.0, Min: 0, Max: 100, Step: 2},
		{Address: "DB1.DBD12", Name: "Pressão Linha Vapor", Kind: "analog", Unit: "bar", Initial: 6.5, Min: 0, Max: 12, Step: 0.3},
		{Address: "DB1.DBD16", Name: "Vazão Água", Kind: "analog", Unit: "m³/h", Initial: 14.0, Min: 0, Max: 30, Step: 0.8},
		{Address: "M0.0", Name: "Bomba Recalque", Kind: "digital", Initial: true},
		{Address: "M0.1", Name: "Válvula Entrada Silo", Kind: "digital", Initial: false},
		{Address: "M0.2", Name: "Motor Esteira", Kind: "digital", Initial: true},
		{Address: "M0.3", Name: "Exaustor Secador", Kind: "digital", Initial: false},
		{Address: "M0.4", Name: "Alarme Geral", Kind: "digital", Initial: false},
	}
}

// variable builds the initial PlcVariable for a definition.
func (d Definition) variable() models.PlcVariable {
	v := models.PlcVariable{
		Address: d.Address,
		Name:    d.Name,
		Kind:    models.VariableKind(d.Kind),
		Unit:    d.Unit,
	}
	if v.Kind == models.VariableDigital {
		b, _ := d.Initial.(bool)
		v.Value = b
		return v
	}
	v.Value = d.Min
	if f, ok := number(d.Initial); ok {
		v.Value = clamp(f, d.Min, d.Max)
	}
	return v
}

func number(x any) (float64, bool) {
	switch n := x.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
