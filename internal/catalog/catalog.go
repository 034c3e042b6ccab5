// Package catalog enumerates the placeable canvas component kinds and builds new
// component instances for them.
package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/iagro/supervisory/internal/models"
)

// Icon is a statically known icon identifier understood by the browser client.
type Icon string

const (
	IconThermometer      Icon = "thermometer"
	IconTank             Icon = "container"
	IconValve            Icon = "valve"
	IconPump             Icon = "pump"
	IconMotor            Icon = "cog"
	IconFan              Icon = "fan"
	IconGauge            Icon = "gauge"
	IconSwitchOn         Icon = "toggle-right"
	IconSwitchOff        Icon = "toggle-left"
	IconIndicatorFilled  Icon = "circle-dot"
	IconIndicatorOutline Icon = "circle"
	IconLine             Icon = "minus"
)

// Screen-space landing spot of new components, before the pan origin is
// subtracted.
const (
	DefaultX = 100
	DefaultY = 100
)

// DefaultPosition returns the landing spot as a point.
func DefaultPosition() models.Point {
	return models.Point{X: DefaultX, Y: DefaultY}
}

// Entry is one palette item.
type Entry struct {
	Kind  models.ComponentKind `json:"kind"`
	Icon  Icon                 `json:"icon"`
	Label string               `json:"label"`
}

// DefaultIcon returns the fixed icon for a kind. Switch and indicator report
// their "off" variant; the renderer picks the live one.
func DefaultIcon(kind models.ComponentKind) Icon {
	switch kind {
	case models.KindThermometer:
		return IconThermometer
	case models.KindTank:
		return IconTank
	case models.KindValve:
		return IconValve
	case models.KindPump:
		return IconPump
	case models.KindMotor:
		return IconMotor
	case models.KindFan:
		return IconFan
	case models.KindGauge:
		return IconGauge
	case models.KindSwitch:
		return IconSwitchOff
	case models.KindIndicator:
		return IconIndicatorOutline
	case models.KindLine:
		return IconLine
	}
	// Unknown kinds still get something drawable.
	return IconIndicatorOutline
}

// Label returns the human label of a kind.
func Label(kind models.ComponentKind) string {
	switch kind {
	case models.KindThermometer:
		return "Termômetro"
	case models.KindTank:
		return "Tanque"
	case models.KindValve:
		return "Válvula"
	case models.KindPump:
		return "Bomba"
	case models.KindMotor:
		return "Motor"
	case models.KindFan:
		return "Ventilador"
	case models.KindGauge:
		return "Manômetro"
	case models.KindSwitch:
		return "Chave"
	case models.KindIndicator:
		return "Indicador"
	case models.KindLine:
		return "Linha"
	}
	return string(kind)
}

// Entries returns the palette in display order.
func Entries() []Entry {
	out := make([]Entry, 0, len(models.AllKinds()))
	for _, k := range models.AllKinds() {
		out = append(out, Entry{Kind: k, Icon: DefaultIcon(k), Label: Label(k)})
	}
	return out
}

// Catalog synthesizes new PlacedComponents.
type Catalog struct {
	newID func() string
}

// New creates a catalog that assigns random UUIDs.
func New() *Catalog {
	return &Catalog{newID: func() string { return uuid.New().String() }}
}

// NewWithIDs creates a catalog with a custom id source (tests).
func NewWithIDs(newID func() string) *Catalog {
	return &Catalog{newID: newID}
}

// RequestAdd builds a fresh component of the given kind at the given
// canvas-local position, labelled after its kind, with an empty config.
func (c *Catalog) RequestAdd(kind models.ComponentKind, at models.Point) (models.PlacedComponent, error) {
	if !kind.Valid() {
		return models.PlacedComponent{}, fmt.Errorf("%w: %q", models.ErrUnknownKind, kind)
	}
	return models.PlacedComponent{
		ID:       c.newID(),
		Kind:     kind,
		Position: at,
		Label:    Label(kind),
	}, nil
}
