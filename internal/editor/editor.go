package editor

import (
	"strconv"

	"github.com/iagro/supervisory/internal/models"
)

// Field names a form control of the editor.
type Field string

const (
	FieldLabel       Field = "label"
	FieldShowCaption Field = "showCaption"
	FieldVariable    Field = "variable"
	FieldPositionX   Field = "positionX"
	FieldPositionY   Field = "positionY"
	FieldRotation    Field = "rotation"
	FieldScale       Field = "scale"
	FieldLength      Field = "length"
)

// Valid reports whether f names a form control.
func (f Field) Valid() bool {
	switch f {
	case FieldLabel, FieldShowCaption, FieldVariable, FieldPositionX,
		FieldPositionY, FieldRotation, FieldScale, FieldLength:
		return true
	}
	return false
}

// Listener receives the editor's requests. The editor never owns the collection.
type Listener interface {
	OnUpdate(next models.PlacedComponent)
	OnDelete(id string)
}

// Form is the populated edit form for one component.
type Form struct {
	Component   models.PlacedComponent `json:"component"`
	Label       string                 `json:"label"`
	ShowCaption bool                   `json:"showCaption"`
	Variable    string                 `json:"variable"`
	PositionX   float64                `json:"positionX"`
	PositionY   float64                `json:"positionY"`
	Rotation    float64                `json:"rotation"`
	Scale       float64                `json:"scale"`
	Length      *float64               `json:"length,omitempty"`
	Options     []models.PlcVariable   `json:"options"`
	Bound       *models.PlcVariable    `json:"bound,omitempty"`
}

// View is either the placeholder (Form nil) or a populated form.
type View struct {
	Placeholder bool  `json:"placeholder"`
	Form        *Form `json:"form,omitempty"`
}

// Build renders the editor for selected, filtering binding options by query.
func Build(selected *models.PlacedComponent, vars []models.PlcVariable, query string) View {
	if selected == nil {
		return View{Placeholder: true}
	}
	c := *selected
	f := &Form{
		Component:   c,
		Label:       c.Label,
		ShowCaption: c.CaptionVisible(),
		Variable:    c.BoundVariableAddress,
		PositionX:   c.Position.X,
		PositionY:   c.Position.Y,
		Rotation:    c.Rotation(),
		Scale:       c.EffectiveScale(),
		Options:     SearchVariables(vars, query),
	}
	if c.Kind == models.KindLine {
		f.Length = models.Float(c.Length())
	}
	if v, ok := models.FindVariable(vars, c.BoundVariableAddress); ok {
		f.Bound = &v
	}
	return View{Form: f}
}

// Apply runs one field change on c and returns the replacement. Unknown fields
// and unparseable values leave c unchanged (or fall back to the field default).
func Apply(c models.PlacedComponent, field Field, raw string) models.PlacedComponent {
	switch field {
	case FieldLabel:
		return RenameLabel(c, raw)
	case FieldShowCaption:
		show, err := strconv.ParseBool(raw)
		if err != nil {
			return c.Clone()
		}
		return ToggleShowCaption(c, show)
	case FieldVariable:
		return BindVariable(c, raw)
	case FieldPositionX:
		return SetPositionInput(c, AxisX, raw)
	case FieldPositionY:
		return SetPositionInput(c, AxisY, raw)
	case FieldRotation:
		return SetRotationInput(c, raw)
	case FieldScale:
		return SetScaleInput(c, raw)
	case FieldLength:
		return SetLengthInput(c, raw)
	}
	return c.Clone()
}

// Editor binds the transforms to a listener.
type Editor struct {
	listener Listener
}

// New creates an editor reporting to l.
func New(l Listener) *Editor {
	return &Editor{listener: l}
}

// Change applies a field change to selected and emits the full replacement.
// With nothing selected it does nothing.
func (e *Editor) Change(selected *models.PlacedComponent, field Field, raw string) {
	if selected == nil {
		return
	}
	e.listener.OnUpdate(Apply(*selected, field, raw))
}

// RequestDelete asks the owner to remove the selected component.
func (e *Editor) RequestDelete(selected *models.PlacedComponent) {
	if selected == nil {
		return
	}
	e.listener.OnDelete(selected.ID)
}
