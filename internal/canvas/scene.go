package canvas

import (
	"github.com/iagro/supervisory/internal/models"
	"github.com/iagro/supervisory/internal/render"
)

// SceneItem is one component as it should be drawn right now.
type SceneItem struct {
	Component models.PlacedComponent `json:"component" msgpack:"component"`
	Screen    models.Point           `json:"screen" msgpack:"screen"`
	Rotation  float64                `json:"rotation" msgpack:"rotation"`
	Scale     float64                `json:"scale" msgpack:"scale"`
	Length    float64                `json:"length,omitempty" msgpack:"length,omitempty"`
	Selected  bool                   `json:"selected" msgpack:"selected"`
	Visual    render.Visual          `json:"visual" msgpack:"visual"`
}

// Scene is the full drawable state of a canvas. Items keep collection order,
// so later items stack above earlier ones.
type Scene struct {
	Origin        models.Point `json:"origin" msgpack:"origin"`
	Mode          Mode         `json:"mode" msgpack:"mode"`
	SelectedID    string       `json:"selectedId,omitempty" msgpack:"selectedId,omitempty"`
	BackgroundURL string       `json:"backgroundUrl,omitempty" msgpack:"backgroundUrl,omitempty"`
	Placeholder   bool         `json:"placeholder" msgpack:"placeholder"`
	Items         []SceneItem  `json:"items" msgpack:"items"`
}

// Scene resolves every component against the variable snapshot.
func (e *Engine) Scene(vars []models.PlcVariable, backgroundURL string) Scene {
	comps := e.owner.Components()
	s := Scene{
		Origin:        e.view.Origin,
		Mode:          e.Mode(),
		SelectedID:    e.view.SelectedComponentID,
		BackgroundURL: backgroundURL,
		Placeholder:   len(comps) == 0 && backgroundURL == "",
		Items:         make([]SceneItem, 0, len(comps)),
	}
	for _, c := range comps {
		item := SceneItem{
			Component: c,
			Screen:    e.ScreenPosition(c.Position),
			Rotation:  c.Rotation(),
			Scale:     c.EffectiveScale(),
			Selected:  c.ID == e.view.SelectedComponentID,
			Visual:    render.Resolve(c, vars),
		}
		if c.Kind == models.KindLine {
			item.Length = c.Length()
		}
		s.Items = append(s.Items, item)
	}
	return s
}
