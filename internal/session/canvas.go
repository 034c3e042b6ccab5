package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/iagro/supervisory/internal/canvas"
	"github.com/iagro/supervisory/internal/catalog"
	"github.com/iagro/supervisory/internal/editor"
	"github.com/iagro/supervisory/internal/models"
)

// Canvas is the owning page of one browser session: it holds the component
// collection and routes gestures and editor changes onto it.
type Canvas struct {
	mu           sync.Mutex
	id           string
	components   []models.PlacedComponent
	background   *models.FileInfo
	engine       *canvas.Engine
	editor       *editor.Editor
	catalog      *catalog.Catalog
	createdAt    time.Time
	lastAccessed time.Time
}

// owner adapts Canvas to canvas.Owner. Its methods run with c.mu held.
type owner struct{ c *Canvas }

func (o owner) Components() []models.PlacedComponent { return o.c.components }

func (o owner) ComponentsChanged(next []models.PlacedComponent) { o.c.components = next }

// Selection lives in the engine view; nothing else to track.
func (o owner) SelectionChanged(string) {}

// listener adapts Canvas to editor.Listener. Its methods run with c.mu held.
type listener struct{ c *Canvas }

func (l listener) OnUpdate(next models.PlacedComponent) { _ = l.c.replaceLocked(next) }

func (l listener) OnDelete(id string) { _ = l.c.deleteLocked(id) }

func newCanvas(id string, cat *catalog.Catalog) *Canvas {
	now := time.Now()
	c := &Canvas{
		id:           id,
		components:   make([]models.PlacedComponent, 0),
		catalog:      cat,
		createdAt:    now,
		lastAccessed: now,
	}
	c.engine = canvas.NewEngine(owner{c})
	c.editor = editor.New(listener{c})
	return c
}

// ID returns the session id.
func (c *Canvas) ID() string { return c.id }

// Summary reports counts and timestamps.
func (c *Canvas) Summary() models.CanvasSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := models.CanvasSession{
		ID:             c.id,
		ComponentCount: len(c.components),
		SelectedID:     c.engine.Selected(),
		CreatedAt:      c.createdAt,
		LastAccessed:   c.lastAccessed,
	}
	if c.background != nil {
		s.BackgroundID = c.background.ID
	}
	return s
}

// Components returns a copy of the collection.
func (c *Canvas) Components() []models.PlacedComponent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// AddComponent appends a fresh component of kind, placed at the catalog's
// default screen position for the current pan origin.
func (c *Canvas) AddComponent(kind models.ComponentKind) (models.PlacedComponent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchLocked()

	at := catalog.DefaultPosition().Sub(c.engine.Origin())
	comp, err := c.catalog.RequestAdd(kind, at)
	if err != nil {
		return models.PlacedComponent{}, err
	}
	next := make([]models.PlacedComponent, len(c.components), len(c.components)+1)
	copy(next, c.components)
	c.components = append(next, comp)
	return comp, nil
}

// UpdateComponent replaces the component with the same id. Kind is immutable
// and out-of-range config is clamped.
func (c *Canvas) UpdateComponent(next models.PlacedComponent) (models.PlacedComponent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchLocked()

	idx := c.indexLocked(next.ID)
	if idx < 0 {
		return models.PlacedComponent{}, fmt.Errorf("%w: %s", models.ErrComponentNotFound, next.ID)
	}
	next = normalize(next, c.components[idx].Kind)
	if err := c.replaceLocked(next); err != nil {
		return models.PlacedComponent{}, err
	}
	return next, nil
}

// DeleteComponent removes a component; deleting the selection clears it.
func (c *Canvas) DeleteComponent(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchLocked()
	return c.deleteLocked(id)
}

// Select selects a component by id; an empty id clears the selection.
func (c *Canvas) Select(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchLocked()
	if id != "" && c.indexLocked(id) < 0 {
		return fmt.Errorf("%w: %s", models.ErrComponentNotFound, id)
	}
	c.engine.Select(id)
	return nil
}

// Selected returns the selected component, if any.
func (c *Canvas) Selected() (models.PlacedComponent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sel := c.selectedLocked()
	if sel == nil {
		return models.PlacedComponent{}, false
	}
	return *sel, true
}

// SetBackground sets or clears (nil) the background image.
func (c *Canvas) SetBackground(info *models.FileInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchLocked()
	c.background = info
}

// Pointer feeds one pointer event to the engine.
func (c *Canvas) Pointer(ev canvas.PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchLocked()
	c.engine.Handle(ev)
}

// View returns the engine's transient view state.
func (c *Canvas) View() canvas.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.View()
}

// Scene renders the canvas against a variable snapshot.
func (c *Canvas) Scene(vars []models.PlcVariable) canvas.Scene {
	c.mu.Lock()
	defer c.mu.Unlock()
	bg := ""
	if c.background != nil {
		bg = c.background.URL()
	}
	return c.engine.Scene(vars, bg)
}

// EditorView renders the properties editor for the current selection.
func (c *Canvas) EditorView(vars []models.PlcVariable, query string) editor.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return editor.Build(c.selectedLocked(), vars, query)
}

// Edit applies one editor field change to the selected component.
func (c *Canvas) Edit(field editor.Field, raw string) (models.PlacedComponent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchLocked()
	sel := c.selectedLocked()
	if sel == nil {
		return models.PlacedComponent{}, models.ErrNothingSelected
	}
	id := sel.ID
	c.editor.Change(sel, field, raw)
	return c.components[c.indexLocked(id)], nil
}

// DeleteSelected removes the selected component through the editor.
func (c *Canvas) DeleteSelected() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchLocked()
	sel := c.selectedLocked()
	if sel == nil {
		return "", models.ErrNothingSelected
	}
	id := sel.ID
	c.editor.RequestDelete(sel)
	return id, nil
}

// LastAccessed returns when the canvas was last used.
func (c *Canvas) LastAccessed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastAccessed
}

// Touch marks the canvas as in use.
func (c *Canvas) Touch() {
	c.mu.Lock()
	c.touchLocked()
	c.mu.Unlock()
}

func (c *Canvas) touchLocked() {
	c.lastAccessed = time.Now()
}

func (c *Canvas) snapshotLocked() []models.PlacedComponent {
	out := make([]models.PlacedComponent, len(c.components))
	for i, comp := range c.components {
		out[i] = comp.Clone()
	}
	return out
}

func (c *Canvas) indexLocked(id string) int {
	for i := range c.components {
		if c.components[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Canvas) selectedLocked() *models.PlacedComponent {
	idx := c.indexLocked(c.engine.Selected())
	if idx < 0 {
		return nil
	}
	sel := c.components[idx].Clone()
	return &sel
}

func (c *Canvas) replaceLocked(comp models.PlacedComponent) error {
	idx := c.indexLocked(comp.ID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", models.ErrComponentNotFound, comp.ID)
	}
	next := make([]models.PlacedComponent, len(c.components))
	copy(next, c.components)
	next[idx] = comp
	c.components = next
	return nil
}

func (c *Canvas) deleteLocked(id string) error {
	idx := c.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", models.ErrComponentNotFound, id)
	}
	next := make([]models.PlacedComponent, 0, len(c.components)-1)
	next = append(next, c.components[:idx]...)
	next = append(next, c.components[idx+1:]...)
	c.components = next
	c.engine.Forget(id)
	return nil
}

// normalize enforces kind immutability and the config lower bounds on a
// component arriving from outside the editor.
func normalize(comp models.PlacedComponent, kind models.ComponentKind) models.PlacedComponent {
	comp = comp.Clone()
	comp.Kind = kind
	if !comp.Position.Finite() {
		comp.Position = models.Point{}
	}
	if comp.Config == nil {
		return comp
	}
	if comp.Config.Scale != nil {
		comp = editor.SetScale(comp, *comp.Config.Scale)
	}
	if comp.Config.RotationDegrees != nil {
		comp = editor.SetRotation(comp, *comp.Config.RotationDegrees)
	}
	if comp.Config.LengthPixels != nil {
		if kind == models.KindLine {
			comp = editor.SetLength(comp, *comp.Config.LengthPixels)
		} else {
			comp.Config.LengthPixels = nil
		}
	}
	return comp
}
