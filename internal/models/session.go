package models

import "time"

// CanvasSession is the externally visible summary of one browser session's canvas.
type CanvasSession struct {
	ID             string    `json:"id"`
	ComponentCount int       `json:"componentCount"`
	SelectedID     string    `json:"selectedId,omitempty"`
	BackgroundID   string    `json:"backgroundId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	LastAccessed   time.Time `json:"lastAccessed"`
}
