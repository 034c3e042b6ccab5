package models

import "time"

// FileInfo describes an uploaded canvas background image (plant schematic).
type FileInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// URL is the path the browser loads the image from.
func (f *FileInfo) URL() string {
	return "/api/files/" + f.ID
}
