package models

import "errors"

// Lookup errors shared by the session and transport layers.
var (
	ErrSessionNotFound   = errors.New("canvas session not found")
	ErrComponentNotFound = errors.New("component not found")
	ErrNothingSelected   = errors.New("no component selected")
	ErrUnknownKind       = errors.New("unknown component kind")
	ErrVariableNotFound  = errors.New("variable not found")
	ErrFileNotFound      = errors.New("file not found")
)
