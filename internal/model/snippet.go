// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Field defaults applied when a snippet is created without them.
const (
	DefaultLanguage = "python"
	DefaultStyle    = "friendly"
)

// Snippet represents a saved code snippet.
//
// Snippet is the persisted record, not the wire shape. The JSON representation
// lives in the serializer package so the stored columns (Created) can differ
// from what clients see.
type Snippet struct {
	ID       int64
	Created  time.Time
	Title    string
	Code     string
	Linenos  bool
	Language string
	Style    string
}

// NewSnippet returns a snippet carrying the column defaults.
func NewSnippet() *Snippet {
	return &Snippet{
		Language: DefaultLanguage,
		Style:    DefaultStyle,
	}
}
