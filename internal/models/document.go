// Package models defines the shared workspace domain types.
package models

import "time"

// DocumentMeta is a lightweight representation returned by list operations.
type DocumentMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Mention is a directed edge from a document to a mentioned label.
type Mention struct {
	Source string `json:"source"`
	Label  string `json:"label"`
}
