// Package parsers provides parsers for importing relationships from various formats.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawRelationship is one relationship parsed from an external source before
// validation. UserA and UserB hold either a user ID or an email address.
type RawRelationship struct {
	Type    string  `json:"type"`
	UserA   UserRef `json:"user_a"`
	UserB   UserRef `json:"user_b"`
	LineNum int     `json:"-"` // Line number in source file (set by parser)
}

// Parser defines the interface for parsing relationships from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawRelationship, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}
	case ".csv":
		return &CSVParser{}
	default:
		return nil
	}
}
