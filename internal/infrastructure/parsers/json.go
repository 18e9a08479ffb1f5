package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// UserRef is a user reference in an import file: a numeric ID or an email.
// In JSON it may be written as a number or a string.
type UserRef string

// UnmarshalJSON accepts both 12 and "12".
func (u *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = UserRef(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user reference must be a number or string: %w", err)
	}
	*u = UserRef(n.String())
	return nil
}

// JSONParser parses relationships from JSON format.
type JSONParser struct{}

// Parse reads a JSON array from the reader and returns parsed relationships.
func (p *JSONParser) Parse(r io.Reader) ([]RawRelationship, error) {
	var rels []RawRelationship

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&rels); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	// Set line numbers (array index + 1, 1-indexed)
	for i := range rels {
		rels[i].LineNum = i + 1
	}

	return rels, nil
}
