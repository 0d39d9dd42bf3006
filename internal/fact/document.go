package fact

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeDocument parses a stored fact collection (a JSON array of facts).
// An empty or whitespace-only document is an error, not an empty collection.
func DecodeDocument(data []byte) ([]Fact, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty fact document")
	}
	var facts []Fact
	if err := json.Unmarshal(data, &facts); err != nil {
		return nil, fmt.Errorf("parse fact document: %w", err)
	}
	if facts == nil {
		// "null" decodes to a nil slice
		return nil, fmt.Errorf("fact document is not an array")
	}
	return facts, nil
}

// EncodeDocument serializes a fact collection as an indented JSON array.
func EncodeDocument(facts []Fact) ([]byte, error) {
	if facts == nil {
		facts = []Fact{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(facts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
