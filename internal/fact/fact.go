package fact

import (
	"encoding/json"
	"strings"
)

// Fact is a single dog fact. Identity is the case-folded description (see Key).
type Fact struct {
	Description string `json:"description"`
}

// UnmarshalJSON accepts both {"description": ...} and the older {"fact": ...} shape.
func (f *Fact) UnmarshalJSON(data []byte) error {
	var raw struct {
		Description *string `json:"description"`
		Fact        *string `json:"fact"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Description != nil:
		f.Description = *raw.Description
	case raw.Fact != nil:
		f.Description = *raw.Fact
	default:
		f.Description = ""
	}
	return nil
}

// Key returns the identity of the fact used for duplicate detection.
func (f Fact) Key() string {
	return Key(f.Description)
}

// IsBlank reports whether the description is empty after trimming whitespace.
func IsBlank(description string) bool {
	return strings.TrimSpace(description) == ""
}

// Descriptions returns the description text of each fact, in order.
func Descriptions(facts []Fact) []string {
	out := make([]string, len(facts))
	for i, f := range facts {
		out[i] = f.Description
	}
	return out
}

// Contains reports whether any fact in facts has the same key as description.
func Contains(facts []Fact, description string) bool {
	key := Key(description)
	for _, f := range facts {
		if f.Key() == key {
			return true
		}
	}
	return false
}
