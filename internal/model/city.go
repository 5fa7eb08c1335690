package model

import "encoding/json"

// City is read-only reference data.
type City struct {
	ID       string          `json:"_id"`
	Name     string          `json:"name"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}
