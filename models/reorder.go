package models

import "fmt"

// ReorderRequest maps entity IDs to their new positions, the shape
// drag-and-drop editors post: {"<id>": 0, "<id>": 1}.
type ReorderRequest map[string]int

func (r ReorderRequest) Validate() error {
	for id, pos := range r {
		if id == "" {
			return fmt.Errorf("id cannot be empty")
		}
		if pos < 0 {
			return fmt.Errorf("position for %s cannot be negative", id)
		}
	}
	return nil
}

// ReorderResult counts how a bulk reorder went. Skipped covers IDs that do
// not exist or are not owned by the caller.
type ReorderResult struct {
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// ReorderAck is the acknowledgement body of reorder endpoints.
type ReorderAck struct {
	Saved string `json:"saved"`
}
