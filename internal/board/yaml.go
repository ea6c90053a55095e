package board

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMalformed reports a board document that cannot be parsed into the
// settings+tasks shape.
var ErrMalformed = errors.New("malformed board document")

// DecodeBoard parses a board document. Missing keys default to empty
// structures. Legacy files holding a bare task sequence still load. A
// document that fits neither shape fails with ErrMalformed.
func DecodeBoard(data []byte) (Board, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return normalized(Board{}), nil
	}
	var b Board
	docErr := yaml.Unmarshal(data, &b)
	if docErr == nil {
		return normalized(b), nil
	}
	var tasks []Task
	if err := yaml.Unmarshal(data, &tasks); err == nil {
		return normalized(Board{Tasks: tasks}), nil
	}
	return Board{}, fmt.Errorf("%w: %v", ErrMalformed, docErr)
}

// EncodeBoard renders the document written back to disk.
func EncodeBoard(b Board) ([]byte, error) {
	out, err := yaml.Marshal(normalized(b))
	if err != nil {
		return nil, fmt.Errorf("encode board: %w", err)
	}
	return out, nil
}

func normalized(b Board) Board {
	if b.Tasks == nil {
		b.Tasks = []Task{}
	}
	for i := range b.Tasks {
		if b.Tasks[i].Tags == nil {
			b.Tasks[i].Tags = []string{}
		}
		if b.Tasks[i].Type == "" {
			b.Tasks[i].Type = TypeFeature
		}
	}
	return b
}
