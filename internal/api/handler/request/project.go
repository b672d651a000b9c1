package request

import "encoding/json"

// CreateProject creates a project. Document is the editor's project JSON and
// may be omitted for an empty graph.
type CreateProject struct {
	Name        string          `json:"name" validate:"required,max=128"`
	Description string          `json:"description" validate:"max=2048"`
	Document    json.RawMessage `json:"document"`
}

type UpdateProject struct {
	Name        *string         `json:"name" validate:"omitempty,min=1,max=128"`
	Description *string         `json:"description" validate:"omitempty,max=2048"`
	Document    json.RawMessage `json:"document"`
}

type RecoverScript struct {
	Script string `json:"script" validate:"required"`
}
