package response

import (
	"modgraph/internal/graph"
	"time"
)

// ProjectSummary is a project in list views
type ProjectSummary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	OwnerID     uint       `json:"ownerId"`
	LastHash    string     `json:"lastHash,omitempty"`
	CompiledAt  *time.Time `json:"compiledAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ProjectWithDocument is a single project with its graph
type ProjectWithDocument struct {
	ProjectSummary
	Document *graph.Document `json:"document"`
}
