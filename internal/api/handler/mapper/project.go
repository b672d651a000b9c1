package mapper

import (
	"modgraph/internal/api/handler/response"
	"modgraph/internal/api/models"
	"modgraph/internal/graph"
)

func ProjectToSummary(project models.Project) response.ProjectSummary {
	return response.ProjectSummary{
		ID:          project.ID.String(),
		Name:        project.Name,
		Description: project.Description,
		OwnerID:     project.OwnerID,
		LastHash:    project.LastHash,
		CompiledAt:  project.CompiledAt,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

func ProjectToDetails(project models.Project, doc *graph.Document) response.ProjectWithDocument {
	return response.ProjectWithDocument{
		ProjectSummary: ProjectToSummary(project),
		Document:       doc,
	}
}
