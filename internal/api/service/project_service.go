package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"modgraph"
	"modgraph/internal/api/handler/mapper"
	"modgraph/internal/api/handler/request"
	"modgraph/internal/api/handler/response"
	"modgraph/internal/api/models"
	"modgraph/internal/api/repo"
	"modgraph/internal/graph"
	"modgraph/pkg"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrForbidden       = errors.New("you do not have access to this project")
)

const maxPageSize = 100

// ProjectStore is the persistence the project service needs
type ProjectStore interface {
	FindByID(id uuid.UUID) (models.Project, error)
	FindByOwner(ownerID uint, page int, pageSize int) ([]models.Project, int64, error)
	Create(project *models.Project) error
	Update(project *models.Project) error
	MarkCompiled(id uuid.UUID, hash string) error
	Delete(id uuid.UUID) error
}

type ProjectService struct {
	projects ProjectStore
	compiler *CompileService
	logger   zerolog.Logger
}

func NewProjectService(compiler *CompileService) *ProjectService {
	return NewProjectServiceWithStore(repo.NewProjectRepository(), compiler, modgraph.Logger)
}

func NewProjectServiceWithStore(store ProjectStore, compiler *CompileService, logger zerolog.Logger) *ProjectService {
	return &ProjectService{
		projects: store,
		compiler: compiler,
		logger:   logger,
	}
}

func (slf *ProjectService) Create(ownerID uint, dto request.CreateProject) (response.ProjectWithDocument, error) {
	doc, err := decodeOrEmpty(dto.Document)
	if err != nil {
		return response.ProjectWithDocument{}, err
	}
	if doc.Metadata.Name == "" {
		doc.Metadata.Name = dto.Name
	}
	if err = doc.Validate(); err != nil {
		return response.ProjectWithDocument{}, err
	}
	data, err := graph.EncodeDocument(doc)
	if err != nil {
		return response.ProjectWithDocument{}, err
	}

	project := models.Project{
		Name:        dto.Name,
		Description: dto.Description,
		OwnerID:     ownerID,
		Document:    string(data),
	}
	if err = slf.projects.Create(&project); err != nil {
		slf.logger.Error().Err(err).Msg("Error creating project")
		return response.ProjectWithDocument{}, err
	}

	slf.logger.Info().Str("projectId", project.ID.String()).Uint("ownerId", ownerID).Msg("Project created")
	return mapper.ProjectToDetails(project, doc), nil
}

func (slf *ProjectService) Get(userID uint, id uuid.UUID) (response.ProjectWithDocument, error) {
	project, doc, err := slf.load(userID, id)
	if err != nil {
		return response.ProjectWithDocument{}, err
	}
	return mapper.ProjectToDetails(project, doc), nil
}

func (slf *ProjectService) List(userID uint, page int, pageSize int) (response.Page[response.ProjectSummary], error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = 20
	}

	projects, total, err := slf.projects.FindByOwner(userID, page, pageSize)
	if err != nil {
		return response.Page[response.ProjectSummary]{}, err
	}

	data := make([]response.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		data = append(data, mapper.ProjectToSummary(p))
	}
	return response.Page[response.ProjectSummary]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

func (slf *ProjectService) Update(userID uint, id uuid.UUID, dto request.UpdateProject) (response.ProjectWithDocument, error) {
	project, doc, err := slf.load(userID, id)
	if err != nil {
		return response.ProjectWithDocument{}, err
	}

	project.Name = pkg.FromPtr(dto.Name, project.Name)
	project.Description = pkg.FromPtr(dto.Description, project.Description)
	if len(dto.Document) > 0 {
		if doc, err = graph.DecodeDocument(dto.Document); err != nil {
			return response.ProjectWithDocument{}, err
		}
		if err = doc.Validate(); err != nil {
			return response.ProjectWithDocument{}, err
		}
		data, err := graph.EncodeDocument(doc)
		if err != nil {
			return response.ProjectWithDocument{}, err
		}
		project.Document = string(data)
	}

	if err = slf.projects.Update(&project); err != nil {
		slf.logger.Error().Err(err).Str("projectId", id.String()).Msg("Error updating project")
		return response.ProjectWithDocument{}, err
	}
	return mapper.ProjectToDetails(project, doc), nil
}

func (slf *ProjectService) Delete(userID uint, id uuid.UUID) error {
	if _, _, err := slf.load(userID, id); err != nil {
		return err
	}
	if err := slf.projects.Delete(id); err != nil {
		slf.logger.Error().Err(err).Str("projectId", id.String()).Msg("Error deleting project")
		return err
	}
	slf.logger.Info().Str("projectId", id.String()).Msg("Project deleted")
	return nil
}

// Compile compiles the stored document and records its hash on the project
func (slf *ProjectService) Compile(ctx context.Context, userID uint, id uuid.UUID) (*CompileOutput, error) {
	project, doc, err := slf.load(userID, id)
	if err != nil {
		return nil, err
	}

	out, err := slf.compiler.CompileProject(ctx, id.String(), userID, doc)
	if err != nil {
		return nil, err
	}
	if project.LastHash != out.Hash {
		if err = slf.projects.MarkCompiled(id, out.Hash); err != nil {
			slf.logger.Warn().Err(err).Str("projectId", id.String()).Msg("Failed to record compile hash")
		}
	}
	return out, nil
}

// CanAccess reports whether userID may open the project's live room
func (slf *ProjectService) CanAccess(userID uint, id uuid.UUID) error {
	_, _, err := slf.load(userID, id)
	return err
}

func (slf *ProjectService) load(userID uint, id uuid.UUID) (models.Project, *graph.Document, error) {
	project, err := slf.projects.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Project{}, nil, ErrProjectNotFound
		}
		return models.Project{}, nil, err
	}
	if project.OwnerID != userID {
		return models.Project{}, nil, ErrForbidden
	}

	doc, err := graph.DecodeDocument([]byte(project.Document))
	if err != nil {
		return models.Project{}, nil, fmt.Errorf("stored project %s is corrupt: %w", id, err)
	}
	return project, doc, nil
}

func decodeOrEmpty(raw []byte) (*graph.Document, error) {
	if len(raw) == 0 {
		return &graph.Document{
			Version:     1,
			Nodes:       make([]graph.Node, 0),
			Connections: make([]graph.Connection, 0),
		}, nil
	}
	return graph.DecodeDocument(raw)
}
