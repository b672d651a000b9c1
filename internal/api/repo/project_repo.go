package repo

import (
	"modgraph"
	"modgraph/internal/api/models"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	Db *gorm.DB
}

func NewProjectRepository() *ProjectRepository {
	return &ProjectRepository{Db: modgraph.DB}
}

func (slf *ProjectRepository) FindByID(id uuid.UUID) (models.Project, error) {
	var project models.Project
	err := slf.Db.First(&project, "id = ?", id).Error
	return project, err
}

// FindByOwner returns one page of the owner's projects, newest first, and the
// total count.
func (slf *ProjectRepository) FindByOwner(ownerID uint, page int, pageSize int) ([]models.Project, int64, error) {
	var projects []models.Project
	var total int64

	query := slf.Db.Model(&models.Project{}).Where("owner_id = ?", ownerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Omit("document").
		Order("updated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&projects).Error
	return projects, total, err
}

func (slf *ProjectRepository) Create(project *models.Project) error {
	return slf.Db.Create(project).Error
}

func (slf *ProjectRepository) Update(project *models.Project) error {
	return slf.Db.Omit("Owner").Save(project).Error
}

// MarkCompiled records the hash of the last successfully compiled graph
func (slf *ProjectRepository) MarkCompiled(id uuid.UUID, hash string) error {
	now := time.Now()
	return slf.Db.Model(&models.Project{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_hash": hash, "compiled_at": &now}).Error
}

func (slf *ProjectRepository) Delete(id uuid.UUID) error {
	return slf.Db.Delete(&models.Project{}, "id = ?", id).Error
}
