package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project is a saved node graph. Document holds the editor's project JSON.
type Project struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name        string         `gorm:"not null;column:name"`
	Description string         `gorm:"type:text;column:description"`
	OwnerID     uint           `gorm:"index;not null;column:owner_id"`
	Owner       User           `gorm:"foreignKey:OwnerID"`
	Document    string         `gorm:"type:jsonb;not null;column:document"`
	LastHash    string         `gorm:"column:last_hash"`
	CompiledAt  *time.Time     `gorm:"column:compiled_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;column:created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime;column:updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index;column:deleted_at"`
}

func (Project) TableName() string {
	return "projects"
}

func (slf *Project) BeforeCreate(tx *gorm.DB) error {
	if slf.ID == uuid.Nil {
		slf.ID = uuid.New()
	}
	return nil
}
