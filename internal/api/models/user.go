package models

import (
	"time"

	"gorm.io/gorm"
)

type AppRole string

const (
	RoleUser  AppRole = "user"
	RoleAdmin AppRole = "admin"
)

type User struct {
	ID           uint           `gorm:"primaryKey"`
	Email        string         `gorm:"uniqueIndex;not null"`
	Password     string         `gorm:"not null;column:password"`
	DisplayName  string         `gorm:"not null;column:display_name"`
	Role         AppRole        `gorm:"not null;default:user;column:role"`
	Active       bool           `gorm:"default:true;column:active"`
	RefreshToken string         `gorm:"type:text;column:refresh_token"`
	CreatedAt    time.Time      `gorm:"autoCreateTime;column:created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime;column:updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index;column:deleted_at"`
}

func (User) TableName() string {
	return "users"
}
