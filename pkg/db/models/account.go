package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is a registered business tenant.
type Account struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email           string     `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash    string     `gorm:"column:password_hash;not null"`
	CompanyName     string     `gorm:"column:company_name;not null"`
	ResponsibleName string     `gorm:"column:responsible_name;not null"`
	Phone           *string    `gorm:"column:phone"`
	IsActive        bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt     *time.Time `gorm:"column:last_login_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
