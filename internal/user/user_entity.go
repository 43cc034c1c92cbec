package user

import (
	"time"

	"github.com/ANDREW-SIGEI/kemri27/internal/domain"

	"github.com/google/uuid"
)

// User is never hard-deleted; documents keep pointing at their sender.
type User struct {
	ID         uuid.UUID   `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Email      string      `gorm:"column:email;type:varchar(255);not null;uniqueIndex:uq_users_email"`
	Name       string      `gorm:"column:name;type:varchar(255);not null"`
	Password   string      `gorm:"column:password;type:text;not null"`
	Role       domain.Role `gorm:"column:role;type:varchar(20);not null;default:USER"`
	Department *string     `gorm:"column:department;type:varchar(255)"`
	CreatedAt  time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
