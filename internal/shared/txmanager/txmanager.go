package txmanager

import (
	"context"

	"gorm.io/gorm"
)

// Manager runs fn inside a database transaction. A non-nil error from fn
// rolls the transaction back.
type Manager interface {
	WithinTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormManager struct {
	db *gorm.DB
}

func New(db *gorm.DB) Manager {
	return &gormManager{db: db}
}

func (m *gormManager) WithinTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return m.db.WithContext(ctx).Transaction(fn)
}
