package annotation

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=annotation_repo.go -destination=mock/annotation_repo_mock.go -package=mock
type Repository interface {
	Create(ctx context.Context, a *Annotation) error
	ListByDocument(ctx context.Context, documentID string) ([]Annotation, error)
	FindByID(ctx context.Context, documentID, id string) (*Annotation, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, a *Annotation) error {
	return r.db.WithContext(ctx).Omit("Document", "CreatedBy").Create(a).Error
}

func (r *repository) ListByDocument(ctx context.Context, documentID string) ([]Annotation, error) {
	var out []Annotation
	err := r.db.WithContext(ctx).
		Preload("CreatedBy").
		Where("document_id = ?", documentID).
		Order("page_number ASC, created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) FindByID(ctx context.Context, documentID, id string) (*Annotation, error) {
	var a Annotation
	err := r.db.WithContext(ctx).
		Preload("CreatedBy").
		Where("id = ? AND document_id = ?", id, documentID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Annotation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
