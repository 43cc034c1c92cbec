package annotation

import (
	"time"

	"github.com/ANDREW-SIGEI/kemri27/internal/document"
	"github.com/ANDREW-SIGEI/kemri27/internal/user"

	"github.com/google/uuid"
)

// Annotation is a note pinned to a point on one page of a document. X and Y
// are fractions of the page width and height.
type Annotation struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"`
	DocumentID  uuid.UUID         `gorm:"type:uuid;not null;index:idx_annotations_document_page,priority:1"`
	Document    document.Document `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
	PageNumber  int               `gorm:"not null;index:idx_annotations_document_page,priority:2"`
	X           float64           `gorm:"not null"`
	Y           float64           `gorm:"not null"`
	Text        string            `gorm:"type:text;not null"`
	CreatedByID uuid.UUID         `gorm:"type:uuid;not null"`
	CreatedBy   user.User         `gorm:"foreignKey:CreatedByID;constraint:OnDelete:RESTRICT"`
	CreatedAt   time.Time
}

func (Annotation) TableName() string { return "annotations" }
