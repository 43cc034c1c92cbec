package document

import (
	"strings"
	"time"

	"github.com/ANDREW-SIGEI/kemri27/internal/user"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusInReview Status = "IN_REVIEW"
)

var AllStatuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusInReview}

// ParseStatus accepts exactly the four enum values, case-insensitively.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, v := range AllStatuses {
		if st == v {
			return st, true
		}
	}
	return "", false
}

type Document struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey"`
	Title       string       `gorm:"type:varchar(255);not null"`
	Subject     string       `gorm:"type:varchar(255);not null"`
	Content     string       `gorm:"type:text;not null;default:''"`
	Status      Status       `gorm:"type:varchar(20);not null;default:PENDING;index"`
	SenderID    uuid.UUID    `gorm:"type:uuid;not null;index"`
	Sender      user.User    `gorm:"foreignKey:SenderID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Recipients  []user.User  `gorm:"many2many:document_recipients;constraint:OnDelete:CASCADE"`
	Attachments []Attachment `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time    `gorm:"index"`
	UpdatedAt   time.Time
}

func (Document) TableName() string { return "documents" }

// DocumentRecipient is the join row between a document and a recipient.
type DocumentRecipient struct {
	DocumentID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

func (DocumentRecipient) TableName() string { return "document_recipients" }

type Attachment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Filename   string    `gorm:"type:varchar(255);not null"`
	Path       string    `gorm:"type:varchar(512);not null"`
	MimeType   string    `gorm:"type:varchar(255);not null"`
	Size       int64     `gorm:"not null"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index"`
	UploadedAt time.Time `gorm:"autoCreateTime"`
}

func (Attachment) TableName() string { return "attachments" }

// Access is the slice of a document the authorization gate needs.
type Access struct {
	DocumentID   string
	SenderID     string
	Status       Status
	RecipientIDs []string
}

func (d *Document) Access() Access {
	ids := make([]string, 0, len(d.Recipients))
	for _, r := range d.Recipients {
		ids = append(ids, r.ID.String())
	}
	return Access{
		DocumentID:   d.ID.String(),
		SenderID:     d.SenderID.String(),
		Status:       d.Status,
		RecipientIDs: ids,
	}
}
