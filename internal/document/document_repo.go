package document

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListFilter struct {
	Viewer Viewer
	Status Status
	Search string
	Offset int
	// Limit 0 returns every matching row.
	Limit int
}

type StatusCount struct {
	Status Status
	Count  int64
}

// MonthCount is one bucket of a monthly trend; Month is formatted YYYY-MM.
type MonthCount struct {
	Month string
	Count int64
}

//go:generate mockgen -source=document_repo.go -destination=mock/document_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, doc *Document) error
	AddRecipients(ctx context.Context, documentID uuid.UUID, userIDs []uuid.UUID) error
	CreateAttachment(ctx context.Context, a *Attachment) error
	FindByID(ctx context.Context, id string) (*Document, error)
	FindAccess(ctx context.Context, id string) (*Access, error)
	FindAttachment(ctx context.Context, documentID, attachmentID string) (*Attachment, error)
	List(ctx context.Context, f ListFilter) ([]Document, int64, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	Delete(ctx context.Context, id string) error

	CountByStatus(ctx context.Context, v Viewer) ([]StatusCount, error)
	CountPendingReview(ctx context.Context, userID string) (int64, error)
	CountStatusSince(ctx context.Context, v Viewer, status Status, since time.Time) (int64, error)
	MonthlySent(ctx context.Context, userID string, since time.Time) ([]MonthCount, error)
	MonthlyReceived(ctx context.Context, userID string, since time.Time) ([]MonthCount, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the document row only. Recipients and attachments are
// written through AddRecipients and CreateAttachment.
func (r *repository) Create(ctx context.Context, doc *Document) error {
	return r.db.WithContext(ctx).
		Omit("Sender", "Recipients", "Attachments").
		Create(doc).Error
}

func (r *repository) AddRecipients(ctx context.Context, documentID uuid.UUID, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]DocumentRecipient, 0, len(userIDs))
	for _, id := range userIDs {
		rows = append(rows, DocumentRecipient{DocumentID: documentID, UserID: id})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) CreateAttachment(ctx context.Context, a *Attachment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Recipients").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("uploaded_at ASC")
		})
}

func (r *repository) FindByID(ctx context.Context, id string) (*Document, error) {
	var doc Document
	if err := r.preloaded(ctx).First(&doc, "documents.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *repository) FindAccess(ctx context.Context, id string) (*Access, error) {
	var doc Document
	err := r.db.WithContext(ctx).
		Select("id", "sender_id", "status").
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	var recipientIDs []string
	err = r.db.WithContext(ctx).
		Model(&DocumentRecipient{}).
		Where("document_id = ?", id).
		Pluck("user_id", &recipientIDs).Error
	if err != nil {
		return nil, err
	}

	return &Access{
		DocumentID:   doc.ID.String(),
		SenderID:     doc.SenderID.String(),
		Status:       doc.Status,
		RecipientIDs: recipientIDs,
	}, nil
}

func (r *repository) FindAttachment(ctx context.Context, documentID, attachmentID string) (*Attachment, error) {
	var a Attachment
	err := r.db.WithContext(ctx).
		Where("id = ? AND document_id = ?", attachmentID, documentID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]Document, int64, error) {
	scopes := []func(*gorm.DB) *gorm.DB{VisibleTo(f.Viewer), withStatus(f.Status), matching(f.Search)}

	var total int64
	if err := r.db.WithContext(ctx).Model(&Document{}).Scopes(scopes...).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []Document{}, 0, nil
	}

	q := r.preloaded(ctx).Scopes(scopes...).Order("documents.created_at DESC")
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}

	var docs []Document
	if err := q.Find(&docs).Error; err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// UpdateStatus writes unconditionally; any status may follow any other.
func (r *repository) UpdateStatus(ctx context.Context, id string, status Status) error {
	res := r.db.WithContext(ctx).
		Model(&Document{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes recipient links, attachment rows and the document.
// Annotations go with the document through their foreign key. Callers run
// it inside a transaction.
func (r *repository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("document_id = ?", id).Delete(&DocumentRecipient{}).Error; err != nil {
		return err
	}
	if err := db.Where("document_id = ?", id).Delete(&Attachment{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&Document{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CountByStatus(ctx context.Context, v Viewer) ([]StatusCount, error) {
	var out []StatusCount
	err := r.db.WithContext(ctx).
		Model(&Document{}).
		Scopes(VisibleTo(v)).
		Select("documents.status AS status, COUNT(*) AS count").
		Group("documents.status").
		Scan(&out).Error
	return out, err
}

// CountPendingReview counts documents awaiting a decision from userID.
func (r *repository) CountPendingReview(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&Document{}).
		Scopes(ReceivedBy(userID)).
		Where("documents.status IN ?", []Status{StatusPending, StatusInReview}).
		Count(&n).Error
	return n, err
}

func (r *repository) CountStatusSince(ctx context.Context, v Viewer, status Status, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&Document{}).
		Scopes(VisibleTo(v), withStatus(status)).
		Where("documents.updated_at >= ?", since).
		Count(&n).Error
	return n, err
}

func (r *repository) MonthlySent(ctx context.Context, userID string, since time.Time) ([]MonthCount, error) {
	return r.monthly(ctx, SentBy(userID), since)
}

func (r *repository) MonthlyReceived(ctx context.Context, userID string, since time.Time) ([]MonthCount, error) {
	return r.monthly(ctx, ReceivedBy(userID), since)
}

func (r *repository) monthly(ctx context.Context, scope func(*gorm.DB) *gorm.DB, since time.Time) ([]MonthCount, error) {
	var out []MonthCount
	err := r.db.WithContext(ctx).
		Model(&Document{}).
		Scopes(scope).
		Select("to_char(date_trunc('month', documents.created_at), 'YYYY-MM') AS month, COUNT(*) AS count").
		Where("documents.created_at >= ?", since).
		Group("month").
		Order("month").
		Scan(&out).Error
	return out, err
}
