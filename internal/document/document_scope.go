package document

import (
	"strings"

	"github.com/ANDREW-SIGEI/kemri27/internal/domain"

	"gorm.io/gorm"
)

// Viewer decides which documents a query may return. All is set for admins.
type Viewer struct {
	UserID string
	All    bool
}

func ViewerFor(actor domain.Actor) Viewer {
	return Viewer{UserID: actor.ID, All: actor.IsAdmin()}
}

const recipientSubquery = "SELECT document_id FROM document_recipients WHERE user_id = ?"

// VisibleTo limits a documents query to rows the viewer sent or received.
func VisibleTo(v Viewer) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if v.All {
			return db
		}
		return db.Where("(documents.sender_id = ? OR documents.id IN ("+recipientSubquery+"))", v.UserID, v.UserID)
	}
}

func SentBy(userID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("documents.sender_id = ?", userID)
	}
}

func ReceivedBy(userID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("documents.id IN ("+recipientSubquery+")", userID)
	}
}

func withStatus(status Status) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if status == "" {
			return db
		}
		return db.Where("documents.status = ?", status)
	}
}

func matching(search string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		search = strings.TrimSpace(search)
		if search == "" {
			return db
		}
		like := "%" + escapeLike(search) + "%"
		return db.Where("(documents.title ILIKE ? OR documents.subject ILIKE ?)", like, like)
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
