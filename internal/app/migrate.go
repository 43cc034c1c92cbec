package app

import (
	"github.com/ANDREW-SIGEI/kemri27/internal/annotation"
	"github.com/ANDREW-SIGEI/kemri27/internal/document"
	"github.com/ANDREW-SIGEI/kemri27/internal/messaging/kafka"
	"github.com/ANDREW-SIGEI/kemri27/internal/user"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the API owns. Order matters for the
// foreign keys.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&document.Document{}, "Recipients", &document.DocumentRecipient{}); err != nil {
		return err
	}
	return db.AutoMigrate(
		&user.User{},
		&document.Document{},
		&document.DocumentRecipient{},
		&document.Attachment{},
		&annotation.Annotation{},
		&kafka.OutboxEvent{},
	)
}
