package kafka

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func TestOutboxRepository_Create(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := NewOutboxRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "outbox_events"`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), OutboxEvent{
		ID:            "2b1f0a9e-8d9c-4c4e-9a57-0b0f3f0f5d11",
		AggregateType: "document",
		AggregateID:   "doc-1",
		EventType:     "document.created",
		Topic:         "dms.document.lifecycle.v1",
		Payload:       []byte(`{}`),
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_CreateRejectsInvalid(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := NewOutboxRepository(db)

	err := repo.Create(context.Background(), OutboxEvent{ID: "x", Topic: "t"})

	assert.EqualError(t, err, "outbox payload is required")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_ListPending(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := NewOutboxRepository(db)

	rows := sqlmock.NewRows([]string{"id", "aggregate_id", "event_type", "topic", "payload", "status"}).
		AddRow("e-1", "doc-1", "document.created", "dms.document.lifecycle.v1", []byte(`{}`), OutboxStatusPending).
		AddRow("e-2", "doc-2", "document.status_changed", "dms.document.lifecycle.v1", []byte(`{}`), OutboxStatusFailed)
	mock.ExpectQuery(`^SELECT \* FROM "outbox_events" WHERE status IN \(\$1,\$2\) .* ORDER BY created_at ASC LIMIT \S+$`).
		WillReturnRows(rows)

	events, err := repo.ListPending(context.Background(), 50)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e-1", events[0].ID)
	assert.Equal(t, OutboxStatusFailed, events[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_MarkSent(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := NewOutboxRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "outbox_events" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.MarkSent(context.Background(), "e-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_MarkFailed(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := NewOutboxRepository(db)

	long := strings.Repeat("x", 600)
	mock.ExpectExec(regexp.QuoteMeta(`"next_retry_at"=NOW() + (LEAST(retry_count + 1, $2) * $3 * INTERVAL '1 second'),"retry_count"=retry_count + 1`)).
		WithArgs(long[:maxErrorMessageLen], maxBackoffSteps, 15, OutboxStatusFailed, sqlmock.AnyArg(), "e-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.MarkFailed(context.Background(), "e-1", long))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateOutboxEvent(t *testing.T) {
	valid := OutboxEvent{ID: "1", Topic: "t", Payload: []byte(`{}`), Status: OutboxStatusPending}
	assert.NoError(t, ValidateOutboxEvent(valid))

	bad := valid
	bad.Status = "lost"
	assert.EqualError(t, ValidateOutboxEvent(bad), "invalid outbox status: lost")

	noID := valid
	noID.ID = ""
	assert.EqualError(t, ValidateOutboxEvent(noID), "outbox id is required")
}
