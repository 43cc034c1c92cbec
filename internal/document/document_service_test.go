package document_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ANDREW-SIGEI/kemri27/internal/bootstrap"
	"github.com/ANDREW-SIGEI/kemri27/internal/document"
	documenterrors "github.com/ANDREW-SIGEI/kemri27/internal/document/errors"
	docMock "github.com/ANDREW-SIGEI/kemri27/internal/document/mock"
	"github.com/ANDREW-SIGEI/kemri27/internal/domain"
	"github.com/ANDREW-SIGEI/kemri27/internal/events"
	"github.com/ANDREW-SIGEI/kemri27/internal/messaging/kafka"
	kafkaMock "github.com/ANDREW-SIGEI/kemri27/internal/messaging/kafka/mock"
	"github.com/ANDREW-SIGEI/kemri27/internal/rbac"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/apperror"
	"github.com/ANDREW-SIGEI/kemri27/internal/storage"
	storageMock "github.com/ANDREW-SIGEI/kemri27/internal/storage/mock"
	"github.com/ANDREW-SIGEI/kemri27/internal/user"
	userMock "github.com/ANDREW-SIGEI/kemri27/internal/user/mock"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type fakeTx struct{ calls int }

func (f *fakeTx) WithinTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	f.calls++
	return fn(nil)
}

type recordingAudit struct{ entries []bootstrap.AuditLog }

func (r *recordingAudit) Log(_ context.Context, e bootstrap.AuditLog) {
	r.entries = append(r.entries, e)
}

type serviceDeps struct {
	tx      *fakeTx
	repo    *docMock.MockRepository
	users   *userMock.MockRepository
	outbox  *kafkaMock.MockOutboxRepository
	storage *storageMock.MockStorage
	audit   *recordingAudit
	service document.Service
}

func setupServiceTest(t *testing.T, rdb ...*redis.Client) *serviceDeps {
	ctrl := gomock.NewController(t)
	gate, err := rbac.NewDefaultService()
	require.NoError(t, err)

	d := &serviceDeps{
		tx:      &fakeTx{},
		repo:    docMock.NewMockRepository(ctrl),
		users:   userMock.NewMockRepository(ctrl),
		outbox:  kafkaMock.NewMockOutboxRepository(ctrl),
		storage: storageMock.NewMockStorage(ctrl),
		audit:   &recordingAudit{},
	}
	d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo).AnyTimes()
	d.outbox.EXPECT().WithTx(gomock.Any()).Return(d.outbox).AnyTimes()

	var client *redis.Client
	if len(rdb) > 0 {
		client = rdb[0]
	}
	d.service = document.NewService(document.Deps{
		Tx:      d.tx,
		Repo:    d.repo,
		Users:   d.users,
		Outbox:  d.outbox,
		Storage: d.storage,
		Gate:    gate,
		Redis:   client,
		Audit:   d.audit,
	})
	return d
}

type fixture struct {
	doc       *document.Document
	sender    domain.Actor
	recipient domain.Actor
	stranger  domain.Actor
	admin     domain.Actor
}

func newFixture() fixture {
	senderID, recipientID := uuid.New(), uuid.New()
	doc := &document.Document{
		ID:         uuid.New(),
		Title:      "Lab report",
		Subject:    "Q3",
		Status:     document.StatusPending,
		SenderID:   senderID,
		Sender:     user.User{ID: senderID, Name: "Sender", Email: "s@kemri.org"},
		Recipients: []user.User{{ID: recipientID, Name: "Recipient", Email: "r@kemri.org"}},
	}
	return fixture{
		doc:       doc,
		sender:    domain.Actor{ID: senderID.String(), Role: domain.RoleUser},
		recipient: domain.Actor{ID: recipientID.String(), Role: domain.RoleUser},
		stranger:  domain.Actor{ID: uuid.NewString(), Role: domain.RoleUser},
		admin:     domain.Actor{ID: uuid.NewString(), Role: domain.RoleAdmin},
	}
}

func (f fixture) access() *document.Access {
	a := f.doc.Access()
	return &a
}

func usersWithIDs(ids []string) []user.User {
	out := make([]user.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, user.User{ID: uuid.MustParse(id)})
	}
	return out
}

func TestDocumentService_Create_PersistsExactRecipientsAndAttachments(t *testing.T) {
	ctx := context.Background()

	for n := 0; n <= 5; n++ {
		for m := 0; m <= 5; m++ {
			t.Run(fmt.Sprintf("%d recipients %d attachments", n, m), func(t *testing.T) {
				deps := setupServiceTest(t)
				sender := domain.Actor{ID: uuid.NewString(), Role: domain.RoleUser}

				recipientIDs := make([]string, n)
				for i := range recipientIDs {
					recipientIDs[i] = uuid.NewString()
				}
				files := make([]document.UploadFile, m)
				for i := range files {
					body := fmt.Sprintf("file-%d", i)
					files[i] = document.UploadFile{
						Filename:    fmt.Sprintf("f%d.pdf", i),
						ContentType: "application/pdf",
						Size:        int64(len(body)),
						Open: func() (io.ReadCloser, error) {
							return io.NopCloser(strings.NewReader(body)), nil
						},
					}
				}

				var (
					docID       uuid.UUID
					linked      []uuid.UUID
					attachments atomic.Int32
				)

				if n > 0 {
					deps.users.EXPECT().FindByIDs(ctx, recipientIDs).Return(usersWithIDs(recipientIDs), nil)
				}
				deps.repo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, d *document.Document) error {
					docID = d.ID
					assert.Equal(t, document.StatusPending, d.Status)
					assert.Equal(t, sender.ID, d.SenderID.String())
					return nil
				})
				deps.repo.EXPECT().AddRecipients(ctx, gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id uuid.UUID, ids []uuid.UUID) error {
					assert.Equal(t, docID, id)
					linked = ids
					return nil
				})
				deps.outbox.EXPECT().Create(ctx, gomock.Any()).Return(nil)
				deps.storage.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, key string, r io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
						data, err := io.ReadAll(r)
						require.NoError(t, err)
						return storage.ObjectInfo{Key: key, Size: int64(len(data)), ContentType: opt.ContentType}, nil
					}).Times(m)
				deps.repo.EXPECT().CreateAttachment(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, a *document.Attachment) error {
						assert.Equal(t, docID, a.DocumentID)
						attachments.Add(1)
						return nil
					}).Times(m)
				deps.repo.EXPECT().FindByID(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, id string) (*document.Document, error) {
					return &document.Document{ID: docID, SenderID: uuid.MustParse(sender.ID), Status: document.StatusPending}, nil
				})

				resp, err := deps.service.Create(ctx, sender, document.CreateDocumentRequest{
					Title:        "Memo",
					Subject:      "Budget",
					RecipientIDs: recipientIDs,
				}, files)

				require.NoError(t, err)
				assert.Equal(t, docID.String(), resp.ID)
				assert.Len(t, linked, n)
				assert.Equal(t, int32(m), attachments.Load())
				assert.Equal(t, 1, deps.tx.calls)
			})
		}
	}
}

func TestDocumentService_Create(t *testing.T) {
	ctx := context.Background()
	sender := domain.Actor{ID: uuid.NewString(), Role: domain.RoleUser}

	t.Run("unknown recipient creates nothing", func(t *testing.T) {
		deps := setupServiceTest(t)
		known, missing := uuid.NewString(), uuid.NewString()
		deps.users.EXPECT().FindByIDs(ctx, []string{known, missing}).Return(usersWithIDs([]string{known}), nil)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		_, err := deps.service.Create(ctx, sender, document.CreateDocumentRequest{
			Title: "t", Subject: "s", RecipientIDs: []string{known, missing},
		}, nil)

		assert.ErrorIs(t, err, documenterrors.ErrRecipientNotFound)
		assert.Zero(t, deps.tx.calls)
	})

	t.Run("malformed recipient id", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.Create(ctx, sender, document.CreateDocumentRequest{
			Title: "t", Subject: "s", RecipientIDs: []string{"not-a-uuid"},
		}, nil)

		assert.ErrorIs(t, err, documenterrors.ErrRecipientNotFound)
		assert.Equal(t, 400, apperror.ToHTTP(err).Status)
	})

	t.Run("duplicate recipients are linked once", func(t *testing.T) {
		deps := setupServiceTest(t)
		r := uuid.NewString()
		deps.users.EXPECT().FindByIDs(ctx, []string{r}).Return(usersWithIDs([]string{r}), nil)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.repo.EXPECT().AddRecipients(ctx, gomock.Any(), []uuid.UUID{uuid.MustParse(r)}).Return(nil)
		deps.outbox.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, e kafka.OutboxEvent) error {
			assert.Equal(t, events.DocumentLifecycleTopic, e.Topic)
			assert.Equal(t, events.EventDocumentCreated, e.EventType)
			assert.Equal(t, "document", e.AggregateType)
			assert.Contains(t, string(e.Payload), r)
			return nil
		})
		deps.repo.EXPECT().FindByID(ctx, gomock.Any()).Return(&document.Document{}, nil)

		_, err := deps.service.Create(ctx, sender, document.CreateDocumentRequest{
			Title: "t", Subject: "s", RecipientIDs: []string{r, r, " " + r},
		}, nil)

		assert.NoError(t, err)
	})

	t.Run("transaction failure is internal", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("db down"))

		_, err := deps.service.Create(ctx, sender, document.CreateDocumentRequest{Title: "t", Subject: "s"}, nil)

		assert.ErrorIs(t, err, apperror.ErrInternal)
	})

	t.Run("failed attachment keeps the document", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.repo.EXPECT().AddRecipients(ctx, gomock.Any(), gomock.Any()).Return(nil)
		deps.outbox.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.storage.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(storage.ObjectInfo{}, errors.New("disk full"))
		deps.repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Times(0)

		_, err := deps.service.Create(ctx, sender, document.CreateDocumentRequest{Title: "t", Subject: "s"}, []document.UploadFile{{
			Filename: "a.txt",
			Open:     func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("x")), nil },
		}})

		assert.ErrorIs(t, err, documenterrors.ErrAttachmentUploadFailed)
	})

	t.Run("failed attachment does not cancel its siblings", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.repo.EXPECT().AddRecipients(ctx, gomock.Any(), gomock.Any()).Return(nil)
		deps.outbox.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.storage.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(putCtx context.Context, key string, r io.Reader, _ storage.PutObjectOptions) (storage.ObjectInfo, error) {
				time.Sleep(50 * time.Millisecond)
				if err := putCtx.Err(); err != nil {
					return storage.ObjectInfo{}, err
				}
				data, err := io.ReadAll(r)
				if err != nil {
					return storage.ObjectInfo{}, err
				}
				return storage.ObjectInfo{Key: key, Size: int64(len(data))}, nil
			}).Times(1)
		var stored []*document.Attachment
		deps.repo.EXPECT().CreateAttachment(gomock.Any(), gomock.Any()).
			DoAndReturn(func(attCtx context.Context, a *document.Attachment) error {
				if err := attCtx.Err(); err != nil {
					return err
				}
				stored = append(stored, a)
				return nil
			}).Times(1)
		deps.storage.EXPECT().Delete(gomock.Any(), gomock.Any()).Times(0)

		_, err := deps.service.Create(ctx, sender, document.CreateDocumentRequest{Title: "t", Subject: "s"}, []document.UploadFile{
			{
				Filename: "slow.pdf",
				Open:     func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("%PDF-1.4")), nil },
			},
			{
				Filename: "broken.pdf",
				Open:     func() (io.ReadCloser, error) { return nil, errors.New("disk gone") },
			},
		})

		assert.ErrorIs(t, err, documenterrors.ErrAttachmentUploadFailed)
		require.Len(t, stored, 1)
		assert.Equal(t, "slow.pdf", stored[0].Filename)
		assert.Equal(t, int64(8), stored[0].Size)
	})
}

func TestDocumentService_GetByID_AccessMatrix(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	cases := []struct {
		name  string
		actor domain.Actor
		want  error
	}{
		{"admin", f.admin, nil},
		{"sender", f.sender, nil},
		{"recipient", f.recipient, nil},
		{"stranger", f.stranger, apperror.ErrForbidden},
		{"manager stranger", domain.Actor{ID: uuid.NewString(), Role: domain.RoleManager}, apperror.ErrForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := setupServiceTest(t)
			deps.repo.EXPECT().FindByID(ctx, f.doc.ID.String()).Return(f.doc, nil)

			resp, err := deps.service.GetByID(ctx, tc.actor, f.doc.ID.String())

			if tc.want == nil {
				require.NoError(t, err)
				assert.Equal(t, f.doc.ID.String(), resp.ID)
				assert.Equal(t, "s@kemri.org", resp.Sender.Email)
				return
			}
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, 403, apperror.ToHTTP(err).Status)
		})
	}

	t.Run("missing is 404", func(t *testing.T) {
		deps := setupServiceTest(t)
		id := uuid.NewString()
		deps.repo.EXPECT().FindByID(ctx, id).Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.GetByID(ctx, f.admin, id)

		assert.ErrorIs(t, err, documenterrors.ErrDocumentNotFound)
	})

	t.Run("malformed id is 404 without a query", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.GetByID(ctx, f.admin, "nope")

		assert.ErrorIs(t, err, documenterrors.ErrDocumentNotFound)
	})
}

func TestDocumentService_UpdateStatus_AccessMatrix(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	cases := []struct {
		name    string
		actor   domain.Actor
		allowed bool
	}{
		{"admin", f.admin, true},
		{"recipient", f.recipient, true},
		{"sender", f.sender, false},
		{"stranger", f.stranger, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := setupServiceTest(t)
			id := f.doc.ID.String()
			deps.repo.EXPECT().FindAccess(ctx, id).Return(f.access(), nil)

			if tc.allowed {
				deps.repo.EXPECT().UpdateStatus(ctx, id, document.StatusApproved).Return(nil)
				deps.outbox.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, e kafka.OutboxEvent) error {
					assert.Equal(t, events.EventDocumentStatusChanged, e.EventType)
					assert.Equal(t, id, e.AggregateID)
					return nil
				})
				deps.repo.EXPECT().FindByID(ctx, id).Return(&document.Document{ID: f.doc.ID, Status: document.StatusApproved}, nil)
			} else {
				deps.repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			}

			resp, err := deps.service.UpdateStatus(ctx, tc.actor, id, document.UpdateStatusRequest{Status: "approved"})

			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, document.StatusApproved, resp.Status)
				require.Len(t, deps.audit.entries, 1)
				assert.Equal(t, "DOCUMENT_STATUS_CHANGED", deps.audit.entries[0].Action)
				assert.Equal(t, "PENDING", deps.audit.entries[0].Meta["from"])
				return
			}
			assert.ErrorIs(t, err, apperror.ErrForbidden)
			assert.Zero(t, deps.tx.calls)
			assert.Empty(t, deps.audit.entries)
		})
	}
}

func TestDocumentService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	t.Run("invalid status", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.UpdateStatus(ctx, f.admin, f.doc.ID.String(), document.UpdateStatusRequest{Status: "ARCHIVED"})

		assert.ErrorIs(t, err, documenterrors.ErrInvalidStatus)
	})

	t.Run("no recipients means only admin", func(t *testing.T) {
		deps := setupServiceTest(t)
		id := f.doc.ID.String()
		deps.repo.EXPECT().FindAccess(ctx, id).Return(&document.Access{DocumentID: id, SenderID: f.sender.ID, Status: document.StatusPending}, nil)

		_, err := deps.service.UpdateStatus(ctx, f.sender, id, document.UpdateStatusRequest{Status: "APPROVED"})

		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("any status may follow any other", func(t *testing.T) {
		deps := setupServiceTest(t)
		id := f.doc.ID.String()
		approved := &document.Access{DocumentID: id, SenderID: f.sender.ID, Status: document.StatusApproved}
		deps.repo.EXPECT().FindAccess(ctx, id).Return(approved, nil)
		deps.repo.EXPECT().UpdateStatus(ctx, id, document.StatusPending).Return(nil)
		deps.outbox.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.repo.EXPECT().FindByID(ctx, id).Return(&document.Document{Status: document.StatusPending}, nil)

		resp, err := deps.service.UpdateStatus(ctx, f.admin, id, document.UpdateStatusRequest{Status: "PENDING"})

		require.NoError(t, err)
		assert.Equal(t, document.StatusPending, resp.Status)
	})

	t.Run("missing document", func(t *testing.T) {
		deps := setupServiceTest(t)
		id := uuid.NewString()
		deps.repo.EXPECT().FindAccess(ctx, id).Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.UpdateStatus(ctx, f.admin, id, document.UpdateStatusRequest{Status: "APPROVED"})

		assert.ErrorIs(t, err, documenterrors.ErrDocumentNotFound)
	})
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("sender deletes and objects are removed", func(t *testing.T) {
		f := newFixture()
		f.doc.Attachments = []document.Attachment{{ID: uuid.New(), Path: "2026/10/19/a.pdf", DocumentID: f.doc.ID}}
		deps := setupServiceTest(t)
		id := f.doc.ID.String()
		deps.repo.EXPECT().FindByID(ctx, id).Return(f.doc, nil)
		deps.repo.EXPECT().Delete(ctx, id).Return(nil)
		deps.storage.EXPECT().Delete(ctx, "2026/10/19/a.pdf").Return(errors.New("gone already"))

		err := deps.service.Delete(ctx, f.sender, id)

		assert.NoError(t, err)
		require.Len(t, deps.audit.entries, 1)
		assert.Equal(t, "DOCUMENT_DELETED", deps.audit.entries[0].Action)
	})

	t.Run("recipient cannot delete", func(t *testing.T) {
		f := newFixture()
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindByID(ctx, f.doc.ID.String()).Return(f.doc, nil)
		deps.repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Times(0)

		err := deps.service.Delete(ctx, f.recipient, f.doc.ID.String())

		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()
	actor := domain.Actor{ID: uuid.NewString(), Role: domain.RoleUser}

	t.Run("unpaged returns everything without meta", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().List(ctx, document.ListFilter{Viewer: document.Viewer{UserID: actor.ID}}).
			Return([]document.Document{{ID: uuid.New()}, {ID: uuid.New()}}, int64(2), nil)

		docs, meta, err := deps.service.List(ctx, actor, document.ListDocumentsRequest{})

		require.NoError(t, err)
		assert.Len(t, docs, 2)
		assert.Nil(t, meta)
	})

	t.Run("admin sees all, paged and filtered", func(t *testing.T) {
		deps := setupServiceTest(t)
		admin := domain.Actor{ID: uuid.NewString(), Role: domain.RoleAdmin}
		deps.repo.EXPECT().List(ctx, document.ListFilter{
			Viewer: document.Viewer{UserID: admin.ID, All: true},
			Status: document.StatusInReview,
			Search: "lab",
			Offset: 10,
			Limit:  10,
		}).Return([]document.Document{{ID: uuid.New()}}, int64(11), nil)

		docs, meta, err := deps.service.List(ctx, admin, document.ListDocumentsRequest{Status: "in_review", Search: "lab", Page: 2, Limit: 10})

		require.NoError(t, err)
		assert.Len(t, docs, 1)
		require.NotNil(t, meta)
		assert.Equal(t, int64(11), meta.Total)
		assert.Equal(t, 2, meta.TotalPages)
	})

	t.Run("bad status filter", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, _, err := deps.service.List(ctx, actor, document.ListDocumentsRequest{Status: "DONE"})

		assert.ErrorIs(t, err, documenterrors.ErrInvalidStatus)
	})
}

func TestDocumentService_Stats(t *testing.T) {
	ctx := context.Background()
	actor := domain.Actor{ID: uuid.NewString(), Role: domain.RoleUser}
	key := document.StatsCacheKey(actor.ID)

	t.Run("cache hit skips the database", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		deps := setupServiceTest(t, rdb)
		mock.ExpectGet(key).SetVal(`{"total":7,"byStatus":{"PENDING":7},"pendingReview":2}`)

		resp, err := deps.service.Stats(ctx, actor)

		require.NoError(t, err)
		assert.Equal(t, int64(7), resp.Total)
		assert.Equal(t, int64(2), resp.PendingReview)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss computes and caches", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		deps := setupServiceTest(t, rdb)
		viewer := document.Viewer{UserID: actor.ID}
		thisMonth := time.Now().UTC().Format("2006-01")

		mock.ExpectGet(key).RedisNil()
		deps.repo.EXPECT().CountByStatus(gomock.Any(), viewer).Return([]document.StatusCount{
			{Status: document.StatusPending, Count: 3},
			{Status: document.StatusApproved, Count: 2},
		}, nil)
		deps.repo.EXPECT().CountPendingReview(gomock.Any(), actor.ID).Return(int64(1), nil)
		deps.repo.EXPECT().CountStatusSince(gomock.Any(), viewer, document.StatusApproved, gomock.Any()).Return(int64(2), nil)
		deps.repo.EXPECT().CountStatusSince(gomock.Any(), viewer, document.StatusRejected, gomock.Any()).Return(int64(0), nil)
		deps.repo.EXPECT().MonthlySent(gomock.Any(), actor.ID, gomock.Any()).Return([]document.MonthCount{{Month: thisMonth, Count: 4}}, nil)
		deps.repo.EXPECT().MonthlyReceived(gomock.Any(), actor.ID, gomock.Any()).Return([]document.MonthCount{{Month: thisMonth, Count: 1}}, nil)
		mock.Regexp().ExpectSet(key, `.*`, document.StatsCacheTTL).SetVal("OK")

		resp, err := deps.service.Stats(ctx, actor)

		require.NoError(t, err)
		assert.Equal(t, int64(5), resp.Total)
		assert.Equal(t, int64(0), resp.ByStatus[document.StatusRejected])
		assert.Equal(t, int64(2), resp.ApprovedThisMonth)
		require.Len(t, resp.Trend, 6)
		last := resp.Trend[5]
		assert.Equal(t, thisMonth, last.Month)
		assert.Equal(t, int64(4), last.Outgoing)
		assert.Equal(t, int64(1), last.Incoming)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().CountByStatus(ctx, gomock.Any()).Return(nil, errors.New("db down"))

		_, err := deps.service.Stats(ctx, actor)

		assert.ErrorIs(t, err, apperror.ErrInternal)
	})

	t.Run("computation outlives a cancelled caller", func(t *testing.T) {
		deps := setupServiceTest(t)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		deps.repo.EXPECT().CountByStatus(gomock.Any(), gomock.Any()).
			DoAndReturn(func(c context.Context, _ document.Viewer) ([]document.StatusCount, error) {
				if err := c.Err(); err != nil {
					return nil, err
				}
				return []document.StatusCount{{Status: document.StatusPending, Count: 1}}, nil
			})
		deps.repo.EXPECT().CountPendingReview(gomock.Any(), actor.ID).Return(int64(0), nil)
		deps.repo.EXPECT().CountStatusSince(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), nil).Times(2)
		deps.repo.EXPECT().MonthlySent(gomock.Any(), actor.ID, gomock.Any()).Return(nil, nil)
		deps.repo.EXPECT().MonthlyReceived(gomock.Any(), actor.ID, gomock.Any()).Return(nil, nil)

		resp, err := deps.service.Stats(cancelled, actor)

		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.Total)
	})
}

func TestDocumentService_DownloadAttachment(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := f.doc.ID.String()
	attID := uuid.New()

	t.Run("recipient streams the file", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindAccess(ctx, id).Return(f.access(), nil)
		deps.repo.EXPECT().FindAttachment(ctx, id, attID.String()).Return(&document.Attachment{
			ID: attID, Filename: "a.pdf", Path: "k/a.pdf", MimeType: "application/pdf", Size: 3, DocumentID: f.doc.ID,
		}, nil)
		deps.storage.EXPECT().Get(ctx, "k/a.pdf").Return(io.NopCloser(strings.NewReader("pdf")), storage.ObjectInfo{Size: 3}, nil)

		rc, att, err := deps.service.DownloadAttachment(ctx, f.recipient, id, attID.String())

		require.NoError(t, err)
		defer rc.Close()
		body, _ := io.ReadAll(rc)
		assert.Equal(t, "pdf", string(body))
		assert.Equal(t, "a.pdf", att.Filename)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindAccess(ctx, id).Return(f.access(), nil)

		_, _, err := deps.service.DownloadAttachment(ctx, f.stranger, id, attID.String())

		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("attachment of another document", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindAccess(ctx, id).Return(f.access(), nil)
		deps.repo.EXPECT().FindAttachment(ctx, id, attID.String()).Return(nil, gorm.ErrRecordNotFound)

		_, _, err := deps.service.DownloadAttachment(ctx, f.admin, id, attID.String())

		assert.ErrorIs(t, err, documenterrors.ErrAttachmentNotFound)
	})
}

func TestDocumentService_Authorize(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := f.doc.ID.String()

	deps := setupServiceTest(t)
	deps.repo.EXPECT().FindAccess(ctx, id).Return(f.access(), nil).Times(3)

	assert.NoError(t, deps.service.Authorize(ctx, f.sender, id, rbac.ActionAnnotate))
	assert.NoError(t, deps.service.Authorize(ctx, f.recipient, id, rbac.ActionAnnotate))
	assert.ErrorIs(t, deps.service.Authorize(ctx, f.stranger, id, rbac.ActionAnnotate), apperror.ErrForbidden)
}
