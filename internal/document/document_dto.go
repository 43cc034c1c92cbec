package document

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

type CreateDocumentRequest struct {
	Title        string   `json:"title" form:"title" binding:"required,max=255"`
	Subject      string   `json:"subject" form:"subject" binding:"required,max=255"`
	Content      string   `json:"content" form:"content"`
	RecipientIDs []string `json:"recipientIds" form:"recipientIds"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ListDocumentsRequest struct {
	Status string `form:"status"`
	Search string `form:"search" binding:"max=255"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// UploadFile is one attachment handed to the service. Open is called once,
// from the goroutine that stores the file.
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AttachmentResponse struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	URL        string    `json:"url"`
	MimeType   string    `json:"mimeType"`
	Size       int64     `json:"size"`
	DocumentID string    `json:"documentId"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type DocumentResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Subject     string               `json:"subject"`
	Content     string               `json:"content"`
	Status      Status               `json:"status"`
	SenderID    string               `json:"senderId"`
	Sender      UserSummary          `json:"sender"`
	Recipients  []UserSummary        `json:"recipients"`
	Attachments []AttachmentResponse `json:"attachments"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

type MonthlyTrend struct {
	Month    string `json:"month"`
	Incoming int64  `json:"incoming"`
	Outgoing int64  `json:"outgoing"`
}

type StatsResponse struct {
	Total             int64            `json:"total"`
	ByStatus          map[Status]int64 `json:"byStatus"`
	PendingReview     int64            `json:"pendingReview"`
	ApprovedThisMonth int64            `json:"approvedThisMonth"`
	RejectedThisMonth int64            `json:"rejectedThisMonth"`
	Trend             []MonthlyTrend   `json:"trend"`
}

func AttachmentURL(documentID, attachmentID string) string {
	return fmt.Sprintf("/api/documents/%s/attachments/%s", documentID, attachmentID)
}

func toAttachmentResponse(a Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:         a.ID.String(),
		Filename:   a.Filename,
		Path:       a.Path,
		URL:        AttachmentURL(a.DocumentID.String(), a.ID.String()),
		MimeType:   a.MimeType,
		Size:       a.Size,
		DocumentID: a.DocumentID.String(),
		UploadedAt: a.UploadedAt,
	}
}

func ToResponse(d *Document) DocumentResponse {
	recipients := make([]UserSummary, 0, len(d.Recipients))
	for _, r := range d.Recipients {
		recipients = append(recipients, UserSummary{ID: r.ID.String(), Name: r.Name, Email: r.Email})
	}
	attachments := make([]AttachmentResponse, 0, len(d.Attachments))
	for _, a := range d.Attachments {
		attachments = append(attachments, toAttachmentResponse(a))
	}

	return DocumentResponse{
		ID:       d.ID.String(),
		Title:    d.Title,
		Subject:  d.Subject,
		Content:  d.Content,
		Status:   d.Status,
		SenderID: d.SenderID.String(),
		Sender: UserSummary{
			ID:    d.Sender.ID.String(),
			Name:  d.Sender.Name,
			Email: d.Sender.Email,
		},
		Recipients:  recipients,
		Attachments: attachments,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toResponses(docs []Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, ToResponse(&docs[i]))
	}
	return out
}

// NormalizeRecipientIDs accepts repeated form values, a JSON array sent as a
// single field, or comma separated ids, and drops blanks and duplicates.
func NormalizeRecipientIDs(raw []string) []string {
	var flat []string
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, "[") {
			var ids []string
			if err := json.Unmarshal([]byte(v), &ids); err == nil {
				flat = append(flat, ids...)
				continue
			}
		}
		flat = append(flat, strings.Split(v, ",")...)
	}

	seen := make(map[string]struct{}, len(flat))
	out := make([]string, 0, len(flat))
	for _, id := range flat {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if u, err := uuid.Parse(id); err == nil {
			id = u.String()
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
