package annotation

import "time"

type CreateAnnotationRequest struct {
	PageNumber int      `json:"pageNumber" binding:"required,min=1"`
	X          *float64 `json:"x" binding:"required,min=0,max=1"`
	Y          *float64 `json:"y" binding:"required,min=0,max=1"`
	Text       string   `json:"text" binding:"required,max=2000"`
}

type Author struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AnnotationResponse struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	PageNumber int       `json:"pageNumber"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Text       string    `json:"text"`
	CreatedBy  Author    `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

func ToResponse(a *Annotation) AnnotationResponse {
	return AnnotationResponse{
		ID:         a.ID.String(),
		DocumentID: a.DocumentID.String(),
		PageNumber: a.PageNumber,
		X:          a.X,
		Y:          a.Y,
		Text:       a.Text,
		CreatedBy: Author{
			ID:    a.CreatedByID.String(),
			Name:  a.CreatedBy.Name,
			Email: a.CreatedBy.Email,
		},
		CreatedAt: a.CreatedAt,
	}
}
