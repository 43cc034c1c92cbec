package events

import "time"

const DocumentLifecycleTopic = "dms.document.lifecycle.v1"

const (
	EventDocumentCreated       = "document.created"
	EventDocumentStatusChanged = "document.status_changed"
)

// DocumentEvent is the payload of every message on DocumentLifecycleTopic.
// SenderID and RecipientIDs let consumers find the users whose views changed.
type DocumentEvent struct {
	EventType    string    `json:"event_type"`
	RequestID    string    `json:"request_id,omitempty"`
	DocumentID   string    `json:"document_id"`
	SenderID     string    `json:"sender_id"`
	RecipientIDs []string  `json:"recipient_ids"`
	Status       string    `json:"status"`
	FromStatus   string    `json:"from_status,omitempty"`
	ActorID      string    `json:"actor_id,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// AffectedUserIDs returns sender and recipients without duplicates.
func (e DocumentEvent) AffectedUserIDs() []string {
	seen := make(map[string]struct{}, len(e.RecipientIDs)+1)
	out := make([]string, 0, len(e.RecipientIDs)+1)
	for _, id := range append([]string{e.SenderID}, e.RecipientIDs...) {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
