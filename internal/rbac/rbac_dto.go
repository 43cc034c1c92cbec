package rbac

import "github.com/ANDREW-SIGEI/kemri27/internal/domain"

// Relation is how the actor stands to the resource being accessed.
type Relation string

const (
	RelationNone      Relation = "none"
	RelationSender    Relation = "sender"
	RelationRecipient Relation = "recipient"
	RelationSelf      Relation = "self"
	RelationAuthor    Relation = "author"
)

type Action string

const (
	ActionView             Action = "view"
	ActionUpdateStatus     Action = "update_status"
	ActionDelete           Action = "delete"
	ActionAnnotate         Action = "annotate"
	ActionDeleteAnnotation Action = "delete_annotation"
	ActionUpdateProfile    Action = "update_profile"
	ActionChangePassword   Action = "change_password"
)

const wildcard = "*"

// Policy is one allow row of the decision table. Role and Relation accept "*".
type Policy struct {
	Role     string
	Relation string
	Action   Action
}

// DefaultPolicies is the whole access model of the API.
var DefaultPolicies = []Policy{
	{Role: string(domain.RoleAdmin), Relation: wildcard, Action: ActionView},
	{Role: string(domain.RoleAdmin), Relation: wildcard, Action: ActionUpdateStatus},
	{Role: string(domain.RoleAdmin), Relation: wildcard, Action: ActionDelete},
	{Role: string(domain.RoleAdmin), Relation: wildcard, Action: ActionAnnotate},
	{Role: string(domain.RoleAdmin), Relation: wildcard, Action: ActionDeleteAnnotation},
	{Role: string(domain.RoleAdmin), Relation: wildcard, Action: ActionUpdateProfile},
	{Role: string(domain.RoleAdmin), Relation: wildcard, Action: ActionChangePassword},

	{Role: wildcard, Relation: string(RelationSender), Action: ActionView},
	{Role: wildcard, Relation: string(RelationSender), Action: ActionDelete},
	{Role: wildcard, Relation: string(RelationSender), Action: ActionAnnotate},

	{Role: wildcard, Relation: string(RelationRecipient), Action: ActionView},
	{Role: wildcard, Relation: string(RelationRecipient), Action: ActionUpdateStatus},
	{Role: wildcard, Relation: string(RelationRecipient), Action: ActionAnnotate},

	{Role: wildcard, Relation: string(RelationSelf), Action: ActionUpdateProfile},
	{Role: wildcard, Relation: string(RelationSelf), Action: ActionChangePassword},

	{Role: wildcard, Relation: string(RelationAuthor), Action: ActionDeleteAnnotation},
}

type EnforceRequest struct {
	Actor     domain.Actor
	Relations []Relation
	Action    Action
}

// DocumentRelations lists every relation the actor holds to a document. An
// actor who addressed a document to themself is both sender and recipient.
func DocumentRelations(actorID, senderID string, recipientIDs []string) []Relation {
	var rels []Relation
	if actorID != "" && actorID == senderID {
		rels = append(rels, RelationSender)
	}
	for _, id := range recipientIDs {
		if actorID != "" && id == actorID {
			rels = append(rels, RelationRecipient)
			break
		}
	}
	if len(rels) == 0 {
		rels = append(rels, RelationNone)
	}
	return rels
}

// SubjectRelation is RelationSelf when the actor targets their own account.
func SubjectRelation(actorID, subjectID string) Relation {
	if actorID != "" && actorID == subjectID {
		return RelationSelf
	}
	return RelationNone
}
