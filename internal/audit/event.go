// Package audit records authorization outcomes.  Every denial and every
// successful pass through the gate becomes an AuthEvent; events are logged
// structurally and published to the message broker for offline retention.
package audit

// Event kinds.  Denials are security-relevant and logged at a higher
// severity than routine authorizations.
const (
	KindDenied     = "denied"
	KindAuthorized = "authorized"
)

// AuthEvent is the payload published to the auth.audit queue.  It carries
// enough context to reconstruct the decision without querying the primary
// database.
type AuthEvent struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	ActorID       uint64 `json:"actor_id"`
	Handle        string `json:"handle"`
	UserLevel     int    `json:"user_level"`
	RequiredLevel int    `json:"required_level"`
	Path          string `json:"path"`
	Origin        string `json:"origin"`
	IsAjax        bool   `json:"is_ajax"`
	OccurredAt    string `json:"occurred_at"`
}
