package tokens

import "time"

// Link token lifecycle states. A token starts issued and transitions to
// completed exactly once; there are no other states.
const (
	StatusIssued    = "issued"
	StatusCompleted = "completed"
)

// LinkToken is a single-use access token bound to a Telegram chat at
// issuance time. ChatID is stored as text: Telegram chat identifiers fit
// int64, but the external client echoes them back as strings.
type LinkToken struct {
	ID          int64      `db:"id" json:"-"`
	Token       string     `db:"token" json:"token"`
	ChatID      string     `db:"tg_chat_id" json:"tg_chat_id"`
	Source      string     `db:"source" json:"source"`
	Campaign    string     `db:"campaign" json:"campaign"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	SessionID   *string    `db:"session_id" json:"session_id,omitempty"`
}

// Completed reports whether the token has already been used up.
func (t LinkToken) Completed() bool {
	return t.Status == StatusCompleted
}
