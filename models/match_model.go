package models

import "time"

type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusAccepted MatchStatus = "accepted"
)

// Match pairs two nearby users. Initiator is the user whose activation created it;
// only the receiver may accept or ignore it.
type Match struct {
	ID                string      `json:"id" bson:"_id"`
	Initiator         string      `json:"initiator" bson:"initiator"`
	Receiver          string      `json:"receiver" bson:"receiver"`
	Mode              Mode        `json:"mode" bson:"mode"`
	Status            MatchStatus `json:"status" bson:"status"`
	CreatedAt         time.Time   `json:"createdAt" bson:"created_at"`
	RevealRequestedBy *string     `json:"revealRequestedBy" bson:"reveal_requested_by"`
	Revealed          bool        `json:"revealed" bson:"revealed"`
}

func (m Match) HasUser(email string) bool {
	return m.Initiator == email || m.Receiver == email
}

// Other returns the participant that is not email.
func (m Match) Other(email string) (string, bool) {
	switch email {
	case m.Initiator:
		return m.Receiver, true
	case m.Receiver:
		return m.Initiator, true
	}
	return "", false
}

func (m Match) PairKey() string {
	return PairKey(m.Initiator, m.Receiver)
}

// Reveal turns an anonymous match into a visible one. It cannot be undone.
func (m *Match) Reveal() {
	m.Revealed = true
	m.Mode = ModeVisible
}

// PairKey normalizes an unordered pair of emails.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}
