package lead

import (
	"time"

	"github.com/google/uuid"
)

// Message is an append-only audit record of one dispatched outreach message.
// Exactly one is appended per guard-approved dispatch; blocked attempts
// produce none.
type Message struct {
	ID        uuid.UUID `json:"id"`
	LeadID    string    `json:"lead_id"`
	Channel   Channel   `json:"channel"`
	To        string    `json:"to"`
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"ts"`
}

// NewMessage builds an audit record for a dispatch.
func NewMessage(leadID string, channel Channel, to, subject, body string) Message {
	return Message{
		ID:        uuid.New(),
		LeadID:    leadID,
		Channel:   channel,
		To:        to,
		Subject:   subject,
		Body:      body,
		Timestamp: time.Now().UTC(),
	}
}
