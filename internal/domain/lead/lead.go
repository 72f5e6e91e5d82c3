package lead

import (
	"strings"
	"time"

	domainErrors "github.com/bwbexpress/leadflow-backend/internal/domain/errors"
	"github.com/bwbexpress/leadflow-backend/internal/domain/values"
)

// Channel is an outreach channel.
type Channel int

const (
	ChannelSMS Channel = iota
	ChannelEmail
	ChannelVoice
)

func (c Channel) String() string {
	switch c {
	case ChannelSMS:
		return "sms"
	case ChannelEmail:
		return "email"
	case ChannelVoice:
		return "voice"
	default:
		return "unknown"
	}
}

// ParseChannel converts a wire string into a Channel.
func ParseChannel(s string) (Channel, bool) {
	switch strings.ToLower(s) {
	case "sms":
		return ChannelSMS, true
	case "email":
		return ChannelEmail, true
	case "voice":
		return ChannelVoice, true
	default:
		return ChannelSMS, false
	}
}

// Lead is a prospect record. IDs are opaque strings assigned by the store on
// creation. A lead must carry at least one of phone/email.
type Lead struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Phone    values.PhoneNumber `json:"phone,omitempty"`
	Email    values.Email       `json:"email,omitempty"`
	Company  string             `json:"company"`
	Timezone string             `json:"timezone"`

	ConsentSMS   bool `json:"consent_sms"`
	ConsentEmail bool `json:"consent_email"`
	ConsentVoice bool `json:"consent_voice"`
	DNC          bool `json:"dnc"`

	State  State    `json:"state"`
	Source string   `json:"source"`
	Tags   []string `json:"tags,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLead builds a Lead and enforces the at-least-one-contact invariant.
// defaultTimezone is applied when tz is empty.
func NewLead(name string, phone values.PhoneNumber, email values.Email, company, tz, defaultTimezone, source string, tags []string) (*Lead, error) {
	if phone.IsEmpty() && email.IsEmpty() {
		return nil, domainErrors.ErrNoContactInfo
	}

	if tz == "" {
		tz = defaultTimezone
	}

	now := time.Now()
	return &Lead{
		Name:      name,
		Phone:     phone,
		Email:     email,
		Company:   company,
		Timezone:  tz,
		State:     StateNew,
		Source:    source,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// HasConsent reports the channel-specific consent flag.
func (l *Lead) HasConsent(channel Channel) bool {
	switch channel {
	case ChannelSMS:
		return l.ConsentSMS
	case ChannelEmail:
		return l.ConsentEmail
	case ChannelVoice:
		return l.ConsentVoice
	default:
		return false
	}
}

// GrantConsent sets the channel-specific consent flag.
func (l *Lead) GrantConsent(channel Channel) {
	switch channel {
	case ChannelSMS:
		l.ConsentSMS = true
	case ChannelEmail:
		l.ConsentEmail = true
	case ChannelVoice:
		l.ConsentVoice = true
	}
	l.UpdatedAt = time.Now()
}

// OptOut clears the channel consent flag and sets DNC. Idempotent: applying
// it twice leaves the lead in the same state.
func (l *Lead) OptOut(channel Channel) {
	switch channel {
	case ChannelSMS:
		l.ConsentSMS = false
	case ChannelEmail:
		l.ConsentEmail = false
	case ChannelVoice:
		l.ConsentVoice = false
	}
	l.DNC = true
	l.State = Transition(l.State, EventReplyOptOut)
	l.UpdatedAt = time.Now()
}

// MarkContacted records a successful first-contact dispatch.
func (l *Lead) MarkContacted() {
	l.State = Transition(l.State, EventOutboundSent)
	l.UpdatedAt = time.Now()
}

// MarkEngaged records an affirmative reply.
func (l *Lead) MarkEngaged() {
	l.State = Transition(l.State, EventReplyAffirmative)
	l.UpdatedAt = time.Now()
}

// FirstName returns the capitalized first word of the lead's name, or the
// fallback greeting when the name is empty.
func (l *Lead) FirstName() string {
	fields := strings.Fields(l.Name)
	if len(fields) == 0 {
		return "there"
	}
	first := strings.ToLower(fields[0])
	return strings.ToUpper(first[:1]) + first[1:]
}
