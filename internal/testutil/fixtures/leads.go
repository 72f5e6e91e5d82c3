package fixtures

import (
	"fmt"
	"time"

	"github.com/bwbexpress/leadflow-backend/internal/domain/lead"
	"github.com/bwbexpress/leadflow-backend/internal/domain/values"
)

// LeadBuilder builds test Lead entities with sensible defaults: a US mobile
// number, a real-looking email and SMS consent granted.
type LeadBuilder struct {
	name     string
	phone    values.PhoneNumber
	email    values.Email
	company  string
	timezone string
	source   string
	tags     []string

	consentSMS   bool
	consentEmail bool
	consentVoice bool
	dnc          bool
	state        lead.State
}

// NewLeadBuilder creates a builder with a unique phone and email so parallel
// tests do not collide on lookups.
func NewLeadBuilder() *LeadBuilder {
	n := time.Now().UnixNano() % 10000000
	return &LeadBuilder{
		name:       "Maria Lopez",
		phone:      values.MustNewPhoneNumber(fmt.Sprintf("+1555%07d", n)),
		email:      values.MustNewEmail(fmt.Sprintf("lead%d@example.com", n)),
		company:    "Lopez Bakery",
		timezone:   "America/New_York",
		source:     "test",
		consentSMS: true,
	}
}

func (b *LeadBuilder) WithName(name string) *LeadBuilder {
	b.name = name
	return b
}

func (b *LeadBuilder) WithPhone(number string) *LeadBuilder {
	b.phone = values.MustNewPhoneNumber(number)
	return b
}

func (b *LeadBuilder) WithoutPhone() *LeadBuilder {
	b.phone = values.PhoneNumber{}
	return b
}

func (b *LeadBuilder) WithEmail(address string) *LeadBuilder {
	b.email = values.MustNewEmail(address)
	return b
}

func (b *LeadBuilder) WithoutEmail() *LeadBuilder {
	b.email = values.Email{}
	return b
}

func (b *LeadBuilder) WithCompany(company string) *LeadBuilder {
	b.company = company
	return b
}

func (b *LeadBuilder) WithTimezone(tz string) *LeadBuilder {
	b.timezone = tz
	return b
}

func (b *LeadBuilder) WithConsent(sms, email, voice bool) *LeadBuilder {
	b.consentSMS = sms
	b.consentEmail = email
	b.consentVoice = voice
	return b
}

func (b *LeadBuilder) WithDNC() *LeadBuilder {
	b.dnc = true
	return b
}

func (b *LeadBuilder) WithState(state lead.State) *LeadBuilder {
	b.state = state
	return b
}

func (b *LeadBuilder) WithTags(tags ...string) *LeadBuilder {
	b.tags = tags
	return b
}

// Build constructs the lead. It panics on an invalid combination, which in
// a fixture means the test itself is wrong.
func (b *LeadBuilder) Build() *lead.Lead {
	l, err := lead.NewLead(b.name, b.phone, b.email, b.company, b.timezone,
		"America/New_York", b.source, b.tags)
	if err != nil {
		panic(fmt.Sprintf("fixtures: invalid lead: %v", err))
	}
	l.ConsentSMS = b.consentSMS
	l.ConsentEmail = b.consentEmail
	l.ConsentVoice = b.consentVoice
	l.DNC = b.dnc
	l.State = b.state
	return l
}
