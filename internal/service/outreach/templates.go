package outreach

import (
	"fmt"

	"github.com/bwbexpress/leadflow-backend/internal/domain/lead"
)

// Template identifiers. They label messages in the audit log and metrics.
const (
	TemplateNurture = "nurture"
	TemplateCloser  = "closer"
	TemplateAck     = "ack"
	TemplateReply   = "email_reply"
)

// Branding carries the identity baked into rendered messages.
type Branding struct {
	CompanyName  string
	AgentName    string
	CalendarLink string
}

// Renderer produces channel-ready message bodies from templates. Every SMS
// body ends with the opt-out instruction required for compliant outreach.
type Renderer struct {
	branding Branding
}

func NewRenderer(branding Branding) *Renderer {
	if branding.CompanyName == "" {
		branding.CompanyName = "our team"
	}
	return &Renderer{branding: branding}
}

// RenderSMS renders the named SMS template for a lead.
func (r *Renderer) RenderSMS(template string, l *lead.Lead) (string, error) {
	switch template {
	case TemplateNurture:
		return r.nurtureSMS(l), nil
	case TemplateCloser:
		return r.closerSMS(l), nil
	case TemplateAck:
		return r.ackSMS(), nil
	default:
		return "", fmt.Errorf("unknown sms template %q", template)
	}
}

func (r *Renderer) nurtureSMS(l *lead.Lead) string {
	return fmt.Sprintf(
		"Hey %s, it's %s from %s. Quick idea to boost your local visibility: "+
			"5 on-brand posts today to spark leads. Okay to text details? Reply YES. "+
			"(Reply STOP to opt out.)",
		l.FirstName(), r.branding.AgentName, r.branding.CompanyName)
}

func (r *Renderer) closerSMS(l *lead.Lead) string {
	return fmt.Sprintf(
		"%s, 15-min strategy call to map your next 7 days of leads? Grab a slot: %s "+
			"(Reply STOP to opt out.)",
		l.FirstName(), r.branding.CalendarLink)
}

func (r *Renderer) ackSMS() string {
	return "Thanks! What's your #1 growth focus (calls, foot traffic, or online leads)? " +
		"Reply STOP to opt out."
}

// RenderEmailReply renders the reply sent to an inbound email, threading on
// the original subject when one is present.
func (r *Renderer) RenderEmailReply(subject string) (string, string) {
	if subject == "" {
		subject = "Your quick plan"
	}
	body := "Appreciate the reply! Here's a 7-day promo plan tailored for quick wins. " +
		"Want me to implement it this week?"
	return "Re: " + subject, body
}
