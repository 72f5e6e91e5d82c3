package outreach

import "github.com/bwbexpress/leadflow-backend/internal/domain/lead"

// Action is a channel plus template choice produced by the selector.
type Action struct {
	Channel  lead.Channel
	Template string
}

// Selector decides the next message to attempt for a lead. The policy is a
// small fixed rule table keyed on lead state; swapping in a richer ruleset
// does not change the orchestrator's contract.
type Selector struct{}

func NewSelector() *Selector {
	return &Selector{}
}

// NextBestAction returns the channel and template for the lead's next touch.
// Engaged leads escalate to the closer; everyone else gets the nurture opener.
func (s *Selector) NextBestAction(l *lead.Lead) Action {
	if l.State == lead.StateEngaged {
		return Action{Channel: lead.ChannelSMS, Template: TemplateCloser}
	}
	return Action{Channel: lead.ChannelSMS, Template: TemplateNurture}
}
