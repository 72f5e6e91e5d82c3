package lead

import "encoding/json"

// State is the outreach lifecycle stage of a lead. It is an explicit tag so
// the opt-out-always-wins rule is auditable without inspecting consent flags.
type State int

const (
	StateNew State = iota
	StateContacted
	StateEngaged
	StateOptedOut
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateContacted:
		return "contacted"
	case StateEngaged:
		return "engaged"
	case StateOptedOut:
		return "opted_out"
	default:
		return "unknown"
	}
}

// ParseState converts a wire string into a State. Unrecognized values map
// to StateNew.
func ParseState(s string) State {
	switch s {
	case "contacted":
		return StateContacted
	case "engaged":
		return StateEngaged
	case "opted_out":
		return StateOptedOut
	default:
		return StateNew
	}
}

// MarshalJSON renders the state as its wire string.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses the wire string form.
func (s *State) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = ParseState(str)
	return nil
}

// Event is a lifecycle trigger fed to the transition function.
type Event int

const (
	// EventOutboundSent fires when a guard-approved message was dispatched.
	EventOutboundSent Event = iota
	// EventReplyOptOut fires when an inbound reply matched the opt-out vocabulary.
	EventReplyOptOut
	// EventReplyAffirmative fires when an inbound reply matched the affirmative vocabulary.
	EventReplyAffirmative
	// EventReplyOther fires for any other inbound reply.
	EventReplyOther
)

// Transition is the pure state transition function. StateOptedOut is terminal
// and an opt-out reply wins from every state.
func Transition(state State, event Event) State {
	if state == StateOptedOut {
		return StateOptedOut
	}

	switch event {
	case EventReplyOptOut:
		return StateOptedOut
	case EventOutboundSent:
		if state == StateNew {
			return StateContacted
		}
		return state
	case EventReplyAffirmative:
		if state == StateContacted || state == StateEngaged {
			return StateEngaged
		}
		return state
	case EventReplyOther:
		return state
	default:
		return state
	}
}
