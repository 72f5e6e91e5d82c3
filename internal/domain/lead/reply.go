package lead

import "strings"

// ReplyKind classifies an inbound reply body.
type ReplyKind int

const (
	ReplyOther ReplyKind = iota
	ReplyOptOut
	ReplyAffirmative
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyOptOut:
		return "optout"
	case ReplyAffirmative:
		return "affirmative"
	default:
		return "other"
	}
}

// Opt-out uses substring matching while affirmative uses exact matching after
// trimming. The asymmetry is deliberate: "please stop texting me" must opt the
// lead out, but "yes we are closed mondays" must not count as an affirmative.
var (
	optOutVocabulary      = []string{"stop", "stopall", "unsubscribe", "cancel", "end", "quit"}
	affirmativeVocabulary = []string{"yes", "y", "ok"}
)

// ClassifyReply maps an inbound reply body to its kind. Opt-out is checked
// first so it wins over every other interpretation.
func ClassifyReply(body string) ReplyKind {
	if ContainsOptOut(body) {
		return ReplyOptOut
	}
	if IsAffirmative(body) {
		return ReplyAffirmative
	}
	return ReplyOther
}

// ContainsOptOut reports whether the body contains any opt-out keyword,
// case-insensitively.
func ContainsOptOut(body string) bool {
	if body == "" {
		return false
	}
	lowered := strings.ToLower(body)
	for _, keyword := range optOutVocabulary {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// IsAffirmative reports whether the trimmed body is exactly an affirmative
// keyword, case-insensitively.
func IsAffirmative(body string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(body))
	for _, keyword := range affirmativeVocabulary {
		if trimmed == keyword {
			return true
		}
	}
	return false
}
