package verification

import (
	"encoding/json"
	"fmt"
)

// Status is the overall verdict for a contact verification check.
type Status int

const (
	StatusUnknown Status = iota
	StatusValid
	StatusInvalid
	StatusRisky
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	case StatusRisky:
		return "risky"
	case StatusUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// ParseStatus converts a wire string back into a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "valid":
		return StatusValid, nil
	case "invalid":
		return StatusInvalid, nil
	case "risky":
		return StatusRisky, nil
	case "unknown":
		return StatusUnknown, nil
	default:
		return StatusUnknown, fmt.Errorf("unknown verification status: %q", s)
	}
}

// MarshalJSON renders the status as its wire string.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses the wire string form.
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Reason codes. Reasons are short machine-parsable strings documenting the
// decisive check; dynamic variants (smtp_err, lookup_err, line_type) carry a
// suffix after the colon or equals sign.
const (
	ReasonBadFormat     = "bad_format"
	ReasonDisposable    = "disposable"
	ReasonNoMX          = "no_mx"
	ReasonSMTPOK        = "smtp_ok"
	ReasonSMTPNoMailbox = "smtp_no_mailbox"
	ReasonSMTPUncertain = "smtp_uncertain"
	ReasonNoPhone       = "no_phone"
	ReasonNoEmail       = "no_email"
)

// SMTPErrReason builds the reason string for a failed probe.
func SMTPErrReason(cause string) string {
	return "smtp_err:" + cause
}

// LookupErrReason builds the reason string for a failed carrier lookup.
func LookupErrReason(kind string) string {
	return "lookup_err:" + kind
}

// LineTypeReason builds the reason string for a successful carrier lookup.
func LineTypeReason(lineType string) string {
	return "line_type=" + lineType
}

// Result is the outcome of verifying a single contact field. Produced fresh on
// every verification call; callers decide whether to persist or cache it.
type Result struct {
	Status     Status         `json:"status"`
	Reason     string         `json:"reason"`
	Confidence float64        `json:"confidence"`
	Raw        map[string]any `json:"raw,omitempty"`
}

// NewResult builds a Result, clamping confidence into [0,1].
func NewResult(status Status, reason string, confidence float64) Result {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return Result{Status: status, Reason: reason, Confidence: confidence}
}

// WithRaw attaches the raw diagnostic payload from an upstream service.
func (r Result) WithRaw(raw map[string]any) Result {
	r.Raw = raw
	return r
}

// ConfidencePolicy maps probe verdicts to confidence scores. The values are
// operational policy, not invariants, so deployments can tune them.
type ConfidencePolicy struct {
	Valid   float64 `json:"valid" koanf:"valid"`
	Risky   float64 `json:"risky" koanf:"risky"`
	Unknown float64 `json:"unknown" koanf:"unknown"`
	Invalid float64 `json:"invalid" koanf:"invalid"`
}

// DefaultConfidencePolicy returns the stock probe confidence table.
func DefaultConfidencePolicy() ConfidencePolicy {
	return ConfidencePolicy{
		Valid:   0.9,
		Risky:   0.6,
		Unknown: 0.4,
		Invalid: 0.1,
	}
}

// For returns the confidence for a probe-derived status.
func (p ConfidencePolicy) For(status Status) float64 {
	switch status {
	case StatusValid:
		return p.Valid
	case StatusRisky:
		return p.Risky
	case StatusInvalid:
		return p.Invalid
	default:
		return p.Unknown
	}
}
