package compliance

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bwbexpress/leadflow-backend/internal/domain/lead"
)

// Decision is the outcome of a compliance evaluation.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// Decision reason strings. These are exposed for observability; callers must
// not branch on anything but Allowed.
const (
	ReasonOK         = "OK"
	ReasonDNC        = "DNC"
	ReasonQuietHours = "Quiet hours"
)

// NoConsentReason builds the rejection reason for a missing consent flag.
func NoConsentReason(channel lead.Channel) string {
	switch channel {
	case lead.ChannelSMS:
		return "No SMS consent"
	case lead.ChannelEmail:
		return "No email consent"
	case lead.ChannelVoice:
		return "No voice consent"
	default:
		return fmt.Sprintf("No %s consent", channel)
	}
}

// Guard evaluates the layered outreach policy: DNC, channel consent, quiet
// hours. Evaluation never performs network I/O and never mutates the lead, so
// it is safe to call immediately before every dispatch — and it must be:
// consent and DNC can change between a decision and a send.
type Guard struct {
	quietStart int
	quietEnd   int
	defaultTZ  string
	logger     *zap.Logger
}

// NewGuard builds a Guard. Quiet hours are a half-open local-time window
// [start, end) of permitted hours for real-time channels.
func NewGuard(quietStart, quietEnd int, defaultTimezone string, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		quietStart: quietStart,
		quietEnd:   quietEnd,
		defaultTZ:  defaultTimezone,
		logger:     logger,
	}
}

// Evaluate applies the policy rules in order; the first failing rule wins and
// becomes the reason. Email is exempt from the quiet-hours rule.
func (g *Guard) Evaluate(l *lead.Lead, channel lead.Channel, now time.Time) Decision {
	if l.DNC {
		return Decision{Allowed: false, Reason: ReasonDNC}
	}

	if !l.HasConsent(channel) {
		return Decision{Allowed: false, Reason: NoConsentReason(channel)}
	}

	if channel == lead.ChannelSMS || channel == lead.ChannelVoice {
		if g.isQuietHours(l, now) {
			return Decision{Allowed: false, Reason: ReasonQuietHours}
		}
	}

	return Decision{Allowed: true, Reason: ReasonOK}
}

func (g *Guard) isQuietHours(l *lead.Lead, now time.Time) bool {
	hour := g.localTime(l, now).Hour()
	return !(hour >= g.quietStart && hour < g.quietEnd)
}

// localTime converts now into the lead's zone, falling back to the configured
// default zone and finally UTC when a zone name does not resolve. Fallbacks
// are logged rather than silently swallowed.
func (g *Guard) localTime(l *lead.Lead, now time.Time) time.Time {
	tz := l.Timezone
	if tz == "" {
		tz = g.defaultTZ
	}

	loc, err := time.LoadLocation(tz)
	if err == nil {
		return now.In(loc)
	}
	g.logger.Warn("lead timezone did not resolve, using default",
		zap.String("lead_id", l.ID),
		zap.String("timezone", tz),
		zap.String("fallback", g.defaultTZ),
		zap.Error(err),
	)

	loc, err = time.LoadLocation(g.defaultTZ)
	if err == nil {
		return now.In(loc)
	}
	g.logger.Warn("default timezone did not resolve, using UTC",
		zap.String("timezone", g.defaultTZ),
		zap.Error(err),
	)

	return now.UTC()
}
