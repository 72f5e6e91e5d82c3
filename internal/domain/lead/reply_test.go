package lead_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bwbexpress/leadflow-backend/internal/domain/lead"
)

func TestClassifyReply(t *testing.T) {
	tests := []struct {
		name string
		body string
		want lead.ReplyKind
	}{
		{"plain stop", "STOP", lead.ReplyOptOut},
		{"stop inside sentence", "Please stop texting me", lead.ReplyOptOut},
		{"unsubscribe inside sentence", "I want to UNSUBSCRIBE now", lead.ReplyOptOut},
		{"cancel", "cancel", lead.ReplyOptOut},
		{"quit", "quit", lead.ReplyOptOut},
		{"stopall", "stopall", lead.ReplyOptOut},
		{"end", "end", lead.ReplyOptOut},
		{"yes", "yes", lead.ReplyAffirmative},
		{"yes with case and spaces", "  YES  ", lead.ReplyAffirmative},
		{"single y", "y", lead.ReplyAffirmative},
		{"ok", "OK", lead.ReplyAffirmative},
		{"affirmative needs exact match", "yes we are closed mondays", lead.ReplyOther},
		{"question", "what is this about?", lead.ReplyOther},
		{"empty", "", lead.ReplyOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lead.ClassifyReply(tt.body))
		})
	}
}

func TestOptOutWinsOverAffirmative(t *testing.T) {
	// "ok stop" contains both vocabularies; opt-out must win.
	assert.Equal(t, lead.ReplyOptOut, lead.ClassifyReply("ok stop"))
}
