package outreach

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bwbexpress/leadflow-backend/internal/domain/compliance"
	domainErrors "github.com/bwbexpress/leadflow-backend/internal/domain/errors"
	"github.com/bwbexpress/leadflow-backend/internal/domain/lead"
	"github.com/bwbexpress/leadflow-backend/internal/domain/values"
	"github.com/bwbexpress/leadflow-backend/internal/metrics"
)

// SMSSender dispatches an SMS. Failures are logged but do not roll back the
// audit record; delivery retries belong to the provider.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// EmailSender dispatches an email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Orchestrator drives the outreach state machine: it asks the selector for
// the next action, renders the message, runs the compliance guard and, on an
// allowed decision, dispatches and appends an audit Message. Inbound replies
// mutate consent flags and lead state; all work for one lead is serialized by
// a per-lead lock so simultaneous opt-out and affirmative replies cannot
// produce lost updates.
type Orchestrator struct {
	leads    lead.Repository
	messages lead.MessageLog
	guard    *compliance.Guard
	sms      SMSSender
	email    EmailSender
	selector *Selector
	renderer *Renderer
	locks    keyedMutex
	logger   *zap.Logger
	now      func() time.Time
}

func NewOrchestrator(
	leads lead.Repository,
	messages lead.MessageLog,
	guard *compliance.Guard,
	sms SMSSender,
	email EmailSender,
	renderer *Renderer,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		leads:    leads,
		messages: messages,
		guard:    guard,
		sms:      sms,
		email:    email,
		selector: NewSelector(),
		renderer: renderer,
		logger:   logger,
		now:      time.Now,
	}
}

// Orchestrate attempts the next-best outreach touch for the lead. A guard
// rejection is a normal outcome, not an error: the attempt is dropped, the
// reason is logged and counted, and the lead state is unchanged.
func (o *Orchestrator) Orchestrate(ctx context.Context, leadID string) error {
	unlock := o.locks.lock(leadID)
	defer unlock()

	l, err := o.leads.GetByID(ctx, leadID)
	if err != nil {
		return err
	}

	action := o.selector.NextBestAction(l)
	if action.Channel != lead.ChannelSMS || l.Phone.IsEmpty() {
		o.logger.Debug("no dispatchable action for lead",
			zap.String("lead_id", leadID),
			zap.String("channel", action.Channel.String()),
		)
		return nil
	}

	body, err := o.renderer.RenderSMS(action.Template, l)
	if err != nil {
		return err
	}

	if !o.allowed(l, action.Channel) {
		return nil
	}

	o.dispatchSMS(ctx, l, action.Template, body)
	l.MarkContacted()
	return o.leads.Update(ctx, l)
}

// HandleInboundSMS processes a reply from an SMS provider webhook. Opt-out
// matching runs before everything else: the consent flip must be recorded
// even when other rules would have blocked outreach anyway. An unknown sender
// is a no-op.
func (o *Orchestrator) HandleInboundSMS(ctx context.Context, from, body string) error {
	phone, err := values.NewPhoneNumber(from)
	if err != nil {
		return nil
	}

	l, err := o.leads.GetByPhone(ctx, phone.E164())
	if err != nil {
		if errors.Is(err, domainErrors.ErrLeadNotFound) {
			return nil
		}
		return err
	}

	unlock := o.locks.lock(l.ID)
	defer unlock()

	// Re-read under the lock; the lookup above raced other events.
	l, err = o.leads.GetByID(ctx, l.ID)
	if err != nil {
		return err
	}

	kind := lead.ClassifyReply(body)
	metrics.InboundEvents.WithLabelValues("sms", kind.String()).Inc()

	switch kind {
	case lead.ReplyOptOut:
		l.OptOut(lead.ChannelSMS)
		metrics.OptOuts.Inc()
		o.logger.Info("lead opted out",
			zap.String("lead_id", l.ID),
			zap.String("channel", "sms"),
		)
		return o.leads.Update(ctx, l)

	case lead.ReplyAffirmative:
		l.MarkEngaged()
		body := o.renderer.closerSMS(l)
		if o.allowed(l, lead.ChannelSMS) {
			o.dispatchSMS(ctx, l, TemplateCloser, body)
		}
		return o.leads.Update(ctx, l)

	default:
		if o.allowed(l, lead.ChannelSMS) {
			o.dispatchSMS(ctx, l, TemplateAck, o.renderer.ackSMS())
		}
		return nil
	}
}

// HandleInboundEmail processes an inbound email event. Opt-out vocabulary in
// the body revokes email consent; anything else gets a guard-gated reply.
func (o *Orchestrator) HandleInboundEmail(ctx context.Context, from, subject, body string) error {
	addr, err := values.NewEmail(from)
	if err != nil {
		return nil
	}

	l, err := o.leads.GetByEmail(ctx, addr.Address())
	if err != nil {
		if errors.Is(err, domainErrors.ErrLeadNotFound) {
			return nil
		}
		return err
	}

	unlock := o.locks.lock(l.ID)
	defer unlock()

	l, err = o.leads.GetByID(ctx, l.ID)
	if err != nil {
		return err
	}

	if lead.ContainsOptOut(body) {
		metrics.InboundEvents.WithLabelValues("email", lead.ReplyOptOut.String()).Inc()
		l.OptOut(lead.ChannelEmail)
		metrics.OptOuts.Inc()
		o.logger.Info("lead opted out",
			zap.String("lead_id", l.ID),
			zap.String("channel", "email"),
		)
		return o.leads.Update(ctx, l)
	}

	metrics.InboundEvents.WithLabelValues("email", lead.ReplyOther.String()).Inc()
	if !o.allowed(l, lead.ChannelEmail) {
		return nil
	}

	replySubject, replyBody := o.renderer.RenderEmailReply(subject)
	if err := o.email.SendEmail(ctx, l.Email.Address(), replySubject, replyBody); err != nil {
		o.logger.Warn("email dispatch failed",
			zap.String("lead_id", l.ID),
			zap.Error(err),
		)
	}
	metrics.MessagesDispatched.WithLabelValues("email", TemplateReply).Inc()
	return o.messages.Append(ctx, lead.NewMessage(l.ID, lead.ChannelEmail, l.Email.Address(), replySubject, replyBody))
}

// allowed runs the compliance guard and records a rejection.
func (o *Orchestrator) allowed(l *lead.Lead, channel lead.Channel) bool {
	decision := o.guard.Evaluate(l, channel, o.now())
	if decision.Allowed {
		return true
	}
	metrics.ComplianceBlocks.WithLabelValues(channel.String(), decision.Reason).Inc()
	o.logger.Info("outreach blocked by compliance guard",
		zap.String("lead_id", l.ID),
		zap.String("channel", channel.String()),
		zap.String("reason", decision.Reason),
	)
	return false
}

// dispatchSMS sends and records one message. Every attempt that passed the
// guard produces exactly one audit record; provider failures are logged,
// fire-and-forget.
func (o *Orchestrator) dispatchSMS(ctx context.Context, l *lead.Lead, template, body string) {
	if err := o.sms.SendSMS(ctx, l.Phone.E164(), body); err != nil {
		o.logger.Warn("sms dispatch failed",
			zap.String("lead_id", l.ID),
			zap.Error(err),
		)
	}
	metrics.MessagesDispatched.WithLabelValues("sms", template).Inc()
	if err := o.messages.Append(ctx, lead.NewMessage(l.ID, lead.ChannelSMS, l.Phone.E164(), "", body)); err != nil {
		o.logger.Warn("message log append failed",
			zap.String("lead_id", l.ID),
			zap.Error(err),
		)
	}
}

// keyedMutex serializes work per lead ID. Entries are retained for the
// process lifetime; the lead population is small relative to memory.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
