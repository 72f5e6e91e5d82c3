package verification

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bwbexpress/leadflow-backend/internal/domain/verification"
	"github.com/bwbexpress/leadflow-backend/internal/domain/values"
	"github.com/bwbexpress/leadflow-backend/internal/metrics"
)

// Service composes the syntax validator, DNS resolver, SMTP probe and carrier
// lookup into single verdicts. Both entry points always return a result and
// never an error: network failures degrade to unknown/risky outcomes.
type Service struct {
	resolver   MXResolver
	probe      Prober
	carrier    CarrierLookup
	cache      ResultCache
	cacheTTL   time.Duration
	denylist   []string
	confidence verification.ConfidencePolicy
	logger     *zap.Logger
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithCache enables result caching with the given TTL.
func WithCache(cache ResultCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithDisposableDomains overrides the disposable-domain denylist.
func WithDisposableDomains(domains []string) Option {
	return func(s *Service) {
		s.denylist = domains
	}
}

// WithConfidencePolicy overrides the probe confidence table.
func WithConfidencePolicy(policy verification.ConfidencePolicy) Option {
	return func(s *Service) {
		s.confidence = policy
	}
}

// NewService builds the verification engine.
func NewService(resolver MXResolver, probe Prober, carrier CarrierLookup, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		resolver:   resolver,
		probe:      probe,
		carrier:    carrier,
		denylist:   values.DefaultDisposableDomains,
		confidence: verification.DefaultConfidencePolicy(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VerifyEmail runs the sequential gate: syntax, disposable domain, MX
// existence, SMTP probe. Each failing gate short-circuits the later, more
// expensive ones; malformed addresses never touch the network.
func (s *Service) VerifyEmail(ctx context.Context, address string) verification.Result {
	email, err := values.NewEmail(address)
	if err != nil {
		return s.record("email", verification.NewResult(
			verification.StatusInvalid, verification.ReasonBadFormat, 0.0))
	}

	if email.IsDisposable(s.denylist) {
		return s.record("email", verification.NewResult(
			verification.StatusInvalid, verification.ReasonDisposable, 0.1))
	}

	if cached, ok := s.cacheGet(ctx, "email:"+email.Address()); ok {
		return cached
	}

	domain := email.Domain()
	if !s.resolver.HasMXRecords(ctx, domain) {
		return s.record("email", s.cacheSet(ctx, "email:"+email.Address(),
			verification.NewResult(verification.StatusInvalid, verification.ReasonNoMX, 0.1)))
	}

	status, reason := s.probe.Probe(ctx, domain, email.Address())
	result := verification.NewResult(status, reason, s.confidence.For(status))
	return s.record("email", s.cacheSet(ctx, "email:"+email.Address(), result))
}

// VerifyPhone delegates to the carrier lookup. Numbers that do not normalize
// to E.164 are rejected without any network call.
func (s *Service) VerifyPhone(ctx context.Context, number string) verification.Result {
	phone, err := values.NewPhoneNumber(number)
	if err != nil {
		return s.record("phone", verification.NewResult(
			verification.StatusInvalid, verification.ReasonBadFormat, 0.0))
	}

	if cached, ok := s.cacheGet(ctx, "phone:"+phone.E164()); ok {
		return cached
	}

	result := s.carrier.Lookup(ctx, phone.E164())
	return s.record("phone", s.cacheSet(ctx, "phone:"+phone.E164(), result))
}

// ContactResult bundles the independent phone and email verdicts.
type ContactResult struct {
	Phone *verification.Result `json:"phone,omitempty"`
	Email *verification.Result `json:"email,omitempty"`
}

// VerifyContact verifies phone and email concurrently; the two checks have no
// ordering dependency. An empty field yields an unknown verdict with a
// no_phone or no_email reason for that side, without any network call.
func (s *Service) VerifyContact(ctx context.Context, phone, email string) ContactResult {
	var out ContactResult

	g, ctx := errgroup.WithContext(ctx)
	if phone == "" {
		r := verification.NewResult(verification.StatusUnknown, verification.ReasonNoPhone, 0.0)
		out.Phone = &r
	} else {
		g.Go(func() error {
			r := s.VerifyPhone(ctx, phone)
			out.Phone = &r
			return nil
		})
	}
	if email == "" {
		r := verification.NewResult(verification.StatusUnknown, verification.ReasonNoEmail, 0.0)
		out.Email = &r
	} else {
		g.Go(func() error {
			r := s.VerifyEmail(ctx, email)
			out.Email = &r
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return out
}

func (s *Service) cacheGet(ctx context.Context, key string) (verification.Result, bool) {
	if s.cache == nil {
		return verification.Result{}, false
	}
	result, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Debug("verification cache read failed", zap.String("key", key), zap.Error(err))
		return verification.Result{}, false
	}
	return result, ok
}

func (s *Service) cacheSet(ctx context.Context, key string, result verification.Result) verification.Result {
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
			s.logger.Debug("verification cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return result
}

func (s *Service) record(kind string, result verification.Result) verification.Result {
	metrics.VerificationsTotal.WithLabelValues(kind, result.Status.String()).Inc()
	return result
}
