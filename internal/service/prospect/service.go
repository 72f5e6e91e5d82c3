package prospect

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domainErrors "github.com/bwbexpress/leadflow-backend/internal/domain/errors"
	"github.com/bwbexpress/leadflow-backend/internal/domain/lead"
	"github.com/bwbexpress/leadflow-backend/internal/domain/values"
)

// Candidate source tags.
const (
	SourceGooglePlaces = "google_places"
	SourceYelp         = "yelp"
)

// Candidate is a raw business hit from a prospecting source, before it is
// normalized into a lead.
type Candidate struct {
	Name    string
	Phone   string
	Email   string
	Company string
	Source  string
	Tags    []string
}

// PlacesSource finds businesses near a coordinate.
type PlacesSource interface {
	Search(ctx context.Context, query, latlng string, radiusMeters int) ([]Candidate, error)
}

// YelpSource finds businesses by term and free-text location.
type YelpSource interface {
	Search(ctx context.Context, term, location string, limit int) ([]Candidate, error)
}

// Defaults applied when a generate request omits targeting fields.
const (
	defaultLatLng       = "39.7589,-84.1916"
	defaultLocationText = "Dayton, OH"
	defaultLimit        = 30
	placesRadiusMeters  = 15000
)

// GenerateRequest selects a vertical and search targeting for lead
// generation.
type GenerateRequest struct {
	Vertical     string
	Query        string
	LocationText string
	LatLng       string
	Limit        int
}

// GenerateResult reports the leads created by one generate call.
type GenerateResult struct {
	Count   int      `json:"count"`
	LeadIDs []string `json:"lead_ids"`
}

// Service turns prospecting source hits into stored leads. Created leads
// start with no consent on any channel; consent is earned through replies,
// never assumed from a directory listing.
type Service struct {
	places          PlacesSource
	yelp            YelpSource
	leads           lead.Repository
	defaultTimezone string
	logger          *zap.Logger
}

func NewService(places PlacesSource, yelp YelpSource, leads lead.Repository, defaultTimezone string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		places:          places,
		yelp:            yelp,
		leads:           leads,
		defaultTimezone: defaultTimezone,
		logger:          logger,
	}
}

// Generate queries the sources for the requested vertical, dedupes hits on
// phone+company and stores the remainder as new leads. Hits matching an
// already-stored lead's phone or email are skipped. Stored leads stay in
// the new state with no consent; no outreach happens until consent is
// recorded for a channel.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}
	if req.LatLng == "" {
		req.LatLng = defaultLatLng
	}
	if req.LocationText == "" {
		req.LocationText = defaultLocationText
	}

	var candidates []Candidate
	switch req.Vertical {
	case "local_business":
		var fromPlaces, fromYelp []Candidate
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			fromPlaces, err = s.places.Search(gctx, req.Query, req.LatLng, placesRadiusMeters)
			return err
		})
		g.Go(func() error {
			var err error
			fromYelp, err = s.yelp.Search(gctx, req.Query, req.LocationText, req.Limit)
			return err
		})
		if err := g.Wait(); err != nil {
			return GenerateResult{}, domainErrors.NewExternalError("PROSPECT_SOURCE", "prospecting source failed").WithCause(err)
		}
		candidates = append(fromPlaces, fromYelp...)
		if len(candidates) > req.Limit {
			candidates = candidates[:req.Limit]
		}

	case "real_estate":
		fromYelp, err := s.yelp.Search(ctx, req.Query, req.LocationText, req.Limit)
		if err != nil {
			return GenerateResult{}, domainErrors.NewExternalError("PROSPECT_SOURCE", "prospecting source failed").WithCause(err)
		}
		candidates = fromYelp

	default:
		return GenerateResult{}, domainErrors.NewValidationError("UNKNOWN_VERTICAL",
			"vertical must be local_business or real_estate")
	}

	result := GenerateResult{LeadIDs: []string{}}
	for _, c := range dedupe(candidates) {
		l, err := s.toLead(c)
		if err != nil {
			s.logger.Debug("skipping candidate without usable contact info",
				zap.String("company", c.Company),
				zap.Error(err),
			)
			continue
		}
		if err := s.leads.Create(ctx, l); err != nil {
			if errors.Is(err, domainErrors.ErrDuplicateLead) {
				s.logger.Debug("skipping candidate already stored as a lead",
					zap.String("company", c.Company))
				continue
			}
			return result, err
		}
		result.LeadIDs = append(result.LeadIDs, l.ID)
	}
	result.Count = len(result.LeadIDs)
	return result, nil
}

// dedupe drops candidates sharing the same phone+company key, keeping the
// first occurrence. Candidates with neither field are dropped outright.
func dedupe(candidates []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		key := c.Phone + c.Company
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (s *Service) toLead(c Candidate) (*lead.Lead, error) {
	var phone values.PhoneNumber
	if c.Phone != "" {
		if parsed, err := values.NewPhoneNumber(c.Phone); err == nil {
			phone = parsed
		}
	}

	var email values.Email
	if c.Email != "" {
		if parsed, err := values.NewEmail(c.Email); err == nil {
			email = parsed
		}
	}

	return lead.NewLead(c.Name, phone, email, c.Company, "", s.defaultTimezone, c.Source, c.Tags)
}
