package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	domainErrors "github.com/bwbexpress/leadflow-backend/internal/domain/errors"
	"github.com/bwbexpress/leadflow-backend/internal/domain/lead"
	"github.com/bwbexpress/leadflow-backend/internal/domain/values"
)

// Service imports leads in bulk from CSV files. Column names are matched
// case-insensitively; name/full_name and company/business are accepted as
// synonyms.
type Service struct {
	leads           lead.Repository
	defaultTimezone string
	logger          *zap.Logger
}

func NewService(leads lead.Repository, defaultTimezone string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		leads:           leads,
		defaultTimezone: defaultTimezone,
		logger:          logger,
	}
}

// ImportResult reports how many rows became leads and how many were skipped
// for missing contact info.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	LeadIDs  []string `json:"lead_ids"`
}

// ImportCSV reads the full CSV stream and stores one lead per usable row.
// Rows without at least one of phone/email, and rows duplicating a stored
// lead's phone or email, are skipped, not errors. A malformed CSV aborts the
// import with a validation error; rows already imported stay stored.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return ImportResult{}, domainErrors.NewValidationError("BAD_CSV", "could not read CSV header").WithCause(err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	result := ImportResult{LeadIDs: []string{}}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, domainErrors.NewValidationError("BAD_CSV", "could not read CSV row").WithCause(err)
		}

		row := func(names ...string) string {
			for _, name := range names {
				if i, ok := columns[name]; ok && i < len(record) {
					if v := strings.TrimSpace(record[i]); v != "" {
						return v
					}
				}
			}
			return ""
		}

		l, err := s.rowToLead(row)
		if err != nil {
			result.Skipped++
			continue
		}
		if err := s.leads.Create(ctx, l); err != nil {
			if errors.Is(err, domainErrors.ErrDuplicateLead) {
				result.Skipped++
				continue
			}
			return result, err
		}
		result.Imported++
		result.LeadIDs = append(result.LeadIDs, l.ID)
	}

	s.logger.Info("csv import finished",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *Service) rowToLead(row func(...string) string) (*lead.Lead, error) {
	var phone values.PhoneNumber
	if raw := row("phone"); raw != "" {
		if parsed, err := values.NewPhoneNumber(raw); err == nil {
			phone = parsed
		}
	}

	var email values.Email
	if raw := row("email"); raw != "" {
		if parsed, err := values.NewEmail(raw); err == nil {
			email = parsed
		}
	}

	source := row("source")
	if source == "" {
		source = "csv_import"
	}

	var tags []string
	for _, tag := range strings.Split(row("tags"), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return lead.NewLead(
		row("name", "full_name"),
		phone,
		email,
		row("company", "business"),
		row("timezone"),
		s.defaultTimezone,
		source,
		tags,
	)
}
