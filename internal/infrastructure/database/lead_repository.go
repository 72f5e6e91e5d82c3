package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/bwbexpress/leadflow-backend/internal/domain/errors"
	"github.com/bwbexpress/leadflow-backend/internal/domain/lead"
	"github.com/bwbexpress/leadflow-backend/internal/domain/values"
)

// LeadRepository is the Postgres lead store. IDs are assigned from the
// leads_id_seq sequence as lead_N, matching the in-memory store's scheme.
type LeadRepository struct {
	pool *pgxpool.Pool
}

func NewLeadRepository(pool *pgxpool.Pool) *LeadRepository {
	return &LeadRepository{pool: pool}
}

const leadColumns = `id, name, phone, email, company, timezone,
	consent_sms, consent_email, consent_voice, dnc, state, source, tags,
	created_at, updated_at`

func (r *LeadRepository) GetByID(ctx context.Context, id string) (*lead.Lead, error) {
	query := fmt.Sprintf("SELECT %s FROM leads WHERE id = $1", leadColumns)
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *LeadRepository) GetByPhone(ctx context.Context, e164 string) (*lead.Lead, error) {
	query := fmt.Sprintf("SELECT %s FROM leads WHERE phone = $1", leadColumns)
	return r.scanOne(r.pool.QueryRow(ctx, query, e164))
}

func (r *LeadRepository) GetByEmail(ctx context.Context, address string) (*lead.Lead, error) {
	query := fmt.Sprintf("SELECT %s FROM leads WHERE email = $1", leadColumns)
	return r.scanOne(r.pool.QueryRow(ctx, query, address))
}

func (r *LeadRepository) List(ctx context.Context) ([]*lead.Lead, error) {
	query := fmt.Sprintf("SELECT %s FROM leads ORDER BY created_at DESC, id DESC", leadColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, domainErrors.Wrap(err, "listing leads")
	}
	defer rows.Close()

	var out []*lead.Lead
	for rows.Next() {
		l, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *LeadRepository) Create(ctx context.Context, l *lead.Lead) error {
	query := `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ('lead_' || nextval('leads_id_seq'), $1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		l.Name, nullable(l.Phone.E164()), nullable(l.Email.Address()), l.Company, l.Timezone,
		l.ConsentSMS, l.ConsentEmail, l.ConsentVoice, l.DNC,
		l.State.String(), l.Source, l.Tags, l.CreatedAt, l.UpdatedAt,
	).Scan(&l.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.ErrDuplicateLead
		}
		return domainErrors.Wrap(err, "creating lead")
	}
	return nil
}

func (r *LeadRepository) Update(ctx context.Context, l *lead.Lead) error {
	query := `
		UPDATE leads SET
			name = $2, phone = $3, email = $4, company = $5, timezone = $6,
			consent_sms = $7, consent_email = $8, consent_voice = $9, dnc = $10,
			state = $11, source = $12, tags = $13, updated_at = $14
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		l.ID, l.Name, nullable(l.Phone.E164()), nullable(l.Email.Address()), l.Company, l.Timezone,
		l.ConsentSMS, l.ConsentEmail, l.ConsentVoice, l.DNC,
		l.State.String(), l.Source, l.Tags, l.UpdatedAt,
	)
	if err != nil {
		return domainErrors.Wrap(err, "updating lead")
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrLeadNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *LeadRepository) scanOne(row rowScanner) (*lead.Lead, error) {
	var (
		l     lead.Lead
		phone sql.NullString
		email sql.NullString
		state string
	)
	err := row.Scan(
		&l.ID, &l.Name, &phone, &email, &l.Company, &l.Timezone,
		&l.ConsentSMS, &l.ConsentEmail, &l.ConsentVoice, &l.DNC,
		&state, &l.Source, &l.Tags, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domainErrors.ErrLeadNotFound
	}
	if err != nil {
		return nil, domainErrors.Wrap(err, "scanning lead")
	}

	if phone.Valid {
		p, err := values.NewPhoneNumberE164(phone.String)
		if err != nil {
			return nil, fmt.Errorf("stored phone for lead %s: %w", l.ID, err)
		}
		l.Phone = p
	}
	if email.Valid {
		e, err := values.NewEmail(email.String)
		if err != nil {
			return nil, fmt.Errorf("stored email for lead %s: %w", l.ID, err)
		}
		l.Email = e
	}
	l.State = lead.ParseState(state)
	return &l, nil
}

// nullable converts empty value-object strings to NULL so the partial unique
// index on phone only covers real numbers.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
