package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/bwbexpress/leadflow-backend/internal/domain/errors"
	"github.com/bwbexpress/leadflow-backend/internal/domain/lead"
	"github.com/bwbexpress/leadflow-backend/internal/testutil/fixtures"
)

func newLead(t *testing.T, name, phone, email string) *lead.Lead {
	t.Helper()
	b := fixtures.NewLeadBuilder().WithName(name)
	if phone != "" {
		b = b.WithPhone(phone)
	} else {
		b = b.WithoutPhone()
	}
	if email != "" {
		b = b.WithEmail(email)
	} else {
		b = b.WithoutEmail()
	}
	return b.Build()
}

func TestMemoryLeadRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryLeadRepository()

	l := newLead(t, "Maria Lopez", "+15551234567", "maria@lopezbakery.com")
	require.NoError(t, repo.Create(ctx, l))
	assert.Equal(t, "lead_1", l.ID)

	got, err := repo.GetByID(ctx, "lead_1")
	require.NoError(t, err)
	assert.Equal(t, "Maria Lopez", got.Name)

	byPhone, err := repo.GetByPhone(ctx, "+15551234567")
	require.NoError(t, err)
	assert.Equal(t, "lead_1", byPhone.ID)

	byEmail, err := repo.GetByEmail(ctx, "maria@lopezbakery.com")
	require.NoError(t, err)
	assert.Equal(t, "lead_1", byEmail.ID)

	got.DNC = true
	require.NoError(t, repo.Update(ctx, got))
	again, err := repo.GetByID(ctx, "lead_1")
	require.NoError(t, err)
	assert.True(t, again.DNC)

	_, err = repo.GetByID(ctx, "lead_404")
	assert.ErrorIs(t, err, domainErrors.ErrLeadNotFound)
	_, err = repo.GetByPhone(ctx, "")
	assert.ErrorIs(t, err, domainErrors.ErrLeadNotFound)
	err = repo.Update(ctx, newLead(t, "Ghost", "+15550000000", ""))
	assert.ErrorIs(t, err, domainErrors.ErrLeadNotFound)
}

func TestMemoryLeadRepositoryReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryLeadRepository()

	l := newLead(t, "Maria Lopez", "+15551234567", "")
	require.NoError(t, repo.Create(ctx, l))

	got, err := repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	got.DNC = true // not persisted without Update

	fresh, err := repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.False(t, fresh.DNC)
}

func TestMemoryLeadRepositoryListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryLeadRepository()

	first := newLead(t, "First", "+15551110001", "")
	first.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, first))

	second := newLead(t, "Second", "+15551110002", "")
	second.CreatedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, second))

	leads, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "Second", leads[0].Name)
	assert.Equal(t, "First", leads[1].Name)
}

func TestMemoryMessageLog(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryMessageLog()

	require.NoError(t, log.Append(ctx, lead.NewMessage("lead_1", lead.ChannelSMS, "+15551234567", "", "hello")))
	require.NoError(t, log.Append(ctx, lead.NewMessage("lead_1", lead.ChannelEmail, "a@b.com", "Re: hi", "body")))

	msgs, err := log.List(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, lead.ChannelSMS, msgs[0].Channel)
	assert.NotEqual(t, msgs[0].ID, msgs[1].ID)
}

func TestMemoryLeadRepositoryRejectsDuplicateContacts(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryLeadRepository()

	require.NoError(t, repo.Create(ctx, newLead(t, "Maria Lopez", "+15551234567", "maria@lopezbakery.com")))

	err := repo.Create(ctx, newLead(t, "Other Name", "+15551234567", ""))
	assert.ErrorIs(t, err, domainErrors.ErrDuplicateLead)

	err = repo.Create(ctx, newLead(t, "Other Name", "", "maria@lopezbakery.com"))
	assert.ErrorIs(t, err, domainErrors.ErrDuplicateLead)

	// Distinct contact info is still accepted.
	require.NoError(t, repo.Create(ctx, newLead(t, "Gem City Plumbing", "+19375550177", "")))

	leads, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, leads, 2)
}
