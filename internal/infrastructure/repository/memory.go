package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domainErrors "github.com/bwbexpress/leadflow-backend/internal/domain/errors"
	"github.com/bwbexpress/leadflow-backend/internal/domain/lead"
)

// MemoryLeadRepository is a process-local lead store. IDs are assigned
// sequentially as lead_N. Every read returns a copy so callers can mutate
// freely and persist via Update.
type MemoryLeadRepository struct {
	mu    sync.RWMutex
	leads map[string]*lead.Lead
	seq   int
}

func NewMemoryLeadRepository() *MemoryLeadRepository {
	return &MemoryLeadRepository{leads: make(map[string]*lead.Lead)}
}

func (r *MemoryLeadRepository) GetByID(ctx context.Context, id string) (*lead.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.leads[id]
	if !ok {
		return nil, domainErrors.ErrLeadNotFound
	}
	return clone(l), nil
}

func (r *MemoryLeadRepository) GetByPhone(ctx context.Context, e164 string) (*lead.Lead, error) {
	if e164 == "" {
		return nil, domainErrors.ErrLeadNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.leads {
		if l.Phone.E164() == e164 {
			return clone(l), nil
		}
	}
	return nil, domainErrors.ErrLeadNotFound
}

func (r *MemoryLeadRepository) GetByEmail(ctx context.Context, address string) (*lead.Lead, error) {
	if address == "" {
		return nil, domainErrors.ErrLeadNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.leads {
		if l.Email.Address() == address {
			return clone(l), nil
		}
	}
	return nil, domainErrors.ErrLeadNotFound
}

// List returns all leads newest first.
func (r *MemoryLeadRepository) List(ctx context.Context) ([]*lead.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*lead.Lead, 0, len(r.leads))
	for _, l := range r.leads {
		out = append(out, clone(l))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Create stores the lead, assigning its ID. A lead sharing a phone or email
// with a stored one is rejected, mirroring the unique indexes on the
// Postgres store.
func (r *MemoryLeadRepository) Create(ctx context.Context, l *lead.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.leads {
		if l.Phone.E164() != "" && existing.Phone.E164() == l.Phone.E164() {
			return domainErrors.ErrDuplicateLead
		}
		if l.Email.Address() != "" && existing.Email.Address() == l.Email.Address() {
			return domainErrors.ErrDuplicateLead
		}
	}
	r.seq++
	l.ID = fmt.Sprintf("lead_%d", r.seq)
	r.leads[l.ID] = clone(l)
	return nil
}

func (r *MemoryLeadRepository) Update(ctx context.Context, l *lead.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leads[l.ID]; !ok {
		return domainErrors.ErrLeadNotFound
	}
	r.leads[l.ID] = clone(l)
	return nil
}

func clone(l *lead.Lead) *lead.Lead {
	copied := *l
	if l.Tags != nil {
		copied.Tags = append([]string(nil), l.Tags...)
	}
	return &copied
}

// MemoryMessageLog is an append-only in-process audit log.
type MemoryMessageLog struct {
	mu   sync.RWMutex
	msgs []lead.Message
}

func NewMemoryMessageLog() *MemoryMessageLog {
	return &MemoryMessageLog{}
}

func (m *MemoryMessageLog) Append(ctx context.Context, msg lead.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *MemoryMessageLog) List(ctx context.Context) ([]lead.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]lead.Message(nil), m.msgs...), nil
}
