package lead

import "context"

// Repository is the injected lead store. Implementations must serialize
// concurrent mutations per lead identifier; callers rely on Save observing
// the latest state written for the same ID.
type Repository interface {
	// GetByID returns the lead or errors.ErrLeadNotFound.
	GetByID(ctx context.Context, id string) (*Lead, error)
	// GetByPhone finds a lead by exact E.164 match, or errors.ErrLeadNotFound.
	GetByPhone(ctx context.Context, e164 string) (*Lead, error)
	// GetByEmail finds a lead by exact address match, or errors.ErrLeadNotFound.
	GetByEmail(ctx context.Context, address string) (*Lead, error)
	// List returns all leads, newest first.
	List(ctx context.Context) ([]*Lead, error)
	// Create assigns an ID to the lead and stores it.
	Create(ctx context.Context, l *Lead) error
	// Update persists mutations to an existing lead.
	Update(ctx context.Context, l *Lead) error
}

// MessageLog is the append-only audit log of dispatched messages.
type MessageLog interface {
	Append(ctx context.Context, msg Message) error
	List(ctx context.Context) ([]Message, error)
}
