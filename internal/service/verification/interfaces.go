package verification

import (
	"context"
	"net"
	"time"

	"github.com/bwbexpress/leadflow-backend/internal/domain/verification"
)

// MXResolver resolves mail-exchanger records for a domain.
type MXResolver interface {
	// LookupMX returns the domain's MX records. Errors mean "cannot
	// confirm", not "no mailbox".
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
	// HasMXRecords reports whether the domain has at least one MX record.
	// All resolution failures read as false.
	HasMXRecords(ctx context.Context, domain string) bool
}

// Prober runs the deliverability handshake against a domain's best mail
// exchanger without sending mail.
type Prober interface {
	Probe(ctx context.Context, domain, email string) (verification.Status, string)
}

// CarrierLookup queries a phone-intelligence service for line type and
// validity.
type CarrierLookup interface {
	Lookup(ctx context.Context, e164 string) verification.Result
}

// ResultCache stores verification results keyed by contact. A cache error on
// read degrades to a live verification; a cache error on write is dropped.
type ResultCache interface {
	Get(ctx context.Context, key string) (verification.Result, bool, error)
	Set(ctx context.Context, key string, result verification.Result, ttl time.Duration) error
}
