package verification

import (
	"context"
	"net"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Resolver wraps the system resolver with a bounded per-lookup timeout.
type Resolver struct {
	resolver *net.Resolver
	timeout  time.Duration
	logger   *zap.Logger
}

// NewResolver builds a Resolver. A zero timeout disables the bound.
func NewResolver(timeout time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		resolver: net.DefaultResolver,
		timeout:  timeout,
		logger:   logger,
	}
}

// LookupMX resolves the domain's MX records sorted by preference, lowest
// first. Ties keep the resolver's natural order.
func (r *Resolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	records, err := r.resolver.LookupMX(ctx, domain)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Pref < records[j].Pref
	})
	return records, nil
}

// HasMXRecords reports whether the domain resolves to at least one MX record.
// NXDOMAIN, SERVFAIL and timeouts all read as false: resolution failure means
// "cannot confirm", never an error for the caller.
func (r *Resolver) HasMXRecords(ctx context.Context, domain string) bool {
	records, err := r.LookupMX(ctx, domain)
	if err != nil {
		r.logger.Debug("mx lookup failed",
			zap.String("domain", domain),
			zap.Error(err),
		)
		return false
	}
	return len(records) > 0
}
